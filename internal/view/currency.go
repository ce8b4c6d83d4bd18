package view

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"saldo/internal/core"
)

// Formatter renders amounts in one fixed display currency. The currency is
// cosmetic; stored amounts carry none.
type Formatter struct {
	code string
}

func NewFormatter(code string) (*Formatter, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if money.GetCurrency(code) == nil {
		return nil, fmt.Errorf("unknown currency %q", code)
	}
	return &Formatter{code: code}, nil
}

func (f *Formatter) Code() string { return f.code }

// Money formats cents, e.g. 123456 in USD as "$1,234.56".
func (f *Formatter) Money(m core.Money) string {
	return money.New(m.Cents, f.code).Display()
}

// Percent formats with one decimal, e.g. "120.0%".
func (f *Formatter) Percent(p decimal.Decimal) string {
	return p.StringFixed(1) + "%"
}
