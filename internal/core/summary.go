package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Summary is the salary-versus-spending overview.
type Summary struct {
	Salary     Money
	Total      Money
	Remaining  Money
	Percentage decimal.Decimal
}

// Summarize computes the remaining balance and the share of salary spent.
// Remaining may be negative and Percentage may exceed 100; both are valid
// states that callers display as overspend.
func Summarize(salary, totalExpenses Money) Summary {
	s := Summary{
		Salary:     salary,
		Total:      totalExpenses,
		Remaining:  salary.Sub(totalExpenses),
		Percentage: decimal.Zero,
	}
	if salary.Cents > 0 {
		s.Percentage = decimal.NewFromInt(totalExpenses.Cents).
			Div(decimal.NewFromInt(salary.Cents)).
			Mul(hundred)
	}
	return s
}

// Overspent reports whether expenses exceed the salary.
func (s Summary) Overspent() bool {
	return s.Remaining.Cents < 0
}

// BarWidth is the percentage clamped to [0,100] for progress-bar rendering.
func (s Summary) BarWidth() decimal.Decimal {
	if s.Percentage.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if s.Percentage.GreaterThan(hundred) {
		return hundred
	}
	return s.Percentage
}

// FixedSummary totals the fixed monthly bills and the part already paid.
type FixedSummary struct {
	Total Money
	Paid  Money
}

func FixedTotals(fixed []FixedExpense) FixedSummary {
	var s FixedSummary
	for _, f := range fixed {
		s.Total = s.Total.Add(f.Amount)
		if f.Completed {
			s.Paid = s.Paid.Add(f.Amount)
		}
	}
	return s
}
