package core

import (
	"sort"
	"strings"
	"time"
)

// All is the sentinel selecting every month or every category.
const All = "all"

// FilterSpec is the transient dashboard filter state.
// DateFrom and DateTo are inclusive YYYY-MM-DD bounds; empty means unbounded.
type FilterSpec struct {
	Month    string
	Category string
	DateFrom string
	DateTo   string
}

// IsActive reports whether any filter narrows the result.
func (f FilterSpec) IsActive() bool {
	return !isAll(f.Month) || !isAll(f.Category) || f.DateFrom != "" || f.DateTo != ""
}

// Validate rejects a month that is not YYYY-MM and bounds that are not
// real YYYY-MM-DD dates.
func (f FilterSpec) Validate() error {
	if !isAll(f.Month) {
		if _, err := time.Parse("2006-01", f.Month); err != nil {
			return ErrInvalidDate
		}
	}
	for _, d := range []string{f.DateFrom, f.DateTo} {
		if d == "" {
			continue
		}
		if _, err := ParseDate(d); err != nil {
			return err
		}
	}
	return nil
}

// Matches reports whether a single expense passes every predicate of f.
// Dates are compared as ISO strings, which orders them chronologically.
func (f FilterSpec) Matches(e Expense) bool {
	date := e.Date.String()
	if !isAll(f.Month) && !strings.HasPrefix(date, f.Month) {
		return false
	}
	if !isAll(f.Category) && e.Category != f.Category {
		return false
	}
	if f.DateFrom != "" && date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && date > f.DateTo {
		return false
	}
	return true
}

// Filter returns the expenses passing spec, preserving input order.
func Filter(expenses []Expense, spec FilterSpec) []Expense {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if spec.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// AvailableMonths lists the distinct YYYY-MM keys present in expenses,
// newest first.
func AvailableMonths(expenses []Expense) []string {
	seen := make(map[string]struct{}, len(expenses))
	months := make([]string, 0)
	for _, e := range expenses {
		key := e.Date.MonthKey()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		months = append(months, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

func isAll(v string) bool {
	return v == "" || v == All
}
