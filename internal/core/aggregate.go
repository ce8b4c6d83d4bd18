package core

import (
	"sort"
	"time"
)

// CategoryTotal is one slice of the by-category chart.
type CategoryTotal struct {
	Name  string
	Value Money
}

// MonthTotal is one bar of the by-month chart. Key is YYYY-MM, Name the
// abbreviated month label shown on the axis.
type MonthTotal struct {
	Key   string
	Name  string
	Total Money
}

// AggregateByCategory sums amounts per category and orders the buckets by
// descending total. Equal totals keep the order in which the category was
// first encountered.
func AggregateByCategory(expenses []Expense) []CategoryTotal {
	index := make(map[string]int)
	var out []CategoryTotal
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryTotal{Name: e.Category})
		}
		out[i].Value = out[i].Value.Add(e.Amount)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Value.Cents > out[b].Value.Cents
	})
	return out
}

// AggregateByMonth sums amounts per calendar month in chronological order.
func AggregateByMonth(expenses []Expense) []MonthTotal {
	if len(expenses) == 0 {
		return nil
	}
	sorted := make([]Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Date.String() < sorted[b].Date.String()
	})

	index := make(map[string]int)
	var out []MonthTotal
	for _, e := range sorted {
		key := e.Date.MonthKey()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, MonthTotal{Key: key, Name: ShortMonthLabel(key)})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
	}
	return out
}

// ShortMonthLabel turns "2024-01" into "Jan". The key is read at midday UTC
// so no timezone offset can shift it into the neighbouring month.
func ShortMonthLabel(key string) string {
	t, ok := monthStart(key)
	if !ok {
		return key
	}
	return t.Format("Jan")
}

// LongMonthLabel turns "2024-01" into "January 2024".
func LongMonthLabel(key string) string {
	t, ok := monthStart(key)
	if !ok {
		return key
	}
	return t.Format("January 2006")
}

func monthStart(key string) (time.Time, bool) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), 1, 12, 0, 0, 0, time.UTC), true
}
