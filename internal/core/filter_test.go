package core

import (
	"reflect"
	"testing"
)

func sampleExpenses() []Expense {
	return []Expense{
		{ID: "1", Owner: "u1", Description: "Groceries", Amount: Money{Cents: 5000}, Category: "Food", Date: NewDate(2024, 1, 5)},
		{ID: "2", Owner: "u1", Description: "Dinner", Amount: Money{Cents: 3000}, Category: "Food", Date: NewDate(2024, 2, 1)},
		{ID: "3", Owner: "u1", Description: "Bus pass", Amount: Money{Cents: 2000}, Category: "Transport", Date: NewDate(2024, 1, 10)},
	}
}

func ids(expenses []Expense) []string {
	out := make([]string, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, e.ID)
	}
	return out
}

func TestFilterIdentity(t *testing.T) {
	in := sampleExpenses()
	for _, spec := range []FilterSpec{{}, {Month: All, Category: All}} {
		got := Filter(in, spec)
		if !reflect.DeepEqual(got, in) {
			t.Fatalf("identity filter %+v changed input: %v", spec, ids(got))
		}
		if spec.IsActive() {
			t.Fatalf("spec %+v should not be active", spec)
		}
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		spec FilterSpec
		want []string
	}{
		{"by month", FilterSpec{Month: "2024-01", Category: All}, []string{"1", "3"}},
		{"by category", FilterSpec{Month: All, Category: "Food"}, []string{"1", "2"}},
		{"month and category", FilterSpec{Month: "2024-01", Category: "Food"}, []string{"1"}},
		{"from inclusive", FilterSpec{DateFrom: "2024-01-10"}, []string{"2", "3"}},
		{"to inclusive", FilterSpec{DateTo: "2024-01-10"}, []string{"1", "3"}},
		{"range", FilterSpec{DateFrom: "2024-01-06", DateTo: "2024-01-31"}, []string{"3"}},
		{"unknown category", FilterSpec{Category: "Health"}, []string{}},
		{"empty range", FilterSpec{DateFrom: "2024-03-01", DateTo: "2024-02-01"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(sampleExpenses(), tt.spec))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter() = %v, want %v", got, tt.want)
			}
			if !tt.spec.IsActive() {
				t.Errorf("spec %+v should be active", tt.spec)
			}
		})
	}
}

func TestFilterEmptyInput(t *testing.T) {
	if got := Filter(nil, FilterSpec{Month: "2024-01"}); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestAvailableMonths(t *testing.T) {
	in := append(sampleExpenses(), Expense{ID: "4", Amount: Money{Cents: 1}, Category: "Other", Date: NewDate(2023, 12, 24)})
	got := AvailableMonths(in)
	want := []string{"2024-02", "2024-01", "2023-12"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("AvailableMonths() = %v, want %v", got, want)
	}
}

func TestFilterSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    FilterSpec
		wantErr bool
	}{
		{"zero value", FilterSpec{}, false},
		{"all sentinels", FilterSpec{Month: All, Category: All}, false},
		{"valid bounds", FilterSpec{Month: "2024-02", DateFrom: "2024-02-01", DateTo: "2024-02-29"}, false},
		{"bad month", FilterSpec{Month: "2024-2"}, true},
		{"month thirteen", FilterSpec{Month: "2024-13"}, true},
		{"impossible day", FilterSpec{DateTo: "2023-02-29"}, true},
		{"wrong layout", FilterSpec{DateFrom: "01.02.2024"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}
