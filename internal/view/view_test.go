package view

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"saldo/internal/core"
)

func TestSelectMarksOnlyTheSelectedValue(t *testing.T) {
	opts := []Option{{"all", "All"}, {"Food", "Food"}, {"Transport", "Transport"}}

	got := Select(opts, "Food")
	if len(got) != 3 {
		t.Fatalf("expected 3 options, got %d", len(got))
	}
	for _, o := range got {
		if o.Selected != (o.Value == "Food") {
			t.Errorf("option %q selected=%v", o.Value, o.Selected)
		}
	}

	for _, o := range Select(opts, "missing") {
		if o.Selected {
			t.Errorf("no option should be selected, got %q", o.Value)
		}
	}
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	opts := []Option{{"a", "A"}}
	_ = Select(opts, "a")
	if opts[0].Value != "a" || opts[0].Label != "A" {
		t.Fatalf("input changed: %+v", opts)
	}
}

func TestSelectStateHTML(t *testing.T) {
	s := SelectState{
		Name:     "category",
		ID:       "filter-category",
		Options:  CategoryOptions([]string{"Food", `<b>x</b>`}),
		Selected: "Food",
	}
	html := string(s.HTML())

	for _, want := range []string{
		`<select name="category" id="filter-category">`,
		`<option value="all">All Categories</option>`,
		`<option value="Food" selected>Food</option>`,
		`&lt;b&gt;x&lt;/b&gt;`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered select missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, "<b>") {
		t.Errorf("option label was not escaped: %s", html)
	}
}

func TestMonthOptions(t *testing.T) {
	got := MonthOptions([]string{"2024-02", "2024-01"})
	want := []Option{
		{core.All, "All Months"},
		{"2024-02", "February 2024"},
		{"2024-01", "January 2024"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("option %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFormatter(t *testing.T) {
	if _, err := NewFormatter("XXX1"); err == nil {
		t.Error("expected error for unknown currency")
	}

	f, err := NewFormatter("usd")
	if err != nil {
		t.Fatalf("NewFormatter: %v", err)
	}
	tests := []struct {
		cents int64
		want  string
	}{
		{123456, "$1,234.56"},
		{5, "$0.05"},
		{-2000000, "-$20,000.00"},
	}
	for _, tt := range tests {
		if got := f.Money(core.Money{Cents: tt.cents}); got != tt.want {
			t.Errorf("Money(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
	if got := f.Percent(decimal.NewFromInt(120)); got != "120.0%" {
		t.Errorf("Percent = %q", got)
	}
}

func TestFormatterMAD(t *testing.T) {
	f, err := NewFormatter("MAD")
	if err != nil {
		t.Fatalf("NewFormatter: %v", err)
	}
	got := f.Money(core.Money{Cents: 500000})
	if !strings.HasPrefix(got, "5,000.00 ") {
		t.Errorf("Money = %q, want amount before the currency sign", got)
	}
}
