// Package http provides HTTP server and handler implementations.
//
// This file turns query strings and form posts into domain values. Every
// parse error it returns is a core validation error.
package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"saldo/internal/core"
)

// ParseFilterSpec reads month, category, from and to from the query string.
// Missing or "all" month/category select everything; a malformed month or
// date is rejected.
func ParseFilterSpec(q url.Values) (core.FilterSpec, error) {
	spec := core.FilterSpec{Month: core.All, Category: core.All}

	if m := strings.TrimSpace(q.Get("month")); m != "" && m != core.All {
		if _, err := time.Parse("2006-01", m); err != nil {
			return core.FilterSpec{}, core.ErrInvalidDate
		}
		spec.Month = m
	}
	if c := sanitizeInput(q.Get("category")); c != "" {
		spec.Category = c
	}
	for _, bound := range []struct {
		key string
		dst *string
	}{{"from", &spec.DateFrom}, {"to", &spec.DateTo}} {
		v := strings.TrimSpace(q.Get(bound.key))
		if v == "" {
			continue
		}
		d, err := core.ParseDate(v)
		if err != nil {
			return core.FilterSpec{}, err
		}
		*bound.dst = d.String()
	}
	return spec, nil
}

// EncodeFilterSpec is the inverse of ParseFilterSpec; unset fields are omitted.
func EncodeFilterSpec(spec core.FilterSpec) string {
	q := url.Values{}
	if spec.Month != "" && spec.Month != core.All {
		q.Set("month", spec.Month)
	}
	if spec.Category != "" && spec.Category != core.All {
		q.Set("category", spec.Category)
	}
	if spec.DateFrom != "" {
		q.Set("from", spec.DateFrom)
	}
	if spec.DateTo != "" {
		q.Set("to", spec.DateTo)
	}
	return q.Encode()
}

// ParseExpenseForm builds an unsaved expense. An empty date means today.
func ParseExpenseForm(form url.Values, today core.Date) (core.Expense, error) {
	cents, err := core.ParseDecimalToCents(form.Get("amount"))
	if err != nil {
		return core.Expense{}, err
	}
	date := today
	if v := strings.TrimSpace(form.Get("date")); v != "" {
		if date, err = core.ParseDate(v); err != nil {
			return core.Expense{}, err
		}
	}
	e := core.Expense{
		Description: sanitizeInput(form.Get("description")),
		Amount:      core.Money{Cents: cents},
		Category:    sanitizeInput(form.Get("category")),
		Date:        date,
	}
	if strings.TrimSpace(e.Description) == "" {
		return core.Expense{}, core.ErrEmptyDescription
	}
	return e, nil
}

func ParseFixedForm(form url.Values) (core.FixedExpense, error) {
	task := sanitizeInput(form.Get("task"))
	if task == "" {
		return core.FixedExpense{}, core.ErrEmptyTask
	}
	cents, err := core.ParseDecimalToCents(form.Get("amount"))
	if err != nil {
		return core.FixedExpense{}, err
	}
	return core.FixedExpense{Task: task, Amount: core.Money{Cents: cents}}, nil
}

func ParseSalaryForm(form url.Values) (core.Money, error) {
	cents, err := core.ParseSalaryToCents(form.Get("salary"))
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// ParseFormOrFail parses the request form and returns an error response on failure.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
