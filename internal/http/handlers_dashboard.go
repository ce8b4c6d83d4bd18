package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/store"
	"saldo/internal/view"
)

type expenseRow struct {
	ID          string
	Date        string
	Description string
	Category    string
	Amount      core.Money
}

type barRow struct {
	Label  string
	Amount core.Money
	Width  int
}

type fixedRow struct {
	ID        string
	Task      string
	Amount    core.Money
	Completed bool
}

type dashboardPage struct {
	Email    string
	Currency string
	Today    string
	Error    string

	Filter         core.FilterSpec
	FilterActive   bool
	FilterQuery    template.URL
	MonthSelect    template.HTML
	CategorySelect template.HTML
	NewCategory    template.HTML

	Summary       core.Summary
	Overspent     bool
	BarWidth      string
	Salary        core.Money
	Expenses      []expenseRow
	FilteredTotal core.Money
	ByCategory    []barRow
	ByMonth       []barRow

	Fixed      []fixedRow
	FixedTotal core.FixedSummary
}

// dashboardFor derives every dashboard figure from one snapshot. The summary
// uses the unfiltered total; lists and charts use the filtered subset.
func dashboardFor(snap store.Snapshot, spec core.FilterSpec) dashboardPage {
	filtered := core.Filter(snap.Expenses, spec)
	summary := core.Summarize(snap.Salary, core.Sum(snap.Expenses))

	page := dashboardPage{
		Filter:        spec,
		FilterActive:  spec.IsActive(),
		FilterQuery:   template.URL(EncodeFilterSpec(spec)),
		Summary:       summary,
		Overspent:     summary.Overspent(),
		BarWidth:      summary.BarWidth().StringFixed(1),
		Salary:        snap.Salary,
		FilteredTotal: core.Sum(filtered),
		FixedTotal:    core.FixedTotals(snap.Fixed),
		MonthSelect: view.SelectState{
			Name: "month", ID: "filter-month", AutoSubmit: true,
			Options:  view.MonthOptions(core.AvailableMonths(snap.Expenses)),
			Selected: spec.Month,
		}.HTML(),
		CategorySelect: view.SelectState{
			Name: "category", ID: "filter-category", AutoSubmit: true,
			Options:  view.CategoryOptions(snap.Categories),
			Selected: spec.Category,
		}.HTML(),
	}

	newCat := ""
	if len(snap.Categories) > 0 {
		newCat = snap.Categories[0]
	}
	page.NewCategory = view.SelectState{
		Name: "category", ID: "expense-category",
		Options:  view.PlainOptions(snap.Categories),
		Selected: newCat,
	}.HTML()

	// Newest first, as the expense list is read top-down.
	for i := len(filtered) - 1; i >= 0; i-- {
		e := filtered[i]
		page.Expenses = append(page.Expenses, expenseRow{
			ID: e.ID, Date: e.Date.String(), Description: e.Description,
			Category: e.Category, Amount: e.Amount,
		})
	}

	cats := core.AggregateByCategory(filtered)
	catAmounts := make([]core.Money, len(cats))
	for i, c := range cats {
		catAmounts[i] = c.Value
	}
	for i, w := range barWidths(catAmounts) {
		page.ByCategory = append(page.ByCategory, barRow{Label: cats[i].Name, Amount: cats[i].Value, Width: w})
	}

	months := core.AggregateByMonth(filtered)
	monthAmounts := make([]core.Money, len(months))
	for i, m := range months {
		monthAmounts[i] = m.Total
	}
	for i, w := range barWidths(monthAmounts) {
		page.ByMonth = append(page.ByMonth, barRow{Label: months[i].Name, Amount: months[i].Total, Width: w})
	}

	for _, f := range snap.Fixed {
		page.Fixed = append(page.Fixed, fixedRow{ID: f.ID, Task: f.Task, Amount: f.Amount, Completed: f.Completed})
	}
	return page
}

// barWidths scales amounts to a rounded percentage of the largest one. Any
// non-zero bar is at least 2 wide so it stays visible.
func barWidths(amounts []core.Money) []int {
	var maxCents int64
	for _, a := range amounts {
		if a.Cents > maxCents {
			maxCents = a.Cents
		}
	}
	out := make([]int, len(amounts))
	for i, a := range amounts {
		if maxCents <= 0 || a.Cents <= 0 {
			continue
		}
		w := int((a.Cents*100 + maxCents/2) / maxCents)
		if w < 2 {
			w = 2
		}
		if w > 100 {
			w = 100
		}
		out[i] = w
	}
	return out
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	sess, _ := sessionFrom(r.Context())

	st, err := s.storeFor(r)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to load records", log.FieldOwner, sess.UserID, log.FieldError, err)
		InternalServerError("Could not load your records. Please try again.").Write(w)
		return
	}

	var page dashboardPage
	spec, perr := ParseFilterSpec(r.URL.Query())
	if perr != nil {
		page = dashboardFor(st.Snapshot(), core.FilterSpec{Month: core.All, Category: core.All})
		page.Error = validationMessage(perr)
	} else {
		page = dashboardFor(st.Snapshot(), spec)
	}
	page.Email = sess.Email
	page.Currency = s.format.Code()
	page.Today = time.Now().Format(core.DateLayout)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if perr != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", page); err != nil {
		logger.WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			"template", "dashboard.html", log.FieldError, err)
	}
}

type chartBucket struct {
	Key         string `json:"key,omitempty"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Display     string `json:"display"`
}

type chartsResponse struct {
	Currency   string        `json:"currency"`
	Count      int           `json:"count"`
	TotalCents int64         `json:"total_cents"`
	ByCategory []chartBucket `json:"by_category"`
	ByMonth    []chartBucket `json:"by_month"`
}

// handleCharts returns both aggregates of the filtered expenses as JSON.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	spec, err := ParseFilterSpec(r.URL.Query())
	if err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}
	st, err := s.storeFor(r)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load records", log.FieldError, err)
		InternalServerError("Could not load your records.").Write(w)
		return
	}

	filtered := core.Filter(st.Snapshot().Expenses, spec)
	resp := chartsResponse{
		Currency:   s.format.Code(),
		Count:      len(filtered),
		TotalCents: core.Sum(filtered).Cents,
		ByCategory: []chartBucket{},
		ByMonth:    []chartBucket{},
	}
	for _, c := range core.AggregateByCategory(filtered) {
		resp.ByCategory = append(resp.ByCategory, chartBucket{Name: c.Name, AmountCents: c.Value.Cents, Display: s.format.Money(c.Value)})
	}
	for _, m := range core.AggregateByMonth(filtered) {
		resp.ByMonth = append(resp.ByMonth, chartBucket{Key: m.Key, Name: m.Name, AmountCents: m.Total.Cents, Display: s.format.Money(m.Total)})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode charts", log.FieldError, err)
	}
}
