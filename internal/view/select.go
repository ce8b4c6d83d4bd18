// Package view holds the presentation helpers shared by the HTML handlers:
// select widgets, filter option lists and currency formatting.
package view

import (
	"bytes"
	"html/template"

	"saldo/internal/core"
)

type Option struct {
	Value string
	Label string
}

// RenderedOption is an option together with its selection flag.
type RenderedOption struct {
	Value    string
	Label    string
	Selected bool
}

// Select marks the option whose value equals selected. The selection lives
// with the caller; Select never remembers it. When no option matches, none
// is marked and the browser shows the first one.
func Select(options []Option, selected string) []RenderedOption {
	out := make([]RenderedOption, len(options))
	for i, o := range options {
		out[i] = RenderedOption{Value: o.Value, Label: o.Label, Selected: o.Value == selected}
	}
	return out
}

// SelectState is the parent-held state of one select control.
type SelectState struct {
	Name     string
	ID       string
	Options  []Option
	Selected string
	// AutoSubmit submits the enclosing form on change.
	AutoSubmit bool
}

var selectTmpl = template.Must(template.New("select").Parse(
	`<select name="{{.Name}}"{{if .ID}} id="{{.ID}}"{{end}}{{if .AutoSubmit}} data-autosubmit{{end}}>` +
		`{{range .Options}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}` +
		`</select>`))

// HTML renders the control. Values and labels are escaped.
func (s SelectState) HTML() template.HTML {
	var buf bytes.Buffer
	err := selectTmpl.Execute(&buf, struct {
		Name, ID   string
		AutoSubmit bool
		Options    []RenderedOption
	}{s.Name, s.ID, s.AutoSubmit, Select(s.Options, s.Selected)})
	if err != nil {
		return ""
	}
	return template.HTML(buf.String())
}

// MonthOptions lists "All Months" followed by one entry per YYYY-MM key.
func MonthOptions(months []string) []Option {
	out := make([]Option, 0, len(months)+1)
	out = append(out, Option{Value: core.All, Label: "All Months"})
	for _, m := range months {
		out = append(out, Option{Value: m, Label: core.LongMonthLabel(m)})
	}
	return out
}

// CategoryOptions lists "All Categories" followed by the given names.
func CategoryOptions(categories []string) []Option {
	out := make([]Option, 0, len(categories)+1)
	out = append(out, Option{Value: core.All, Label: "All Categories"})
	for _, c := range categories {
		out = append(out, Option{Value: c, Label: c})
	}
	return out
}

// PlainOptions uses each name as both value and label.
func PlainOptions(names []string) []Option {
	out := make([]Option, len(names))
	for i, n := range names {
		out[i] = Option{Value: n, Label: n}
	}
	return out
}
