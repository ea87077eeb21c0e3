package core

import (
	"net/url"
	"strings"
)

// Filter is the active constraint set for listing, aggregation and export.
// A zero-value bound means no constraint on that side. All active
// constraints combine with AND.
type Filter struct {
	Start    Date
	End      Date
	Category string
}

// NewFilter builds a Filter from raw query strings. Dates must match strict
// YYYY-MM-DD; anything else is treated as absent, not as an error. When both
// bounds parse and the end precedes the start, the combination is invalid:
// both bounds are cleared and a warning is returned so the caller can
// surface it. Processing then continues without a date range.
func NewFilter(start, end, category string) (Filter, string) {
	f := Filter{Category: strings.TrimSpace(category)}
	if d, err := ParseDate(start); err == nil {
		f.Start = d
	}
	if d, err := ParseDate(end); err == nil {
		f.End = d
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		f.Start, f.End = Date{}, Date{}
		return f, "End date cannot be before start date"
	}
	return f, ""
}

// Matches reports whether e satisfies every active constraint. Both date
// bounds are inclusive; the category match is exact.
func (f Filter) Matches(e Expense) bool {
	if !f.Start.IsZero() && e.Date.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && e.Date.After(f.End) {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	return true
}

// StartISO returns the active start bound as YYYY-MM-DD, or "" when absent.
func (f Filter) StartISO() string {
	if f.Start.IsZero() {
		return ""
	}
	return f.Start.ISO()
}

// EndISO returns the active end bound as YYYY-MM-DD, or "" when absent.
func (f Filter) EndISO() string {
	if f.End.IsZero() {
		return ""
	}
	return f.End.ISO()
}

// Query encodes the active constraints as a URL query string, e.g.
// "category=Rent&start=2024-01-01". Empty when no constraint is active.
func (f Filter) Query() string {
	v := url.Values{}
	if s := f.StartISO(); s != "" {
		v.Set("start", s)
	}
	if e := f.EndISO(); e != "" {
		v.Set("end", e)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	return v.Encode()
}

// ExportFilename encodes the active bounds into the suggested attachment
// name for the CSV export, with "all" standing in for an absent bound.
func (f Filter) ExportFilename() string {
	start, end := f.StartISO(), f.EndISO()
	if start == "" {
		start = "all"
	}
	if end == "" {
		end = "all"
	}
	return "expenses_" + start + "_to_" + end + ".csv"
}
