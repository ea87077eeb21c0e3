package core

import "sort"

// CategoryAmount is a per-category sum used for proportional (pie) charting.
type CategoryAmount struct {
	Category string
	Amount   Money
}

// DayAmount is a per-date sum used for time-series (bar) charting.
type DayAmount struct {
	Date   Date
	Amount Money
}

// Summary bundles everything the list view derives from a filtered set.
type Summary struct {
	Total      Money
	ByCategory []CategoryAmount
	ByDay      []DayAmount
}

// Total sums all amounts in the set. Cents are exact, so no rounding step
// is needed before display.
func Total(items []Expense) Money {
	var t Money
	for _, e := range items {
		t = t.Add(e.Amount)
	}
	return t
}

// SumByCategory groups the set by category. Categories with no expenses are
// omitted rather than zero-filled. The result is sorted by category name for
// determinism; consumers must not rely on a particular order beyond that.
func SumByCategory(items []Expense) []CategoryAmount {
	sums := make(map[string]int64)
	for _, e := range items {
		sums[e.Category] += e.Amount.Cents
	}
	out := make([]CategoryAmount, 0, len(sums))
	for cat, cents := range sums {
		out = append(out, CategoryAmount{Category: cat, Amount: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// SumByDay groups the set by calendar date, ascending. Dates with no
// expenses are omitted, not interpolated.
func SumByDay(items []Expense) []DayAmount {
	sums := make(map[string]int64)
	dates := make(map[string]Date)
	for _, e := range items {
		key := e.Date.ISO()
		sums[key] += e.Amount.Cents
		dates[key] = e.Date
	}
	out := make([]DayAmount, 0, len(sums))
	for key, cents := range sums {
		out = append(out, DayAmount{Date: dates[key], Amount: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Summarize derives the full summary from a filtered set.
func Summarize(items []Expense) Summary {
	return Summary{
		Total:      Total(items),
		ByCategory: SumByCategory(items),
		ByDay:      SumByDay(items),
	}
}
