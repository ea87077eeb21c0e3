// Package export serializes a filtered, date-ascending expense listing to a
// CSV text document.
package export

import (
	"strings"

	"expenses/internal/core"
)

// Header is the fixed first row of every export, present even when no
// expense matches the filter.
const Header = "date,description,category,amount"

// CSV renders one comma-joined row per expense: ISO-8601 date, description,
// category, amount with two decimal places. Fields are not quoted or
// escaped, so a description containing a comma yields a row that is not
// strictly valid CSV. That matches the historical export format; switch to
// encoding/csv if strict quoting ever becomes a requirement.
func CSV(items []core.Expense) string {
	var b strings.Builder
	b.WriteString(Header)
	for _, e := range items {
		b.WriteByte('\n')
		b.WriteString(e.Date.ISO())
		b.WriteByte(',')
		b.WriteString(e.Description)
		b.WriteByte(',')
		b.WriteString(e.Category)
		b.WriteByte(',')
		b.WriteString(e.Amount.Format())
	}
	return b.String()
}
