package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"expenses/internal/core"
	"expenses/internal/export"
	applog "expenses/internal/log"
	"expenses/internal/store"
)

type expenseRow struct {
	ID          int64
	Date        string
	Description string
	Category    string
	Amount      string
}

type categoryRow struct {
	Name   string
	Amount string
}

type indexData struct {
	Messages   []flashMessage
	Expenses   []expenseRow
	ByCategory []categoryRow
	Total      string
	Categories []string
	Today      string

	// Active filter, echoed back into the form. Cleared when the range
	// was invalid.
	Start    string
	End      string
	Category string

	HasData          bool
	ExportURL        string
	CategoryChartURL string
	DayChartURL      string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, warn := core.NewFilter(q.Get("start"), q.Get("end"), q.Get("category"))

	messages := popFlashes(w, r)
	if warn != "" {
		messages = append(messages, flashMessage{Kind: flashWarning, Text: warn})
	}

	ctx := r.Context()
	items, err := s.store.List(ctx, f, store.NewestFirst)
	if err != nil {
		s.serverError(w, r, "list expenses", err)
		return
	}
	byCat, err := s.store.SumByCategory(ctx, f)
	if err != nil {
		s.serverError(w, r, "sum by category", err)
		return
	}

	qs := ""
	if enc := f.Query(); enc != "" {
		qs = "?" + enc
	}

	data := indexData{
		Messages:   messages,
		Total:      core.Total(items).Format(),
		Categories: core.Categories,
		Today:      core.Today().ISO(),
		Start:      f.StartISO(),
		End:        f.EndISO(),
		Category:   f.Category,

		HasData:          len(items) > 0,
		ExportURL:        "/export.csv" + qs,
		CategoryChartURL: "/charts/categories.png" + qs,
		DayChartURL:      "/charts/days.png" + qs,
	}
	for _, e := range items {
		data.Expenses = append(data.Expenses, expenseRow{
			ID:          e.ID,
			Date:        e.Date.ISO(),
			Description: e.Description,
			Category:    e.Category,
			Amount:      e.Amount.Format(),
		})
	}
	for _, ca := range byCat {
		data.ByCategory = append(data.ByCategory, categoryRow{Name: ca.Category, Amount: ca.Amount.Format()})
	}

	s.render(w, r, "index.html", data)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	e, msg := expenseFromForm(r)
	if msg != "" {
		addFlash(w, r, flashError, msg)
		redirect(w, r, "/")
		return
	}

	id, err := s.store.Create(r.Context(), e)
	if err != nil {
		s.serverError(w, r, "create expense", err)
		return
	}

	applog.FromContext(r.Context()).Info("Expense created", "id", id, "category", e.Category)
	addFlash(w, r, flashSuccess, "Expense added")
	redirect(w, r, "/")
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := s.store.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, "delete expense", err)
		return
	}

	addFlash(w, r, flashSuccess, "Expense deleted")
	redirect(w, r, "/")
}

type editData struct {
	Messages   []flashMessage
	Categories []string
	Expense    expenseRow
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	e, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, "get expense", err)
		return
	}

	s.render(w, r, "edit.html", editData{
		Messages:   popFlashes(w, r),
		Categories: core.Categories,
		Expense: expenseRow{
			ID:          e.ID,
			Date:        e.Date.ISO(),
			Description: e.Description,
			Category:    e.Category,
			Amount:      e.Amount.Format(),
		},
	})
}

func (s *Server) handleEditSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if _, err := s.store.Get(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.serverError(w, r, "get expense", err)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	editURL := "/edit/" + strconv.FormatInt(id, 10)
	e, msg := expenseFromForm(r)
	if msg != "" {
		// Validation failure sends the user back to the edit form.
		addFlash(w, r, flashError, msg)
		redirect(w, r, editURL)
		return
	}

	err := s.store.Update(r.Context(), id, e)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, "update expense", err)
		return
	}

	addFlash(w, r, flashSuccess, "Expense edited")
	redirect(w, r, "/")
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, _ := core.NewFilter(q.Get("start"), q.Get("end"), q.Get("category"))

	items, err := s.store.List(r.Context(), f, store.OldestFirst)
	if err != nil {
		s.serverError(w, r, "list expenses", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.ExportFilename()+`"`)
	_, _ = w.Write([]byte(export.CSV(items)))
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, _ := core.NewFilter(q.Get("start"), q.Get("end"), q.Get("category"))

	series, err := s.store.SumByCategory(r.Context(), f)
	if err != nil {
		s.serverError(w, r, "sum by category", err)
		return
	}
	png, err := s.charts.CategoryPie(series)
	if err != nil {
		s.serverError(w, r, "render category chart", err)
		return
	}
	writePNG(w, png)
}

func (s *Server) handleDayChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, _ := core.NewFilter(q.Get("start"), q.Get("end"), q.Get("category"))

	series, err := s.store.SumByDay(r.Context(), f)
	if err != nil {
		s.serverError(w, r, "sum by day", err)
		return
	}
	png, err := s.charts.DayBars(series)
	if err != nil {
		s.serverError(w, r, "render day chart", err)
		return
	}
	writePNG(w, png)
}

// expenseFromForm reads and validates the shared create/edit form. The
// returned message is empty on success and user-facing otherwise. A missing
// or unparsable date is not an error: today is substituted silently.
func expenseFromForm(r *http.Request) (core.Expense, string) {
	description := sanitizeInput(r.PostForm.Get("description"))
	amountStr := strings.TrimSpace(r.PostForm.Get("amount"))
	category := sanitizeInput(r.PostForm.Get("category"))
	dateStr := strings.TrimSpace(r.PostForm.Get("date"))

	if description == "" || amountStr == "" || category == "" {
		return core.Expense{}, "Please fill in description, amount and category"
	}
	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		return core.Expense{}, "Amount must be a positive number"
	}

	return core.Expense{
		Date:        core.ParseDateOr(dateStr, core.Today()),
		Description: description,
		Amount:      core.Money{Cents: cents},
		Category:    category,
	}, ""
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		applog.FromContext(r.Context()).Error("Template execution failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	applog.FromContext(r.Context()).Error("Request failed", "operation", op, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func writePNG(w http.ResponseWriter, png []byte) {
	if len(png) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
