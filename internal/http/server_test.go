package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	s := NewServer("127.0.0.1:0", st, applog.New(slog.LevelError, applog.ComponentHTTP))
	t.Cleanup(func() {
		s.rateLimiter.stop()
		_ = st.Close()
	})
	return s, st
}

func seed(t *testing.T, st *memory.Store, date, description string, cents int64, category string) int64 {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("seed date %q: %v", date, err)
	}
	id, err := st.Create(context.Background(), core.Expense{
		Date:        d,
		Description: description,
		Amount:      core.Money{Cents: cents},
		Category:    category,
	})
	if err != nil {
		t.Fatalf("seed expense: %v", err)
	}
	return id
}

// seedScenario loads the three-expense fixture used across tests: two
// grocery purchases on consecutive days and one insurance payment.
func seedScenario(t *testing.T, st *memory.Store) {
	t.Helper()
	seed(t, st, "2024-01-01", "veg", 1000, "Groceries")
	seed(t, st, "2024-01-02", "milk", 500, "Groceries")
	seed(t, st, "2024-01-02", "premium", 2000, "Insurance")
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(s, req)
}

func TestIndexListsExpensesNewestFirst(t *testing.T) {
	s, st := newTestServer(t)
	seedScenario(t, st)

	rr := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	body := rr.Body.String()
	premium := strings.Index(body, "premium")
	milk := strings.Index(body, "milk")
	veg := strings.Index(body, "veg")
	if premium < 0 || milk < 0 || veg < 0 {
		t.Fatalf("missing expense rows in body")
	}
	if !(premium < milk && milk < veg) {
		t.Errorf("rows not in newest-first order: premium=%d milk=%d veg=%d", premium, milk, veg)
	}
	if !strings.Contains(body, "Total: 35.00") {
		t.Errorf("total missing, body does not contain %q", "Total: 35.00")
	}
}

func TestIndexCategoryFilter(t *testing.T) {
	s, st := newTestServer(t)
	seedScenario(t, st)

	rr := do(s, httptest.NewRequest(http.MethodGet, "/?category=Groceries", nil))
	body := rr.Body.String()
	if !strings.Contains(body, "veg") || !strings.Contains(body, "milk") {
		t.Errorf("grocery rows missing")
	}
	if strings.Contains(body, "premium") {
		t.Errorf("insurance row should be filtered out")
	}
	if !strings.Contains(body, "Total: 15.00") {
		t.Errorf("filtered total wrong")
	}
}

func TestIndexInvalidRangeShowsWarningAndAllRows(t *testing.T) {
	s, st := newTestServer(t)
	seedScenario(t, st)

	rr := do(s, httptest.NewRequest(http.MethodGet, "/?start=2024-02-10&end=2024-01-01", nil))
	body := rr.Body.String()
	if !strings.Contains(body, "End date cannot be before start date") {
		t.Errorf("warning missing from body")
	}
	for _, want := range []string{"veg", "milk", "premium"} {
		if !strings.Contains(body, want) {
			t.Errorf("row %q missing after range was cleared", want)
		}
	}
}

func TestIndexUnparsableFilterDatesIgnored(t *testing.T) {
	s, st := newTestServer(t)
	seedScenario(t, st)

	rr := do(s, httptest.NewRequest(http.MethodGet, "/?start=not-a-date&end=2024-01-01", nil))
	body := rr.Body.String()
	if strings.Contains(body, "End date cannot be before start date") {
		t.Errorf("unexpected warning for unparsable start date")
	}
	if !strings.Contains(body, "veg") || strings.Contains(body, "milk") {
		t.Errorf("end bound should still apply when start is unparsable")
	}
}

func TestAddCreatesExpense(t *testing.T) {
	s, st := newTestServer(t)

	rr := postForm(s, "/add", url.Values{
		"description": {"coffee"},
		"amount":      {"3.50"},
		"category":    {"Others"},
		"date":        {"2024-03-01"},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	if loc := rr.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
	if st.Len() != 1 {
		t.Fatalf("store has %d expenses, want 1", st.Len())
	}

	// The success message rides a flash cookie and shows on the next page.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	page := do(s, req)
	if !strings.Contains(page.Body.String(), "Expense added") {
		t.Errorf("flash message missing after redirect")
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{
			name: "missing description",
			form: url.Values{"amount": {"5"}, "category": {"Rent"}},
			want: "Please fill in description, amount and category",
		},
		{
			name: "missing amount",
			form: url.Values{"description": {"rent"}, "category": {"Rent"}},
			want: "Please fill in description, amount and category",
		},
		{
			name: "zero amount",
			form: url.Values{"description": {"rent"}, "amount": {"0"}, "category": {"Rent"}},
			want: "Amount must be a positive number",
		},
		{
			name: "negative amount",
			form: url.Values{"description": {"rent"}, "amount": {"-5"}, "category": {"Rent"}},
			want: "Amount must be a positive number",
		},
		{
			name: "garbage amount",
			form: url.Values{"description": {"rent"}, "amount": {"abc"}, "category": {"Rent"}},
			want: "Amount must be a positive number",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, st := newTestServer(t)

			rr := postForm(s, "/add", tt.form)
			if rr.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want %d", rr.Code, http.StatusSeeOther)
			}
			if st.Len() != 0 {
				t.Errorf("store has %d expenses, want 0", st.Len())
			}

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for _, c := range rr.Result().Cookies() {
				req.AddCookie(c)
			}
			if body := do(s, req).Body.String(); !strings.Contains(body, tt.want) {
				t.Errorf("flash %q missing from next page", tt.want)
			}
		})
	}
}

func TestAddUnparsableDateDefaultsToToday(t *testing.T) {
	s, st := newTestServer(t)

	rr := postForm(s, "/add", url.Values{
		"description": {"coffee"},
		"amount":      {"3.50"},
		"category":    {"Others"},
		"date":        {"not-a-date"},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusSeeOther)
	}

	got, err := st.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get created expense: %v", err)
	}
	if !got.Date.Equal(core.Today()) {
		t.Errorf("date = %s, want today", got.Date.ISO())
	}
}

func TestDelete(t *testing.T) {
	s, st := newTestServer(t)
	id := seed(t, st, "2024-01-01", "veg", 1000, "Groceries")

	rr := postForm(s, "/delete/"+strconv.FormatInt(id, 10), nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	if st.Len() != 0 {
		t.Errorf("expense not deleted")
	}

	if rr := postForm(s, "/delete/999", nil); rr.Code != http.StatusNotFound {
		t.Errorf("deleting missing id: status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	if rr := postForm(s, "/delete/abc", nil); rr.Code != http.StatusNotFound {
		t.Errorf("deleting non-numeric id: status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestEditFormPrefills(t *testing.T) {
	s, st := newTestServer(t)
	id := seed(t, st, "2024-01-01", "veg", 1050, "Groceries")

	rr := do(s, httptest.NewRequest(http.MethodGet, "/edit/"+strconv.FormatInt(id, 10), nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := rr.Body.String()
	for _, want := range []string{"veg", "10.50", "2024-01-01"} {
		if !strings.Contains(body, want) {
			t.Errorf("edit form missing %q", want)
		}
	}

	if rr := do(s, httptest.NewRequest(http.MethodGet, "/edit/999", nil)); rr.Code != http.StatusNotFound {
		t.Errorf("missing id: status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestEditSubmit(t *testing.T) {
	s, st := newTestServer(t)
	id := seed(t, st, "2024-01-01", "veg", 1000, "Groceries")
	path := "/edit/" + strconv.FormatInt(id, 10)

	rr := postForm(s, path, url.Values{
		"description": {"vegetables"},
		"amount":      {"12.25"},
		"category":    {"Others"},
		"date":        {"2024-01-05"},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	if loc := rr.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}

	got, err := st.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "vegetables" || got.Amount.Cents != 1225 || got.Category != "Others" || got.Date.ISO() != "2024-01-05" {
		t.Errorf("expense not updated: %+v", got)
	}
}

func TestEditSubmitValidationFailureKeepsRecord(t *testing.T) {
	s, st := newTestServer(t)
	id := seed(t, st, "2024-01-01", "veg", 1000, "Groceries")
	path := "/edit/" + strconv.FormatInt(id, 10)

	rr := postForm(s, path, url.Values{
		"description": {"veg"},
		"amount":      {"-1"},
		"category":    {"Groceries"},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	if loc := rr.Header().Get("Location"); loc != path {
		t.Errorf("Location = %q, want %q", loc, path)
	}

	got, err := st.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount.Cents != 1000 {
		t.Errorf("amount changed to %d, want 1000", got.Amount.Cents)
	}
}

func TestEditSubmitMissingID(t *testing.T) {
	s, _ := newTestServer(t)

	rr := postForm(s, "/edit/999", url.Values{
		"description": {"x"},
		"amount":      {"1"},
		"category":    {"Rent"},
	})
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestExportCSV(t *testing.T) {
	s, st := newTestServer(t)
	seedScenario(t, st)

	rr := do(s, httptest.NewRequest(http.MethodGet, "/export.csv?category=Groceries", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "expenses_all_to_all.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	want := "date,description,category,amount\n" +
		"2024-01-01,veg,Groceries,10.00\n" +
		"2024-01-02,milk,Groceries,5.00"
	if got := rr.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestExportCSVFilenameReflectsRange(t *testing.T) {
	s, st := newTestServer(t)
	seedScenario(t, st)

	rr := do(s, httptest.NewRequest(http.MethodGet, "/export.csv?start=2024-01-01&end=2024-01-02", nil))
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "expenses_2024-01-01_to_2024-01-02.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestCharts(t *testing.T) {
	s, st := newTestServer(t)

	for _, path := range []string{"/charts/categories.png", "/charts/days.png"} {
		if rr := do(s, httptest.NewRequest(http.MethodGet, path, nil)); rr.Code != http.StatusNoContent {
			t.Errorf("%s with no data: status = %d, want %d", path, rr.Code, http.StatusNoContent)
		}
	}

	seedScenario(t, st)
	for _, path := range []string{"/charts/categories.png", "/charts/days.png"} {
		rr := do(s, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want %d", path, rr.Code, http.StatusOK)
			continue
		}
		if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("%s: Content-Type = %q", path, ct)
		}
		if !strings.HasPrefix(rr.Body.String(), "\x89PNG\r\n\x1a\n") {
			t.Errorf("%s: body is not a PNG", path)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	for path, want := range map[string]string{"/healthz": "ok", "/readyz": "ready"} {
		rr := do(s, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK || rr.Body.String() != want {
			t.Errorf("%s: got %d %q", path, rr.Code, rr.Body.String())
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t)

	rr := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimitAppliesToWrites(t *testing.T) {
	s, _ := newTestServer(t)

	form := url.Values{"description": {"x"}, "amount": {"1"}, "category": {"Rent"}}
	var last *httptest.ResponseRecorder
	for i := 0; i < 61; i++ {
		last = postForm(s, "/add", form)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("61st write: status = %d, want %d", last.Code, http.StatusTooManyRequests)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Errorf("Retry-After header missing")
	}

	// Reads are never limited.
	if rr := do(s, httptest.NewRequest(http.MethodGet, "/", nil)); rr.Code != http.StatusOK {
		t.Errorf("read after limit: status = %d, want %d", rr.Code, http.StatusOK)
	}
}
