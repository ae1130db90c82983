package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/feed"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/store/memory"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

const demoUser = "00000000-0000-0000-0000-000000000001"

type testEnv struct {
	srv   *Server
	inbox *feed.Inbox
}

func newTestServer(t *testing.T, rateLimit int) *testEnv {
	t.Helper()
	inbox := feed.NewInbox(10)
	clock := func() time.Time { return now }
	svc := services.NewTransactionService(memory.NewWithDemo(demoUser, now), inbox,
		services.WithClock(clock), services.WithViewCache(16, time.Minute))
	srv := NewServer(":0", svc, Options{
		DefaultUserID: demoUser,
		Logger:        applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard}),
		RateLimit:     rateLimit,
		Now:           clock,
	})
	t.Cleanup(srv.rateLimiter.stop)
	return &testEnv{srv: srv, inbox: inbox}
}

func (e *testEnv) do(t *testing.T, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
}

func TestHealthAndReady(t *testing.T) {
	env := newTestServer(t, 0)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, rec.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestServer(t, 0)
	rec := env.do(t, http.MethodGet, "/api/dashboard", "", nil)

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "X-Request-ID"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
	if !strings.HasPrefix(rec.Header().Get("X-Request-ID"), "req_") {
		t.Errorf("unexpected request id %q", rec.Header().Get("X-Request-ID"))
	}

	rec = env.do(t, http.MethodGet, "/healthz", "", map[string]string{"X-Request-ID": "upstream-42"})
	if got := rec.Header().Get("X-Request-ID"); got != "upstream-42" {
		t.Errorf("incoming request id should be kept, got %q", got)
	}
}

func TestListTransactions(t *testing.T) {
	env := newTestServer(t, 0)
	rec := env.do(t, http.MethodGet, "/api/transactions?type=expense&sort=amount&dir=asc", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res struct {
		Transactions []struct {
			Category string `json:"category"`
			Amount   string `json:"amount"`
		} `json:"transactions"`
		Totals struct {
			Expenses string `json:"expenses"`
			Net      string `json:"net"`
		} `json:"totals"`
		Count int `json:"count"`
	}
	decode(t, rec, &res)

	if res.Count != 3 || res.Transactions[0].Category != "Housing" {
		t.Fatalf("expected three expenses, most negative first, got %+v", res)
	}
	if res.Totals.Expenses != "1800" || res.Totals.Net != "-1800" {
		t.Fatalf("unexpected totals %+v", res.Totals)
	}
}

func TestListTransactionsRejectsBadQuery(t *testing.T) {
	env := newTestServer(t, 0)
	cases := []string{
		"/api/transactions?start=yesterday",
		"/api/transactions?start=2025-03-10&end=2025-03-01",
		"/api/transactions?type=transfer",
		"/api/transactions?min=abc",
		"/api/transactions?min=100&max=10",
		"/api/transactions?sort=description",
	}
	for _, target := range cases {
		rec := env.do(t, http.MethodGet, target, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
			continue
		}
		var body map[string]string
		decode(t, rec, &body)
		if body["error"] == "" {
			t.Errorf("%s: missing error message", target)
		}
	}
}

func TestCreateTransaction(t *testing.T) {
	env := newTestServer(t, 0)
	rec := env.do(t, http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":"42,50","category":"Food","description":"Dinner","date":"2025-03-14"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var tx struct {
		ID     string `json:"id"`
		Amount string `json:"amount"`
		UserID string `json:"user_id"`
	}
	decode(t, rec, &tx)
	if tx.ID == "" || tx.Amount != "-42.5" || tx.UserID != demoUser {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	rec = env.do(t, http.MethodGet, "/api/transactions?q=dinner", "", nil)
	var res struct {
		Count int `json:"count"`
	}
	decode(t, rec, &res)
	if res.Count != 1 {
		t.Fatalf("new transaction should be listed, got %d", res.Count)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	env := newTestServer(t, 0)
	cases := []struct {
		body string
		want int
	}{
		{``, http.StatusBadRequest},
		{`{"type":`, http.StatusBadRequest},
		{`{"type":"gift","amount":1,"category":"c","description":"d"}`, http.StatusBadRequest},
		{`{"type":"income","amount":"1.2.3","category":"c","description":"d"}`, http.StatusBadRequest},
		{`{"type":"income","amount":1,"category":"c","description":"d","extra":true}`, http.StatusBadRequest},
		{`{"type":"income","amount":0,"category":"c","description":"d"}`, http.StatusUnprocessableEntity},
		{`{"type":"income","amount":-5,"category":"c","description":"d"}`, http.StatusUnprocessableEntity},
		{`{"type":"income","amount":5,"category":" ","description":"d"}`, http.StatusUnprocessableEntity},
		{`{"type":"income","amount":5,"category":"c","description":"` + strings.Repeat("x", 201) + `"}`, http.StatusUnprocessableEntity},
	}
	for i, tc := range cases {
		rec := env.do(t, http.MethodPost, "/api/transactions", tc.body, nil)
		if rec.Code != tc.want {
			t.Errorf("case %d: expected %d, got %d: %s", i, tc.want, rec.Code, rec.Body.String())
		}
	}
}

func TestUserHeaderScopesData(t *testing.T) {
	env := newTestServer(t, 0)
	rec := env.do(t, http.MethodGet, "/api/transactions", "", map[string]string{userHeader: "someone-else"})
	var res struct {
		Transactions []json.RawMessage `json:"transactions"`
		Count        int               `json:"count"`
	}
	decode(t, rec, &res)
	if res.Count != 0 || res.Transactions == nil {
		t.Fatalf("other users should see an empty list, got %+v", res)
	}
}

func TestDashboard(t *testing.T) {
	env := newTestServer(t, 0)
	rec := env.do(t, http.MethodGet, "/api/dashboard?timeframe=7days", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var d struct {
		Stats struct {
			TotalBalance string `json:"total_balance"`
			SavingsRate  *int   `json:"savings_rate"`
		} `json:"stats"`
		Series            []json.RawMessage `json:"series"`
		ExpenseCategories []struct {
			Category string `json:"category"`
		} `json:"expense_categories"`
		Recent           []json.RawMessage `json:"recent"`
		SavingsRateLabel string            `json:"savings_rate_label"`
	}
	decode(t, rec, &d)

	if d.Stats.TotalBalance != "4200" || len(d.Series) != 7 || len(d.Recent) != 5 {
		t.Fatalf("unexpected dashboard %+v", d)
	}
	// March: income 6000, expenses 1800
	if d.Stats.SavingsRate == nil || *d.Stats.SavingsRate != 70 || d.SavingsRateLabel != "70%" {
		t.Fatalf("unexpected savings rate %v %q", d.Stats.SavingsRate, d.SavingsRateLabel)
	}
	if len(d.ExpenseCategories) != 3 || d.ExpenseCategories[0].Category != "Housing" {
		t.Fatalf("unexpected expense categories %+v", d.ExpenseCategories)
	}

	rec = env.do(t, http.MethodGet, "/api/dashboard?timeframe=forever", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown timeframe should be 400, got %d", rec.Code)
	}
}

func TestDashboardWithoutIncome(t *testing.T) {
	env := newTestServer(t, 0)
	rec := env.do(t, http.MethodGet, "/api/dashboard", "", map[string]string{userHeader: "new-user"})
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"savings_rate":null`)) {
		t.Fatalf("savings rate should be null without income: %s", rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"savings_rate_label":"N/A"`)) {
		t.Fatalf("label should be N/A: %s", rec.Body.String())
	}
}

func TestAnalytics(t *testing.T) {
	env := newTestServer(t, 0)
	rec := env.do(t, http.MethodGet, "/api/analytics?timeframe=3months&metric=expenses", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var a struct {
		Chart struct {
			Labels   []string          `json:"labels"`
			Income   []json.RawMessage `json:"income"`
			Expenses []string          `json:"expenses"`
		} `json:"chart"`
		Net []string `json:"net"`
	}
	decode(t, rec, &a)
	if len(a.Chart.Labels) != 3 || a.Chart.Labels[2] != "Mar" || a.Chart.Income != nil {
		t.Fatalf("unexpected chart %+v", a.Chart)
	}
	if a.Chart.Expenses[2] != "1800" || a.Net[2] != "4200" {
		t.Fatalf("unexpected March values %+v net=%v", a.Chart.Expenses, a.Net)
	}

	rec = env.do(t, http.MethodGet, "/api/analytics?metric=profit", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown metric should be 400, got %d", rec.Code)
	}
}

func TestReports(t *testing.T) {
	env := newTestServer(t, 0)
	rec := env.do(t, http.MethodGet, "/api/reports?start=2025-03-12&end=2025-03-14", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var rep struct {
		Count  int `json:"count"`
		Totals struct {
			Net string `json:"net"`
		} `json:"totals"`
		Categories []struct {
			Category string `json:"category"`
		} `json:"categories"`
	}
	decode(t, rec, &rep)
	// Housing, Food and Transportation fall between the 12th and the 14th
	if rep.Count != 3 || rep.Totals.Net != "-1800" || rep.Categories[0].Category != "Housing" {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestNotifications(t *testing.T) {
	env := newTestServer(t, 0)
	env.inbox.Add(feed.Notification{ID: "n1", UserID: demoUser, Title: "Transaction Update", Unread: true})
	env.inbox.Add(feed.Notification{ID: "n2", UserID: demoUser, Title: "Account Update", Unread: true})

	rec := env.do(t, http.MethodGet, "/api/notifications", "", nil)
	var list struct {
		Notifications []struct {
			ID string `json:"id"`
		} `json:"notifications"`
		Unread int `json:"unread"`
	}
	decode(t, rec, &list)
	if len(list.Notifications) != 2 || list.Unread != 2 || list.Notifications[0].ID != "n2" {
		t.Fatalf("unexpected inbox %+v", list)
	}

	rec = env.do(t, http.MethodPost, "/api/notifications/read", `{"id":"n1"}`, nil)
	var marked struct {
		Updated int `json:"updated"`
		Unread  int `json:"unread"`
	}
	decode(t, rec, &marked)
	if marked.Updated != 1 || marked.Unread != 1 {
		t.Fatalf("unexpected mark read result %+v", marked)
	}

	rec = env.do(t, http.MethodPost, "/api/notifications/read", `{"id":"missing"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown notification should be 404, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/notifications/read", "", nil)
	decode(t, rec, &marked)
	if marked.Updated != 1 || marked.Unread != 0 {
		t.Fatalf("mark all read should clear the rest, got %+v", marked)
	}

	rec = env.do(t, http.MethodGet, "/api/notifications", "", map[string]string{userHeader: "nobody"})
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"notifications":[]`)) {
		t.Fatalf("empty inbox should encode as an empty list: %s", rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestServer(t, 0)
	cases := map[string]string{
		"/api/transactions":       "GET, POST",
		"/api/dashboard":          "GET",
		"/api/notifications/read": "POST",
	}
	for path, allow := range cases {
		rec := env.do(t, http.MethodDelete, path, "", nil)
		if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != allow {
			t.Errorf("%s: got %d Allow=%q", path, rec.Code, rec.Header().Get("Allow"))
		}
	}
}

func TestPostRateLimit(t *testing.T) {
	env := newTestServer(t, 2)
	body := `{"type":"income","amount":1,"category":"Gift","description":"Card"}`
	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodPost, "/api/transactions", body, nil); rec.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i, rec.Code)
		}
	}
	rec := env.do(t, http.MethodPost, "/api/transactions", body, nil)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected 429 with Retry-After, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/transactions", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("GET should not be rate limited, got %d", rec.Code)
	}
	if env.srv.SecurityStats().RateLimitHits != 1 {
		t.Fatalf("expected one rate limit hit, got %+v", env.srv.SecurityStats())
	}
}
