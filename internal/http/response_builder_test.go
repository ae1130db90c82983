package http

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

func TestJSONResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Data(map[string]int{"count": 2}).
		Write(rec)

	if rec.Code != http.StatusCreated || rec.Header().Get("X-Test") != "1" {
		t.Fatalf("unexpected response %d %v", rec.Code, rec.Header())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rec.Body.String() != "{\"count\":2}\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestJSONResponseBuilderEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().Data(math.Inf(1)).Write(rec)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unencodable data should become a 500, got %d", rec.Code)
	}
}

func TestFromError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	cases := []struct {
		err  error
		want int
		body string
	}{
		{core.Invalid("timeframe", "unknown timeframe x"), http.StatusBadRequest, "{\"error\":\"validation error: timeframe: unknown timeframe x\"}\n"},
		{fmt.Errorf("wrapped: %w", services.ErrNotificationNotFound), http.StatusNotFound, "{\"error\":\"wrapped: notification not found\"}\n"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "{\"error\":\"internal error\"}\n"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		FromError(req, tc.err, http.StatusBadRequest).Write(rec)
		if rec.Code != tc.want || rec.Body.String() != tc.body {
			t.Errorf("%v: got %d %q", tc.err, rec.Code, rec.Body.String())
		}
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	rec := httptest.NewRecorder()
	MethodNotAllowedError("GET, POST").Write(rec)
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != "GET, POST" {
		t.Fatalf("unexpected response %d %v", rec.Code, rec.Header())
	}
}
