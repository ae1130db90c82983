package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)
	defer rl.stop()
	clock := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	metrics := &securityMetrics{}

	for i := 0; i < 3; i++ {
		if !rl.allow("1.2.3.4", metrics) {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if rl.allow("1.2.3.4", metrics) {
		t.Fatal("fourth request in the window should be rejected")
	}
	if !rl.allow("5.6.7.8", metrics) {
		t.Fatal("other clients have their own budget")
	}

	clock = clock.Add(time.Minute)
	if !rl.allow("1.2.3.4", metrics) {
		t.Fatal("a new window should reset the budget")
	}
	if metrics.snapshot().RateLimitHits != 1 {
		t.Fatalf("expected one hit, got %+v", metrics.snapshot())
	}

	clock = clock.Add(11 * time.Minute)
	if n := rl.cleanupStaleEntries(); n != 2 {
		t.Fatalf("expected both idle clients removed, got %d", n)
	}
}

func TestExtractClientIP(t *testing.T) {
	cases := []struct {
		remote string
		xff    string
		want   string
	}{
		{"203.0.113.9:4000", "", "203.0.113.9"},
		{"203.0.113.9:4000", "198.51.100.1", "203.0.113.9"}, // untrusted proxy
		{"10.0.0.2:4000", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"10.0.0.2:4000", "not-an-ip", "10.0.0.2"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remote
		if tc.xff != "" {
			req.Header.Set("X-Forwarded-For", tc.xff)
		}
		if got := extractClientIP(req); got != tc.want {
			t.Errorf("remote=%s xff=%q: got %s, want %s", tc.remote, tc.xff, got, tc.want)
		}
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	metrics := &securityMetrics{}
	bad := httptest.NewRequest(http.MethodGet, "/api/transactions?q=../../etc/passwd", nil)
	if !detectSuspiciousRequest(bad, metrics) {
		t.Fatal("path traversal should be flagged")
	}
	scanner := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	scanner.Header.Set("User-Agent", "sqlmap/1.7")
	if !detectSuspiciousRequest(scanner, metrics) {
		t.Fatal("scanner user agent should be flagged")
	}
	ok := httptest.NewRequest(http.MethodGet, "/api/dashboard?timeframe=7days", nil)
	ok.Header.Set("User-Agent", "curl/8.0")
	if detectSuspiciousRequest(ok, metrics) {
		t.Fatal("plain API call should pass")
	}
	if metrics.snapshot().SuspiciousRequests != 2 {
		t.Fatalf("expected two suspicious requests, got %+v", metrics.snapshot())
	}
}
