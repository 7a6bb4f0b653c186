package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetrics_Apply_PassesThrough(t *testing.T) {
	m := NewMetrics()

	var called bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	rr := httptest.NewRecorder()

	m.Apply(handler).ServeHTTP(rr, req)

	if !called {
		t.Error("expected handler to run")
	}
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rr.Code)
	}
}

func TestMetrics_Handler_Scrapes(t *testing.T) {
	m := NewMetrics()

	// Record at least one request so the counter appears in the scrape.
	m.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/trips", nil))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()

	m.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "wayfarer_http_requests_total") {
		t.Error("expected request counter in scrape output")
	}
}
