package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func applySecurity(t *testing.T, secure bool) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewSecurityHeaders(secure).Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/trips", nil))
	return rr
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	rr := applySecurity(t, false)

	want := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
		"Permissions-Policy":     "geolocation=(), microphone=(), camera=()",
	}
	for header, value := range want {
		if got := rr.Header().Get(header); got != value {
			t.Errorf("%s: expected %q, got %q", header, value, got)
		}
	}

	csp := rr.Header().Get("Content-Security-Policy")
	for _, directive := range []string{
		"default-src 'self'",
		"connect-src 'self'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	} {
		if !strings.Contains(csp, directive) {
			t.Errorf("CSP missing %q: %s", directive, csp)
		}
	}
}

func TestSecurityHeaders_HSTSOnlyWhenSecure(t *testing.T) {
	if hsts := applySecurity(t, false).Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Fatalf("HSTS must not be set over plain HTTP, got %q", hsts)
	}
	want := "max-age=31536000; includeSubDomains"
	if hsts := applySecurity(t, true).Header().Get("Strict-Transport-Security"); hsts != want {
		t.Fatalf("expected %q, got %q", want, hsts)
	}
}
