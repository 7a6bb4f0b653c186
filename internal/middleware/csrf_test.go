package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func csrfCookieFrom(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == csrfCookieName {
			return c
		}
	}
	return nil
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestCSRF_SafeMethodSeedsToken(t *testing.T) {
	csrf := NewCSRFMiddleware(false)
	handler, called := okHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	rr := httptest.NewRecorder()
	csrf.Protect(handler).ServeHTTP(rr, req)

	if !*called || rr.Code != http.StatusOK {
		t.Fatalf("GET must pass through, got %d", rr.Code)
	}
	cookie := csrfCookieFrom(rr)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("GET should seed the csrf cookie")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected SameSite=Strict, got %v", cookie.SameSite)
	}
}

func TestCSRF_MutationsRequireDoubleSubmit(t *testing.T) {
	csrf := NewCSRFMiddleware(false)

	tests := []struct {
		name   string
		cookie string
		header string
		want   int
	}{
		{name: "no token at all", want: http.StatusForbidden},
		{name: "cookie without header", cookie: "tok", want: http.StatusForbidden},
		{name: "mismatched pair", cookie: "tok", header: "other", want: http.StatusForbidden},
		{name: "matching pair", cookie: "tok", header: "tok", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, called := okHandler()
			req := httptest.NewRequest(http.MethodPost, "/api/trips", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(csrfHeaderName, tt.header)
			}

			rr := httptest.NewRecorder()
			csrf.Protect(handler).ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rr.Code)
			}
			if *called != (tt.want == http.StatusOK) {
				t.Fatalf("handler called = %v with status %d", *called, rr.Code)
			}
		})
	}
}

func TestCSRF_GetToken(t *testing.T) {
	csrf := NewCSRFMiddleware(true)

	// No cookie: a fresh token is minted, Secure in secure mode.
	rr := httptest.NewRecorder()
	csrf.GetToken(rr, httptest.NewRequest(http.MethodGet, "/api/csrf", nil))
	cookie := csrfCookieFrom(rr)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected a minted csrf cookie")
	}
	if !cookie.Secure {
		t.Fatal("cookie must be Secure in secure mode")
	}

	// Existing cookie: the same token is echoed back, not rotated.
	req := httptest.NewRequest(http.MethodGet, "/api/csrf", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing"})
	rr = httptest.NewRecorder()
	csrf.GetToken(rr, req)
	if rr.Body.String() != `{"token":"existing"}` {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestGenerateCSRFToken_Unique(t *testing.T) {
	a, err := generateCSRFToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := generateCSRFToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == "" || a == b {
		t.Fatal("tokens must be non-empty and unique")
	}
}
