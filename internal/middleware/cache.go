package middleware

import (
	"net/http"
	"strings"
)

// CacheControl adds cache headers to responses.
type CacheControl struct{}

// NewCacheControl creates a new cache control middleware.
func NewCacheControl() *CacheControl {
	return &CacheControl{}
}

// Apply adds cache headers based on the request path.
func (c *CacheControl) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		switch {
		case strings.HasSuffix(path, "/export/ics"):
			// Calendar exports may be re-fetched by subscribed clients;
			// a short private cache keeps that cheap.
			w.Header().Set("Cache-Control", "private, max-age=300")

		case strings.HasPrefix(path, "/api/"):
			// API responses should not be cached
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
			w.Header().Set("Pragma", "no-cache")

		default:
			w.Header().Set("Cache-Control", "no-store")
		}

		next.ServeHTTP(w, r)
	})
}
