package server

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// CORS reflects the request origin when it is allowlisted and substitutes
// the default production origin otherwise. Preview deploys on any
// *.vercel.app host and local dev servers are always allowed.
type CORS struct {
	allowed       map[string]struct{}
	defaultOrigin string
}

// NewCORS builds the policy from exact allowed origins plus a fallback.
func NewCORS(origins []string, defaultOrigin string) *CORS {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[strings.TrimRight(origin, "/")] = struct{}{}
	}
	return &CORS{allowed: allowed, defaultOrigin: defaultOrigin}
}

// Allow resolves the origin header value to the one echoed back.
func (c *CORS) Allow(origin string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		return c.defaultOrigin
	}

	if _, ok := c.allowed[origin]; ok {
		return origin
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return c.defaultOrigin
	}

	host := parsed.Hostname()
	if parsed.Scheme == "https" && strings.HasSuffix(host, ".vercel.app") {
		return origin
	}
	if host == "localhost" || host == "127.0.0.1" {
		return origin
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return origin
	}

	return c.defaultOrigin
}

// Middleware applies the policy and answers OPTIONS preflights with 204.
func (c *CORS) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("Access-Control-Allow-Origin", c.Allow(r.Header.Get("Origin")))
		headers.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		headers.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		headers.Add("Vary", "Origin")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
