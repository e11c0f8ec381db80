package middleware

import (
	"net/http"

	logpkg "github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/request"
	"github.com/google/uuid"
)

// RequestID reuses a client-supplied X-Request-ID or generates one, stores it
// in the request context and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := logpkg.SanitizeID(r.Header.Get(request.RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(request.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(request.WithRequestID(r.Context(), id)))
	})
}

// SecurityHeaders sets security headers on all responses. HSTS is only sent
// over TLS and when enabled.
func SecurityHeaders(enableHSTS bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			if r.Header.Get("Authorization") != "" {
				h.Set("Cache-Control", "no-store")
			}
			if enableHSTS && r.TLS != nil {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
