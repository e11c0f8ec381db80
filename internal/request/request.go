package request

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/benvon/askdev/internal/models"
	"github.com/google/uuid"
)

type contextKey string

const (
	userContextKey      contextKey = "user"
	requestIDContextKey contextKey = "request_id"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// UserContextKey returns the context key used for the user. Exposed for tests that inject non-user values.
func UserContextKey() contextKey { return userContextKey }

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// WithUser returns a context with the authenticated profile attached.
func WithUser(ctx context.Context, user *models.Profile) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the profile from the request context, or nil if missing or wrong type.
func UserFromContext(r *http.Request) *models.Profile {
	u, _ := r.Context().Value(userContextKey).(*models.Profile)
	return u
}

// UserID returns the caller's profile id, or nil for anonymous requests.
func UserID(r *http.Request) *uuid.UUID {
	u := UserFromContext(r)
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestID returns the id set by the request id middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
