package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	logpkg "github.com/benvon/askdev/internal/logger"
)

const healthCheckTimeout = 5 * time.Second

// Version is reported by /version. It is set at build time with -ldflags.
var Version = "dev"

// CheckFunc reports whether one dependency is reachable.
type CheckFunc func(ctx context.Context) error

// Pinger is satisfied by *database.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type namedCheck struct {
	name string
	fn   CheckFunc
}

// HealthChecker handles health check requests
type HealthChecker struct {
	checks []namedCheck
}

// NewHealthChecker creates a new health checker that checks db in extended mode
func NewHealthChecker(db Pinger) *HealthChecker {
	h := &HealthChecker{}
	if db != nil {
		h.AddCheck("database", db.PingContext)
	}
	return h
}

// AddCheck registers a dependency check for extended mode.
func (h *HealthChecker) AddCheck(name string, fn CheckFunc) {
	h.checks = append(h.checks, namedCheck{name: name, fn: fn})
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. ?mode=extended also checks dependencies.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		response.Checks = make(map[string]string, len(h.checks))
		for _, c := range h.checks {
			if err := runCheck(r.Context(), c.fn); err != nil {
				response.Status = "unhealthy"
				response.Checks[c.name] = "unhealthy: " + logpkg.SanitizeError(err)
				continue
			}
			response.Checks[c.name] = "healthy"
		}
		if response.Status == "unhealthy" {
			status = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

func runCheck(ctx context.Context, fn CheckFunc) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return fn(ctx)
}

// VersionInfo handles the /version endpoint
func VersionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
