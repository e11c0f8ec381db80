package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/benvon/askdev/internal/database"
	logpkg "github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/models"
	"github.com/benvon/askdev/internal/request"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const defaultCORSOrigin = "http://localhost:3000"

// CorsConfigSource reads the stored CORS policy. Get returns nil when none is stored.
type CorsConfigSource interface {
	Get(ctx context.Context) (*models.CorsConfig, error)
}

// CORSReloader wraps rs/cors and periodically reloads CORS config from the database.
type CORSReloader struct {
	next     http.Handler
	repo     CorsConfigSource
	fallback string // e.g. FRONTEND_URL
	log      *zap.Logger
	interval time.Duration
	mu       sync.RWMutex
	current  http.Handler
	origins  []string
}

// NewCORSReloader creates a CORS middleware that loads config from the DB and hot-reloads it.
// A nil repo always uses the fallback origins.
func NewCORSReloader(repo CorsConfigSource, frontendURLFallback string, log *zap.Logger, reloadInterval time.Duration) *CORSReloader {
	return &CORSReloader{
		repo:     repo,
		fallback: strings.TrimSpace(frontendURLFallback),
		log:      log,
		interval: reloadInterval,
	}
}

// Middleware returns a middleware that wraps next with CORS and hot-reload.
func (r *CORSReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		r.next = next
		r.load(context.Background())
		return r
	}
}

// Start runs the reload loop until ctx is cancelled. Call after Middleware() is applied.
func (r *CORSReloader) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.load(ctx)
		}
	}
}

// Origins returns the currently allowed origins.
func (r *CORSReloader) Origins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.origins...)
}

func (r *CORSReloader) load(ctx context.Context) {
	if r.next == nil {
		return
	}
	var cfg *models.CorsConfig
	if r.repo != nil {
		var err error
		cfg, err = r.repo.Get(ctx)
		if err != nil {
			r.log.Warn("failed_to_load_cors_config_using_fallback", zap.String("error", logpkg.SanitizeError(err)))
			cfg = nil
		}
	}

	origins := database.AllowedOriginsSlice(r.fallback)
	allowCreds := true
	maxAge := 86400
	if cfg != nil {
		origins = database.AllowedOriginsSlice(cfg.AllowedOrigins)
		allowCreds = cfg.AllowCredentials
		maxAge = cfg.MaxAge
	}
	if len(origins) == 0 {
		origins = []string{defaultCORSOrigin}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: allowCreds,
		MaxAge:           maxAge,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", request.RequestIDHeader},
		ExposedHeaders:   []string{request.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
	})
	h := c.Handler(r.next)

	r.mu.Lock()
	r.current = h
	r.origins = origins
	r.mu.Unlock()
}

// ServeHTTP implements http.Handler.
func (r *CORSReloader) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	h := r.current
	r.mu.RUnlock()
	if h != nil {
		h.ServeHTTP(w, req)
		return
	}
	if r.next != nil {
		r.next.ServeHTTP(w, req)
	}
}
