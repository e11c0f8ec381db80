package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/benvon/askdev/internal/database"
	logpkg "github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/models"
	"github.com/benvon/askdev/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const (
	// DefaultRatelimitRate applies to the whole API.
	DefaultRatelimitRate = "20-S"
	// DefaultAIRatelimitRate applies to AI tag suggestions, per caller.
	DefaultAIRatelimitRate = "10-M"

	ratelimitKeyPrefix = "askdev:ratelimit"
)

// RatelimitConfigSource reads and seeds stored rates. Get returns nil when the scope has no row.
type RatelimitConfigSource interface {
	Get(ctx context.Context, scope string) (*models.RatelimitConfig, error)
	Set(ctx context.Context, c *models.RatelimitConfig) error
}

// NewRedisLimiterStore creates the shared limiter store.
func NewRedisLimiterStore(client *redis.Client) (limiter.Store, error) {
	return redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:          ratelimitKeyPrefix,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	})
}

// RateLimitReloader wraps ulule/limiter for one scope and periodically reloads
// the rate from the database. Authenticated callers are keyed by profile id,
// anonymous ones by client IP. One reloader may guard any number of routes;
// they share the scope's counters.
type RateLimitReloader struct {
	store       limiter.Store
	repo        RatelimitConfigSource
	scope       string
	defaultRate string
	log         *zap.Logger
	interval    time.Duration
	mu          sync.RWMutex
	current     *stdlibmw.Middleware
	rate        limiter.Rate
}

// NewRateLimitReloader creates a rate limit middleware for scope. A nil repo
// always uses defaultRate.
func NewRateLimitReloader(store limiter.Store, repo RatelimitConfigSource, scope, defaultRate string, log *zap.Logger, reloadInterval time.Duration) *RateLimitReloader {
	if scope == "" {
		scope = database.RatelimitScopeDefault
	}
	if defaultRate == "" {
		defaultRate = DefaultRatelimitRate
	}
	return &RateLimitReloader{
		store:       store,
		repo:        repo,
		scope:       scope,
		defaultRate: defaultRate,
		log:         log,
		interval:    reloadInterval,
	}
}

// Middleware returns a middleware that rate limits next with the current rate.
// The rate is loaded on first use.
func (r *RateLimitReloader) Middleware() func(http.Handler) http.Handler {
	r.mu.RLock()
	loaded := r.current != nil
	r.mu.RUnlock()
	if !loaded {
		r.load(context.Background())
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.mu.RLock()
			mw := r.current
			r.mu.RUnlock()
			if mw == nil {
				next.ServeHTTP(w, req)
				return
			}
			mw.Handler(next).ServeHTTP(w, req)
		})
	}
}

// Start runs the reload loop until ctx is cancelled. Call after Middleware() is applied.
func (r *RateLimitReloader) Start(ctx context.Context) {
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

// Rate returns the rate currently enforced.
func (r *RateLimitReloader) Rate() limiter.Rate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rate
}

func (r *RateLimitReloader) load(ctx context.Context) {
	rateStr := r.configuredRate(ctx)

	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		r.log.Error("failed_to_parse_rate_limit_using_default",
			zap.String("scope", r.scope),
			zap.String("rate", logpkg.SanitizeString(rateStr, 0)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		rate, err = limiter.NewRateFromFormatted(r.defaultRate)
		if err != nil {
			r.log.Error("failed_to_parse_default_rate_limit",
				zap.String("scope", r.scope),
				zap.String("default_rate", r.defaultRate),
				zap.String("error", logpkg.SanitizeError(err)),
			)
			return
		}
	}

	r.mu.RLock()
	unchanged := r.current != nil && r.rate == rate
	r.mu.RUnlock()
	if unchanged {
		return
	}

	instance := limiter.New(r.store, rate)
	scope := r.scope
	keyGetter := func(req *http.Request) string {
		if u := request.UserFromContext(req); u != nil {
			return scope + ":user:" + u.ID.String()
		}
		return scope + ":ip:" + request.ClientIP(req)
	}
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(keyGetter),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, req *http.Request) {
			respondErrorJSON(w, req, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded, try again later", r.log)
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, req *http.Request, err error) {
			r.log.Error("rate_limiter_store_error",
				zap.String("scope", scope),
				zap.String("error", logpkg.SanitizeError(err)),
			)
			respondErrorJSON(w, req, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred", r.log)
		}),
	)
	r.mu.Lock()
	r.current = mw
	r.rate = rate
	r.mu.Unlock()
	r.log.Info("rate_limit_loaded",
		zap.String("scope", scope),
		zap.Int64("limit", rate.Limit),
		zap.Duration("period", rate.Period),
	)
}

// configuredRate returns the stored rate for the scope, seeding the default
// when the scope has no row yet.
func (r *RateLimitReloader) configuredRate(ctx context.Context) string {
	if r.repo == nil {
		return r.defaultRate
	}
	cfg, err := r.repo.Get(ctx, r.scope)
	if err != nil {
		r.log.Warn("failed_to_load_ratelimit_config_from_db_using_default",
			zap.String("scope", r.scope),
			zap.String("default_rate", r.defaultRate),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		return r.defaultRate
	}
	if cfg != nil && cfg.Rate != "" {
		return cfg.Rate
	}
	if err := r.repo.Set(ctx, &models.RatelimitConfig{ConfigKey: r.scope, Rate: r.defaultRate}); err != nil {
		r.log.Error("failed_to_save_default_ratelimit_config",
			zap.String("scope", r.scope),
			zap.String("default_rate", r.defaultRate),
			zap.String("error", logpkg.SanitizeError(err)),
		)
	}
	return r.defaultRate
}
