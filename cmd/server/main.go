package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/askdev/api/openapi"
	"github.com/benvon/askdev/internal/auth"
	"github.com/benvon/askdev/internal/cache"
	"github.com/benvon/askdev/internal/config"
	"github.com/benvon/askdev/internal/database"
	"github.com/benvon/askdev/internal/handlers"
	"github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/middleware"
	"github.com/benvon/askdev/internal/queue"
	"github.com/benvon/askdev/internal/services/ai"
	"github.com/benvon/askdev/internal/tags"
	"github.com/benvon/askdev/internal/telemetry"
	"github.com/benvon/askdev/internal/trends"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

const apiServiceName = telemetry.ServiceName + "-api"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.RequireAuth(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag
	zapLogger, err := logger.New(cfg.LogFormat, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.String("version", handlers.Version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Int("trend_window_days", cfg.TrendWindowDays),
		zap.Int("hot_window_days", cfg.HotWindowDays),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else if tp, err := telemetry.InitTracer(ctx, telemetry.Options{
			ServiceName:    apiServiceName,
			ServiceVersion: handlers.Version,
			Endpoint:       cfg.OTELEndpoint,
		}); err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracingEnabled = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
		}
		zapLogger.Info("database_migrated")
	}

	questionRepo := database.NewQuestionRepository(db)
	answerRepo := database.NewAnswerRepository(db)
	voteRepo := database.NewVoteRepository(db)
	notificationRepo := database.NewNotificationRepository(db)
	profileRepo := database.NewProfileRepository(db)
	ratelimitConfigRepo := database.NewRatelimitConfigRepository(db)
	corsConfigRepo := database.NewCorsConfigRepository(db)

	healthChecker := handlers.NewHealthChecker(db)

	// Redis backs the trend cache and the rate limit counters. Without it the
	// API still serves, computing trends per request and limiting per process.
	var redisClient *redis.Client
	var limiterStore limiter.Store
	if client, err := cache.NewClient(cfg.RedisURL); err != nil {
		zapLogger.Warn("redis_unavailable_running_degraded", zap.Error(err))
		limiterStore = memory.NewStore()
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		limiterStore, err = middleware.NewRedisLimiterStore(redisClient)
		if err != nil {
			zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
		}
		zapLogger.Info("connected_to_redis")
	}

	engine := tags.NewEngine(
		tags.WithTrendWindow(cfg.TrendWindowDays),
		tags.WithHotWindow(cfg.HotWindowDays),
	)
	var trendOpts []trends.Option
	if redisClient != nil {
		trendCache := cache.NewTrendCache(redisClient, cfg.CacheKeyPrefix, cfg.CacheTTL)
		trendOpts = append(trendOpts, trends.WithCache(trendCache))
		healthChecker.AddCheck("cache", trendCache.Ping)
	}

	// The queue is optional for the API: without it new questions drop the
	// cached snapshot instead of scheduling a background refresh.
	if cfg.RabbitMQURL != "" {
		jobQueue, err := queue.DialWithRetry(ctx, cfg.RabbitMQURL, queue.DefaultDialAttempts, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_rabbitmq")
		trendOpts = append(trendOpts, trends.WithQueue(jobQueue, cfg.RefreshDebounce))
		healthChecker.AddCheck("queue", jobQueue.HealthCheck)
	} else {
		zapLogger.Info("rabbitmq_not_configured_refreshing_inline")
	}

	trendService := trends.NewService(questionRepo, engine, zapLogger, trendOpts...)

	suggester, err := ai.NewOpenAISuggester(ai.Config{
		APIKey:     cfg.OpenAIKey,
		BaseURL:    cfg.AIBaseURL,
		Model:      cfg.AIModel,
		MaxRetries: cfg.AIMaxRetries,
		Debug:      debugMode,
	}, zapLogger)
	var tagSuggester ai.TagSuggester
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		zapLogger.Info("ai_tag_suggestions_disabled")
	case err != nil:
		zapLogger.Warn("failed_to_create_ai_suggester_ai_features_disabled", zap.Error(err))
	default:
		tagSuggester = suggester
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	if err != nil {
		zapLogger.Fatal("failed_to_create_token_verifier", zap.Error(err))
	}
	authenticator := middleware.NewAuthenticator(verifier, profileRepo, zapLogger)

	defaultLimiter := middleware.NewRateLimitReloader(limiterStore, ratelimitConfigRepo,
		database.RatelimitScopeDefault, cfg.RatelimitRate, zapLogger, cfg.ConfigReloadInterval)
	aiLimiter := middleware.NewRateLimitReloader(limiterStore, ratelimitConfigRepo,
		database.RatelimitScopeAI, cfg.AIRatelimitRate, zapLogger, cfg.ConfigReloadInterval)
	corsReloader := middleware.NewCORSReloader(corsConfigRepo, cfg.FrontendURL, zapLogger, cfg.ConfigReloadInterval)

	// Authentication runs before the limiter so signed-in callers are keyed by profile.
	limit := defaultLimiter.Middleware()
	requireAuth := authenticator.Required()
	optionalAuth := authenticator.Optional()
	guards := handlers.Guards{
		Required: func(h http.Handler) http.Handler { return requireAuth(limit(h)) },
		Optional: func(h http.Handler) http.Handler { return optionalAuth(limit(h)) },
	}

	openAPIHandler, err := handlers.NewOpenAPIHandler(openapi.Spec)
	if err != nil {
		zapLogger.Fatal("failed_to_load_openapi_document", zap.Error(err))
	}

	r := mux.NewRouter()
	if tracingEnabled {
		r.Use(otelmux.Middleware(apiServiceName))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.MaxRequestSize(cfg.MaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", handlers.VersionInfo).Methods(http.MethodGet)
	openAPIHandler.RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	handlers.NewQuestionHandler(questionRepo, answerRepo, voteRepo, trendService, zapLogger).RegisterRoutes(apiRouter, guards)
	handlers.NewAnswerHandler(questionRepo, answerRepo, notificationRepo, zapLogger).RegisterRoutes(apiRouter, guards)
	handlers.NewVoteHandler(voteRepo, questionRepo, answerRepo, notificationRepo, zapLogger).RegisterRoutes(apiRouter, guards)
	handlers.NewNotificationHandler(notificationRepo, zapLogger).RegisterRoutes(apiRouter, guards)
	handlers.NewTagHandler(trendService, tagSuggester, zapLogger).RegisterRoutes(apiRouter, guards, aiLimiter.Middleware())

	// Preflight requests for unknown paths still get CORS headers from the outer wrapper.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        corsReloader.Middleware()(r),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go corsReloader.Start(ctx)
	go defaultLimiter.Start(ctx)
	go aiLimiter.Start(ctx)

	// Warm the snapshot so the first tag request does not pay for it.
	go func() {
		if _, err := trendService.Snapshot(ctx); err != nil {
			zapLogger.Warn("failed_to_warm_tag_snapshot", zap.Error(err))
		}
	}()

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}
	zapLogger.Info("server_exited")
}
