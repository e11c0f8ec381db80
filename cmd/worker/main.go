package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/benvon/askdev/internal/cache"
	"github.com/benvon/askdev/internal/config"
	"github.com/benvon/askdev/internal/database"
	"github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/queue"
	"github.com/benvon/askdev/internal/tags"
	"github.com/benvon/askdev/internal/telemetry"
	"github.com/benvon/askdev/internal/trends"
	"github.com/benvon/askdev/internal/workers"
	"go.uber.org/zap"
)

const (
	dlqGCInterval  = time.Hour
	dlqGCRetention = 24 * time.Hour
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	schedule := flag.Bool("schedule", true, "Enqueue periodic trend refreshes")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.RequireQueue(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag
	zapLogger, err := logger.New(cfg.LogFormat, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Bool("schedule", *schedule),
		zap.Duration("refresh_interval", cfg.RefreshInterval),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(ctx, telemetry.Options{
			ServiceName: telemetry.ServiceName + "-worker",
			Endpoint:    cfg.OTELEndpoint,
		})
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
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

	// Refreshing without a cache would compute snapshots nobody reads.
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

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

	engine := tags.NewEngine(
		tags.WithTrendWindow(cfg.TrendWindowDays),
		tags.WithHotWindow(cfg.HotWindowDays),
	)
	trendService := trends.NewService(
		database.NewQuestionRepository(db),
		engine,
		zapLogger,
		trends.WithCache(cache.NewTrendCache(redisClient, cfg.CacheKeyPrefix, cfg.CacheTTL)),
	)
	refresher := workers.NewTrendRefresher(trendService, jobQueue, zapLogger)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					cancel()
					return
				}
				if err := refresher.ProcessJob(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
					zapLogger.Error("failed_to_process_job",
						zap.Error(err),
						zap.String("job_id", msg.GetJob().ID.String()),
						zap.String("job_type", string(msg.GetJob().Type)),
					)
				}
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	if *schedule {
		scheduler := workers.NewScheduler(jobQueue, cfg.RefreshInterval, zapLogger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.Run(ctx)
		}()
	}

	dlqGC := queue.NewGarbageCollector(jobQueue, dlqGCInterval, dlqGCRetention, zapLogger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := dlqGC.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
		}
	}()

	zapLogger.Info("worker_started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		zapLogger.Info("shutdown_signal_received")
	case <-ctx.Done():
		zapLogger.Warn("worker_stopping_after_queue_closed")
	}

	cancel()
	wg.Wait()
	zapLogger.Info("worker_stopped")
}
