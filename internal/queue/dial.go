package queue

import (
	"context"
	"fmt"
	"time"

	logpkg "github.com/benvon/askdev/internal/logger"
	"go.uber.org/zap"
)

const (
	DefaultDialAttempts = 10
	dialInitialDelay    = 2 * time.Second
	dialMaxDelay        = 30 * time.Second
)

// DialDelay is the wait before dial attempt+1: 2s doubling up to 30s.
func DialDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
		return dialMaxDelay
	}
	delay := dialInitialDelay * time.Duration(1<<uint(attempt))
	if delay > dialMaxDelay {
		delay = dialMaxDelay
	}
	return delay
}

// DialWithRetry connects to RabbitMQ, retrying with exponential backoff so
// the API and worker survive the broker starting after them.
func DialWithRetry(ctx context.Context, amqpURL string, attempts int, log *zap.Logger) (*RabbitMQQueue, error) {
	if attempts < 1 {
		attempts = DefaultDialAttempts
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		q, err := NewRabbitMQQueue(amqpURL, log)
		if err == nil {
			return q, nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}
		delay := DialDelay(attempt)
		log.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_delay", delay),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("rabbitmq unreachable after %d attempts: %w", attempts, lastErr)
}
