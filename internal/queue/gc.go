package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	collectTimeout   = 2 * time.Minute
	defaultGCPeriod  = time.Hour
	defaultRetention = 24 * time.Hour
)

// GarbageCollector periodically purges dead-lettered trend jobs older than
// retention. Dead letters are only kept for inspection; a failed refresh is
// superseded by the next scheduled one.
type GarbageCollector struct {
	dlqPurger DLQPurger
	interval  time.Duration
	retention time.Duration
	log       *zap.Logger
}

// NewGarbageCollector creates a collector; purger may be nil to disable purging.
func NewGarbageCollector(purger DLQPurger, interval, retention time.Duration, log *zap.Logger) *GarbageCollector {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultGCPeriod
	}
	if retention <= 0 {
		retention = defaultRetention
	}
	return &GarbageCollector{
		dlqPurger: purger,
		interval:  interval,
		retention: retention,
		log:       log,
	}
}

// Start collects once, then every interval until ctx is cancelled.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := gc.collect(ctx); err != nil {
		gc.log.Error("dlq_gc_failed", zap.Error(err))
	}
	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := gc.collect(ctx); err != nil {
				gc.log.Error("dlq_gc_failed", zap.Error(err))
			}
		}
	}
}

func (gc *GarbageCollector) collect(ctx context.Context) error {
	if gc.dlqPurger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, collectTimeout)
	defer cancel()
	n, err := gc.dlqPurger.PurgeOlderThan(ctx, gc.retention)
	if err != nil {
		return fmt.Errorf("DLQ purge: %w", err)
	}
	if n > 0 {
		gc.log.Info("dlq_gc_purged",
			zap.Int("count", n),
			zap.Duration("retention", gc.retention),
		)
	}
	return nil
}
