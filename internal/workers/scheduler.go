package workers

import (
	"context"
	"fmt"
	"time"

	logpkg "github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/queue"
	"go.uber.org/zap"
)

// DefaultRefreshInterval keeps the snapshot warm when no questions arrive.
const DefaultRefreshInterval = 5 * time.Minute

// Scheduler enqueues a trend refresh on a fixed interval so growth figures
// age even when nothing new is posted.
type Scheduler struct {
	jobQueue queue.JobQueue
	interval time.Duration
	logger   *zap.Logger
}

func NewScheduler(jobQueue queue.JobQueue, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Scheduler{
		jobQueue: jobQueue,
		interval: interval,
		logger:   logger,
	}
}

// ScheduleRefresh enqueues one refresh job. The job expires after one interval
// so a stalled consumer does not build a backlog.
func (s *Scheduler) ScheduleRefresh(ctx context.Context) error {
	job := queue.NewTrendRefreshJob("scheduled", 0, s.interval)
	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue scheduled refresh: %w", err)
	}
	s.logger.Debug("scheduled_tag_trend_refresh",
		zap.String("job_id", job.ID.String()),
		zap.Time("not_after", *job.NotAfter),
	)
	return nil
}

// Run schedules a refresh immediately and then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	if err := s.ScheduleRefresh(ctx); err != nil {
		s.logger.Warn("failed_to_schedule_refresh", zap.String("error", logpkg.SanitizeError(err)))
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ScheduleRefresh(ctx); err != nil {
				s.logger.Warn("failed_to_schedule_refresh", zap.String("error", logpkg.SanitizeError(err)))
			}
		}
	}
}
