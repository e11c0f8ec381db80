package workers

import (
	"context"
	"fmt"
	"time"

	logpkg "github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/queue"
	"github.com/benvon/askdev/internal/tags"
	"go.uber.org/zap"
)

// baseRetryDelay is doubled on each retry.
const baseRetryDelay = 10 * time.Second

// JobProcessor handles one job type.
type JobProcessor func(ctx context.Context, job *queue.Job) error

type processorEntry struct {
	proc  JobProcessor
	retry bool
}

// SnapshotRefresher rebuilds the cached tag snapshot. *trends.Service implements it.
type SnapshotRefresher interface {
	CompleteRefresh(ctx context.Context) (*tags.Snapshot, error)
}

// TrendRefresher consumes tag_trend_refresh jobs.
type TrendRefresher struct {
	trends   SnapshotRefresher
	jobQueue queue.JobQueue // for re-enqueueing failed jobs
	logger   *zap.Logger
	registry map[queue.JobType]processorEntry
	now      func() time.Time
}

// NewTrendRefresher creates a refresher and registers the tag_trend_refresh processor.
// jobQueue may be nil, in which case failed jobs go straight to the DLQ.
func NewTrendRefresher(trends SnapshotRefresher, jobQueue queue.JobQueue, logger *zap.Logger) *TrendRefresher {
	r := &TrendRefresher{
		trends:   trends,
		jobQueue: jobQueue,
		logger:   logger,
		registry: make(map[queue.JobType]processorEntry),
		now:      time.Now,
	}
	r.RegisterProcessor(queue.JobTypeTagTrendRefresh, r.ProcessTrendRefreshJob, true)
	return r
}

// RegisterProcessor registers a processor for a job type. With retry set,
// failures are re-enqueued with backoff until the job's retries run out.
func (r *TrendRefresher) RegisterProcessor(typ queue.JobType, proc JobProcessor, retry bool) {
	r.registry[typ] = processorEntry{proc: proc, retry: retry}
}

// ProcessTrendRefreshJob recomputes the snapshot.
func (r *TrendRefresher) ProcessTrendRefreshJob(ctx context.Context, job *queue.Job) error {
	start := r.now()
	snap, err := r.trends.CompleteRefresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh tag snapshot: %w", err)
	}
	r.logger.Info("tag_trend_refreshed",
		zap.String("job_id", job.ID.String()),
		zap.String("reason", logpkg.SanitizeString(job.Reason, 0)),
		zap.Int("trending", len(snap.Trending.Tags)),
		zap.Int("hot", len(snap.Hot)),
		zap.Int("categorized", snap.Categories.Total()),
		zap.Duration("took", r.now().Sub(start)),
	)
	if r.logger.Core().Enabled(zap.DebugLevel) {
		r.logger.Debug("tag_trend_breakdown",
			zap.Strings("trending", logpkg.SanitizeTags(snap.Trending.Tags)),
			zap.Strings("hot", logpkg.SanitizeTags(snap.Hot)),
		)
	}
	return nil
}

// ProcessJob dispatches a delivered message to its processor and settles it.
// Jobs delivered before NotBefore are held until then; expired jobs are dropped.
func (r *TrendRefresher) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	jobID := job.ID.String()

	if job.NotBefore != nil {
		if wait := job.NotBefore.Sub(r.now()); wait > 0 {
			r.logger.Debug("job_held_until_not_before",
				zap.String("job_id", jobID),
				zap.Time("not_before", *job.NotBefore),
			)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				if nackErr := msg.Nack(true); nackErr != nil {
					r.logger.Warn("failed_to_requeue_held_job",
						zap.String("job_id", jobID),
						zap.String("error", logpkg.SanitizeError(nackErr)),
					)
				}
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	if job.IsExpired() {
		r.logger.Info("job_expired_dropped",
			zap.String("job_id", jobID),
			zap.String("job_type", string(job.Type)),
		)
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack expired job: %w", ackErr)
		}
		return nil
	}

	ent, ok := r.registry[job.Type]
	if !ok {
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Error("failed_to_nack_unknown_job_type",
				zap.String("job_id", jobID),
				zap.String("job_type", logpkg.SanitizeString(string(job.Type), 0)),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err := ent.proc(ctx, job); err != nil {
		r.logger.Error("job_failed",
			zap.String("job_id", jobID),
			zap.String("job_type", string(job.Type)),
			zap.Int("retry_count", job.RetryCount),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		if ent.retry {
			return r.retryOrDeadLetter(ctx, msg, job, err)
		}
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Warn("failed_to_nack_job",
				zap.String("job_id", jobID),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("job %s failed: %w", jobID, err)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

// retryOrDeadLetter re-enqueues job with exponential backoff while retries
// remain, acking the original. Otherwise the message is dead-lettered.
func (r *TrendRefresher) retryOrDeadLetter(ctx context.Context, msg queue.MessageInterface, job *queue.Job, cause error) error {
	if r.jobQueue == nil || !job.CanRetry() {
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Warn("failed_to_nack_job",
				zap.String("job_id", job.ID.String()),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("job %s dead-lettered after %d retries: %w", job.ID, job.RetryCount, cause)
	}

	retry := *job
	retry.IncrementRetry()
	notBefore := r.now().Add(RetryDelay(job.RetryCount))
	retry.NotBefore = &notBefore

	if err := r.jobQueue.Enqueue(ctx, &retry); err != nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Warn("failed_to_nack_job",
				zap.String("job_id", job.ID.String()),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("failed to re-enqueue job %s: %w", job.ID, err)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		r.logger.Warn("failed_to_ack_retried_job",
			zap.String("job_id", job.ID.String()),
			zap.String("error", logpkg.SanitizeError(ackErr)),
		)
	}
	r.logger.Info("job_requeued_for_retry",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", retry.RetryCount),
		zap.Time("not_before", notBefore),
	)
	return nil
}

// RetryDelay is the backoff before retry number attempt+1.
func RetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 6 {
		attempt = 6
	}
	return baseRetryDelay << attempt
}
