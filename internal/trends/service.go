// Package trends serves tag analytics computed over stored questions.
package trends

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/askdev/internal/database"
	logpkg "github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/queue"
	"github.com/benvon/askdev/internal/tags"
	"github.com/benvon/askdev/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	// DefaultRefreshDebounce collapses bursts of new questions into one refresh.
	DefaultRefreshDebounce = 30 * time.Second
	// refreshJobTTL is how long a queued refresh may wait before it is dropped.
	refreshJobTTL = 10 * time.Minute
)

// SnapshotCache stores the precomputed snapshot. *cache.TrendCache implements it.
type SnapshotCache interface {
	Get(ctx context.Context) (*tags.Snapshot, error)
	Set(ctx context.Context, snap *tags.Snapshot) error
	Invalidate(ctx context.Context) error
	MarkRefreshPending(ctx context.Context, window time.Duration) (bool, error)
	ClearRefreshPending(ctx context.Context) error
}

// Service reads tag analytics from the cache and falls back to computing them
// from the question store. The cache and queue are optional.
type Service struct {
	source   database.TagSource
	engine   *tags.Engine
	cache    SnapshotCache
	jobs     queue.JobQueue
	debounce time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the snapshot cache.
func WithCache(c SnapshotCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithQueue makes RequestRefresh enqueue refresh jobs instead of dropping the cache.
func WithQueue(q queue.JobQueue, debounce time.Duration) Option {
	return func(s *Service) {
		s.jobs = q
		if debounce > 0 {
			s.debounce = debounce
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(source database.TagSource, engine *tags.Engine, log *zap.Logger, opts ...Option) *Service {
	if engine == nil {
		engine = tags.NewEngine()
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		source:   source,
		engine:   engine,
		debounce: DefaultRefreshDebounce,
		logger:   log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Engine() *tags.Engine { return s.engine }

// Snapshot returns the cached snapshot, computing and caching it on a miss.
func (s *Service) Snapshot(ctx context.Context) (*tags.Snapshot, error) {
	if s.cache != nil {
		snap, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("trend_cache_read_failed", zap.String("error", logpkg.SanitizeError(err)))
		} else if snap != nil {
			return snap, nil
		}
	}
	return s.Refresh(ctx)
}

// Refresh recomputes the snapshot from storage and writes it to the cache.
func (s *Service) Refresh(ctx context.Context) (*tags.Snapshot, error) {
	ctx, span := telemetry.Tracer("trends").Start(ctx, "trends.refresh")
	defer span.End()

	now := s.now()
	since := now.AddDate(0, 0, -s.engine.LookbackDays())
	items, err := s.source.TaggedSince(ctx, since)
	if err != nil {
		span.SetStatus(codes.Error, "load tagged questions")
		return nil, fmt.Errorf("failed to load tagged questions: %w", err)
	}
	vocabulary, err := s.source.AllTags(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "load tag vocabulary")
		return nil, fmt.Errorf("failed to load tag vocabulary: %w", err)
	}
	span.SetAttributes(
		attribute.Int("askdev.questions", len(items)),
		attribute.Int("askdev.vocabulary", len(vocabulary)),
	)

	snap := s.engine.Snapshot(items, vocabulary, now)
	if s.cache != nil {
		if err := s.cache.Set(ctx, &snap); err != nil {
			s.logger.Warn("trend_cache_write_failed", zap.String("error", logpkg.SanitizeError(err)))
		}
	}
	s.logger.Debug("tag_snapshot_computed",
		zap.Int("questions", len(items)),
		zap.Int("vocabulary", len(vocabulary)),
		zap.Int("trending", len(snap.Trending.Tags)),
		zap.Int("hot", len(snap.Hot)),
	)
	return &snap, nil
}

// Trending returns the trending tags over days. The engine's own window is
// served from the snapshot; any other window is computed live. On error the
// empty trend is returned alongside it.
func (s *Service) Trending(ctx context.Context, days int) (tags.Trend, error) {
	if days <= 0 || days == s.engine.TrendWindowDays() {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return tags.EmptyTrend(), err
		}
		return snap.Trending, nil
	}

	now := s.now()
	items, err := s.source.TaggedSince(ctx, now.AddDate(0, 0, -days))
	if err != nil {
		return tags.EmptyTrend(), fmt.Errorf("failed to load tagged questions: %w", err)
	}
	return tags.Aggregate(items, days, now), nil
}

// Hot returns the fast-growing tags. On error the list is empty, never nil.
func (s *Service) Hot(ctx context.Context) ([]string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return []string{}, err
	}
	if snap.Hot == nil {
		return []string{}, nil
	}
	return snap.Hot, nil
}

// Categories buckets every tag in use. On error all buckets are empty.
func (s *Service) Categories(ctx context.Context) (tags.Categories, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return s.engine.Categorize(nil), err
	}
	if snap.Categories == nil {
		return s.engine.Categorize(nil), nil
	}
	return snap.Categories, nil
}

// Suggest classifies the text and merges in trend data. Content-based tags are
// always returned; trend data is left empty when storage is unavailable.
func (s *Service) Suggest(ctx context.Context, title, content string) (tags.Suggestions, error) {
	contentBased := s.engine.Classify(title, content)
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return tags.Compose(contentBased, tags.EmptyTrend(), nil), err
	}
	return tags.Compose(contentBased, snap.Trending, snap.Hot), nil
}

// RequestRefresh asks for the snapshot to be rebuilt after questions change.
// With a queue, one refresh job is enqueued per debounce window. Without one
// the cache entry is dropped so the next read recomputes it.
func (s *Service) RequestRefresh(ctx context.Context, reason string) error {
	if s.cache == nil {
		return nil
	}
	if s.jobs == nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			return fmt.Errorf("failed to invalidate trend cache: %w", err)
		}
		return nil
	}

	claimed, err := s.cache.MarkRefreshPending(ctx, s.debounce)
	if err != nil {
		return err
	}
	if !claimed {
		s.logger.Debug("tag_trend_refresh_already_pending", zap.String("reason", logpkg.SanitizeString(reason, 0)))
		return nil
	}
	job := queue.NewTrendRefreshJob(reason, s.debounce, refreshJobTTL)
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		if clearErr := s.cache.ClearRefreshPending(ctx); clearErr != nil {
			s.logger.Warn("failed_to_release_refresh_slot", zap.String("error", logpkg.SanitizeError(clearErr)))
		}
		return fmt.Errorf("failed to enqueue trend refresh: %w", err)
	}
	s.logger.Info("tag_trend_refresh_enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("reason", logpkg.SanitizeString(reason, 0)),
	)
	return nil
}

// CompleteRefresh rebuilds the snapshot and releases the debounce slot.
func (s *Service) CompleteRefresh(ctx context.Context) (*tags.Snapshot, error) {
	snap, err := s.Refresh(ctx)
	if s.cache != nil {
		if clearErr := s.cache.ClearRefreshPending(ctx); clearErr != nil {
			s.logger.Warn("failed_to_release_refresh_slot", zap.String("error", logpkg.SanitizeError(clearErr)))
		}
	}
	return snap, err
}
