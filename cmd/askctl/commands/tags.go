package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/askdev/internal/cache"
	"github.com/benvon/askdev/internal/config"
	"github.com/benvon/askdev/internal/database"
	"github.com/benvon/askdev/internal/queue"
	"github.com/benvon/askdev/internal/tags"
	"github.com/benvon/askdev/internal/trends"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const tagsCommandTimeout = time.Minute

// NewTagsCmd inspects tag analytics computed straight from the database.
func NewTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Inspect tag analytics",
		Long:  "Compute trending, hot and categorized tags from stored questions, bypassing the cache.",
	}
	cmd.AddCommand(newTagsTrendingCmd())
	cmd.AddCommand(newTagsHotCmd())
	cmd.AddCommand(newTagsCategoriesCmd())
	cmd.AddCommand(newTagsSuggestCmd())
	cmd.AddCommand(newTagsRefreshCmd())
	return cmd
}

// withTrends runs fn against a cache-less trend service.
func withTrends(fn func(ctx context.Context, svc *trends.Service) error) error {
	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	ctx, cancel := context.WithTimeout(context.Background(), tagsCommandTimeout)
	defer cancel()
	return fn(ctx, trends.NewService(database.NewQuestionRepository(db), engineFor(cfg), zap.NewNop()))
}

func engineFor(cfg *config.Config) *tags.Engine {
	return tags.NewEngine(
		tags.WithTrendWindow(cfg.TrendWindowDays),
		tags.WithHotWindow(cfg.HotWindowDays),
	)
}

func newTagsTrendingCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Show trending tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 || days > 365 {
				return fmt.Errorf("--days must be between 1 and 365")
			}
			return withTrends(func(ctx context.Context, svc *trends.Service) error {
				trend, err := svc.Trending(ctx, days)
				if err != nil {
					return err
				}
				return render(cmd, trend)
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Window in days (default: TREND_WINDOW_DAYS)")
	return cmd
}

func newTagsHotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hot",
		Short: "Show fast-growing tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTrends(func(ctx context.Context, svc *trends.Service) error {
				hot, err := svc.Hot(ctx)
				if err != nil {
					return err
				}
				return render(cmd, map[string][]string{"hot": hot})
			})
		},
	}
}

func newTagsCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show every tag in use by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTrends(func(ctx context.Context, svc *trends.Service) error {
				cats, err := svc.Categories(ctx)
				if err != nil {
					return err
				}
				return render(cmd, cats)
			})
		},
	}
}

func newTagsSuggestCmd() *cobra.Command {
	var title, content string
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest tags for a question",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
				return fmt.Errorf("--title or --content is required")
			}
			return withTrends(func(ctx context.Context, svc *trends.Service) error {
				s, err := svc.Suggest(ctx, title, content)
				if err != nil {
					return err
				}
				return render(cmd, s)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Question title")
	cmd.Flags().StringVar(&content, "content", "", "Question body")
	return cmd
}

func newTagsRefreshCmd() *cobra.Command {
	var enqueue bool
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the cached tag snapshot",
		Long:  "Recompute the snapshot and write it to Redis, or with --enqueue hand the job to the worker.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			redisClient, err := cache.NewClient(cfg.RedisURL)
			if err != nil {
				return err
			}
			defer func() { _ = redisClient.Close() }()

			ctx, cancel := context.WithTimeout(context.Background(), tagsCommandTimeout)
			defer cancel()

			opts := []trends.Option{trends.WithCache(cache.NewTrendCache(redisClient, cfg.CacheKeyPrefix, cfg.CacheTTL))}
			if enqueue {
				if err := cfg.RequireQueue(); err != nil {
					return err
				}
				jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zap.NewNop())
				if err != nil {
					return err
				}
				defer func() { _ = jobQueue.Close() }()
				opts = append(opts, trends.WithQueue(jobQueue, cfg.RefreshDebounce))
			}
			svc := trends.NewService(database.NewQuestionRepository(db), engineFor(cfg), zap.NewNop(), opts...)

			if enqueue {
				if err := svc.RequestRefresh(ctx, "askctl"); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Refresh requested; the worker rebuilds the snapshot after the debounce window.")
				return nil
			}
			snap, err := svc.CompleteRefresh(ctx)
			if err != nil {
				return err
			}
			return render(cmd, map[string]any{
				"generated_at":  snap.GeneratedAt,
				"trending_tags": len(snap.Trending.Tags),
				"hot_tags":      len(snap.Hot),
				"analyzed_tags": len(snap.Trending.Analytics),
			})
		},
	}
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Enqueue a refresh job instead of computing here")
	return cmd
}
