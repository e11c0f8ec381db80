package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/askdev/internal/database"
	"github.com/benvon/askdev/internal/models"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"
)

// NewRatelimitCmd creates the ratelimit configuration command with list and set subcommands.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage rate limit configuration",
		Long:  "List or update per-scope rate limits (e.g. 5-S, 100-M). Running servers pick changes up on their next reload.",
	}
	cmd.AddCommand(newRatelimitListCmd())
	cmd.AddCommand(newRatelimitSetCmd())
	return cmd
}

func newRatelimitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored rate limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			configs, err := database.NewRatelimitConfigRepository(db).List(context.Background())
			if err != nil {
				return err
			}
			if len(configs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No rate limits in database. Servers seed their defaults on start.")
				return nil
			}
			return render(cmd, configs)
		},
	}
}

func newRatelimitSetCmd() *cobra.Command {
	var scope, rate string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the rate for a scope",
		Long:  "Update the rate for a scope (default or ai). Rates look like 5-S, 100-M or 1000-H.",
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, rate = strings.TrimSpace(scope), strings.TrimSpace(rate)
			if err := validateRatelimit(scope, rate); err != nil {
				return err
			}
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			repo := database.NewRatelimitConfigRepository(db)
			if err := repo.Set(context.Background(), &models.RatelimitConfig{ConfigKey: scope, Rate: rate}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rate limit for %s set to %s.\n", scope, rate)
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "scope", database.RatelimitScopeDefault, "Scope: default or ai")
	cmd.Flags().StringVar(&rate, "rate", "", "Rate (e.g. 5-S, 100-M, 1000-H) (required)")
	return cmd
}

func validateRatelimit(scope, rate string) error {
	switch scope {
	case database.RatelimitScopeDefault, database.RatelimitScopeAI:
	default:
		return fmt.Errorf("unknown scope %q (want %s or %s)", scope, database.RatelimitScopeDefault, database.RatelimitScopeAI)
	}
	if rate == "" {
		return fmt.Errorf("--rate is required (e.g. 5-S, 100-M)")
	}
	if _, err := limiter.NewRateFromFormatted(rate); err != nil {
		return fmt.Errorf("invalid rate %q: %w", rate, err)
	}
	return nil
}
