package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewMigrateCmd applies the embedded schema.
func NewMigrateCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long:  "Apply the embedded schema. Statements are idempotent, so re-running is safe.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := db.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema applied.")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Migration timeout")
	return cmd
}
