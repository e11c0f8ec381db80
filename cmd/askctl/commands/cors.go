package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/askdev/internal/database"
	"github.com/benvon/askdev/internal/models"
	"github.com/spf13/cobra"
)

// NewCorsCmd creates the cors configuration command with list and set subcommands.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List or update CORS allowed origins and options (stored in database).",
	}
	cmd.AddCommand(newCorsListCmd())
	cmd.AddCommand(newCorsSetCmd())
	return cmd
}

func newCorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the stored CORS policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			c, err := database.NewCorsConfigRepository(db).Get(context.Background())
			if err != nil {
				return err
			}
			if c == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No CORS configuration in database. Servers fall back to FRONTEND_URL.")
				return nil
			}
			return render(cmd, c)
		},
	}
}

func newCorsSetCmd() *cobra.Command {
	var origins string
	var allowCreds bool
	var maxAge int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the CORS policy",
		Long:  "Update CORS allowed origins (comma-separated). Stored in database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			origins = strings.TrimSpace(origins)
			if len(database.AllowedOriginsSlice(origins)) == 0 {
				return fmt.Errorf("--origins is required (comma-separated list)")
			}
			if maxAge < 0 {
				return fmt.Errorf("--max-age cannot be negative")
			}
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			c := &models.CorsConfig{
				AllowedOrigins:   origins,
				AllowCredentials: allowCreds,
				MaxAge:           maxAge,
			}
			if err := database.NewCorsConfigRepository(db).Set(context.Background(), c); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "CORS configuration updated.")
			return nil
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age (seconds)")
	return cmd
}
