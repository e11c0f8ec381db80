// Package commands implements askctl, the operator tool for askdev.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/benvon/askdev/internal/config"
	"github.com/benvon/askdev/internal/database"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewRootCmd builds the askctl command tree.
func NewRootCmd() *cobra.Command {
	var output string
	root := &cobra.Command{
		Use:           "askctl",
		Short:         "Operator tool for the askdev API",
		Long:          "Apply the schema, tune runtime configuration and inspect tag analytics.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch output {
			case "yaml", "json":
				return nil
			default:
				return fmt.Errorf("--output must be yaml or json, got %q", output)
			}
		},
	}
	root.PersistentFlags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml or json")

	root.AddCommand(NewMigrateCmd())
	root.AddCommand(NewRatelimitCmd())
	root.AddCommand(NewCorsCmd())
	root.AddCommand(NewTagsCmd())
	root.AddCommand(NewTokenCmd())
	return root
}

// openDB loads configuration and connects to the database.
func openDB() (*config.Config, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, db, nil
}

func closeDB(db *database.DB) {
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
}

func outputFormat(cmd *cobra.Command) string {
	f, err := cmd.Flags().GetString("output")
	if err != nil || f == "" {
		return "yaml"
	}
	return strings.ToLower(f)
}

// printValue writes v to w as YAML or indented JSON.
func printValue(w io.Writer, format string, v any) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	// yaml.v3 ignores json tags; round-trip so field names match the API.
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}

func render(cmd *cobra.Command, v any) error {
	return printValue(cmd.OutOrStdout(), outputFormat(cmd), v)
}
