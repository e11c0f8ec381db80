package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/benvon/askdev/internal/auth"
	"github.com/benvon/askdev/internal/models"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewTokenCmd issues access tokens for local testing.
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue access tokens",
	}
	cmd.AddCommand(newTokenSignCmd())
	return cmd
}

func newTokenSignCmd() *cobra.Command {
	var sub, email, role, secret string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a token with JWT_SECRET",
		Long:  "Sign an HS256 token for a profile id. Missing profiles are created on first use by the API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sub == "" {
				sub = uuid.NewString()
			} else if _, err := uuid.Parse(sub); err != nil {
				return fmt.Errorf("--sub must be a UUID: %w", err)
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}
			if secret == "" {
				_ = godotenv.Load()
				secret = os.Getenv("JWT_SECRET")
			}
			v, err := auth.NewVerifier(secret, os.Getenv("JWT_ISSUER"), os.Getenv("JWT_AUDIENCE"))
			if err != nil {
				return err
			}
			token, err := v.Sign(models.JWTClaims{Sub: sub, Email: email, Role: role}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "", "Profile id (default: random UUID)")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&role, "role", "", "Role claim")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (default: $JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
