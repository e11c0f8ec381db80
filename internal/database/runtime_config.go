package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/askdev/internal/models"
)

const (
	// RatelimitScopeDefault applies to every API route.
	RatelimitScopeDefault = "default"
	// RatelimitScopeAI applies to the AI suggestion route on top of the default.
	RatelimitScopeAI = "ai"

	corsConfigKey = "default"
)

// RatelimitConfigRepository stores rate limits keyed by scope.
type RatelimitConfigRepository struct {
	db *DB
}

func NewRatelimitConfigRepository(db *DB) *RatelimitConfigRepository {
	return &RatelimitConfigRepository{db: db}
}

// Get returns the rate for scope, or nil when none is stored.
func (r *RatelimitConfigRepository) Get(ctx context.Context, scope string) (*models.RatelimitConfig, error) {
	c := &models.RatelimitConfig{}
	err := r.db.QueryRowContext(ctx, `
		SELECT config_key, rate, created_at, updated_at
		FROM ratelimit_config WHERE config_key = $1
	`, scope).Scan(&c.ConfigKey, &c.Rate, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ratelimit config %q: %w", scope, err)
	}
	return c, nil
}

// List returns every stored rate ordered by scope.
func (r *RatelimitConfigRepository) List(ctx context.Context) ([]*models.RatelimitConfig, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT config_key, rate, created_at, updated_at
		FROM ratelimit_config ORDER BY config_key
	`)
	if err != nil {
		return nil, fmt.Errorf("list ratelimit config: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []*models.RatelimitConfig{}
	for rows.Next() {
		c := &models.RatelimitConfig{}
		if err := rows.Scan(&c.ConfigKey, &c.Rate, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ratelimit config: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Set upserts a rate such as "5-S" or "100-M". An empty key means the default scope.
func (r *RatelimitConfigRepository) Set(ctx context.Context, c *models.RatelimitConfig) error {
	rate := strings.TrimSpace(c.Rate)
	if rate == "" {
		return fmt.Errorf("rate cannot be empty")
	}
	key := strings.TrimSpace(c.ConfigKey)
	if key == "" {
		key = RatelimitScopeDefault
	}
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ratelimit_config (config_key, rate, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (config_key) DO UPDATE SET
			rate = EXCLUDED.rate,
			updated_at = EXCLUDED.updated_at
	`, key, rate, now)
	if err != nil {
		return fmt.Errorf("set ratelimit config %q: %w", key, err)
	}
	return nil
}

// CorsConfigRepository stores the API's CORS policy.
type CorsConfigRepository struct {
	db *DB
}

func NewCorsConfigRepository(db *DB) *CorsConfigRepository {
	return &CorsConfigRepository{db: db}
}

// Get returns the stored policy, or nil when none is stored.
func (r *CorsConfigRepository) Get(ctx context.Context) (*models.CorsConfig, error) {
	c := &models.CorsConfig{}
	err := r.db.QueryRowContext(ctx, `
		SELECT config_key, allowed_origins, allow_credentials, max_age, created_at, updated_at
		FROM cors_config WHERE config_key = $1
	`, corsConfigKey).Scan(&c.ConfigKey, &c.AllowedOrigins, &c.AllowCredentials, &c.MaxAge, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cors config: %w", err)
	}
	return c, nil
}

// Set upserts the policy. AllowedOrigins is comma separated.
func (r *CorsConfigRepository) Set(ctx context.Context, c *models.CorsConfig) error {
	origins := strings.Join(AllowedOriginsSlice(c.AllowedOrigins), ",")
	if origins == "" {
		return fmt.Errorf("allowed_origins cannot be empty")
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("max_age cannot be negative")
	}
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cors_config (config_key, allowed_origins, allow_credentials, max_age, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (config_key) DO UPDATE SET
			allowed_origins = EXCLUDED.allowed_origins,
			allow_credentials = EXCLUDED.allow_credentials,
			max_age = EXCLUDED.max_age,
			updated_at = EXCLUDED.updated_at
	`, corsConfigKey, origins, c.AllowCredentials, c.MaxAge, now)
	if err != nil {
		return fmt.Errorf("set cors config: %w", err)
	}
	return nil
}

// AllowedOriginsSlice splits a comma separated origin list, trimming and de-duplicating.
func AllowedOriginsSlice(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range strings.Split(raw, ",") {
		s := strings.TrimSpace(p)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
