package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/askdev/internal/models"
	"github.com/google/uuid"
)

// ProfileRepository handles profile database operations
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p := &models.Profile{}
	var avatar sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, avatar_url, created_at, updated_at
		FROM profiles WHERE id = $1
	`, id).Scan(&p.ID, &p.Username, &p.Email, &avatar, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if avatar.Valid {
		p.AvatarURL = &avatar.String
	}
	return p, nil
}

// Upsert creates the profile or refreshes its email. An existing username is
// kept unless p.Username is set.
func (r *ProfileRepository) Upsert(ctx context.Context, p *models.Profile) error {
	now := time.Now()
	var avatar sql.NullString
	if p.AvatarURL != nil {
		avatar = sql.NullString{String: *p.AvatarURL, Valid: true}
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO profiles (id, username, email, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO UPDATE SET
			username = CASE WHEN EXCLUDED.username <> '' THEN EXCLUDED.username ELSE profiles.username END,
			email = EXCLUDED.email,
			avatar_url = COALESCE(EXCLUDED.avatar_url, profiles.avatar_url),
			updated_at = EXCLUDED.updated_at
		RETURNING username, created_at, updated_at
	`, p.ID, p.Username, p.Email, avatar, now).Scan(&p.Username, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
