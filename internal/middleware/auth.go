package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/benvon/askdev/internal/auth"
	"github.com/benvon/askdev/internal/database"
	logpkg "github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/models"
	"github.com/benvon/askdev/internal/request"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenVerifier validates a bearer token. *auth.Verifier implements it.
type TokenVerifier interface {
	Verify(token string) (*models.JWTClaims, error)
}

// Authenticator resolves bearer tokens to profiles.
type Authenticator struct {
	verifier TokenVerifier
	profiles database.ProfileStore
	logger   *zap.Logger
}

func NewAuthenticator(verifier TokenVerifier, profiles database.ProfileStore, logger *zap.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, profiles: profiles, logger: logger}
}

// UserFromContext returns the authenticated profile, or nil.
func UserFromContext(r *http.Request) *models.Profile {
	return request.UserFromContext(r)
}

// Required rejects requests without a valid token with 401.
func (a *Authenticator) Required() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, err := a.authenticate(r)
			if err != nil {
				a.reject(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(request.WithUser(r.Context(), profile)))
		})
	}
}

// Optional attaches the profile when a valid token is present. Requests
// without a token pass through anonymously; invalid tokens are still rejected.
func (a *Authenticator) Optional() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			profile, err := a.authenticate(r)
			if err != nil {
				a.reject(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(request.WithUser(r.Context(), profile)))
		})
	}
}

func (a *Authenticator) authenticate(r *http.Request) (*models.Profile, error) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	claims, err := a.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.Sub)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return a.resolveProfile(r.Context(), id, claims)
}

// resolveProfile loads the caller's profile, creating it on first sight.
func (a *Authenticator) resolveProfile(ctx context.Context, id uuid.UUID, claims *models.JWTClaims) (*models.Profile, error) {
	profile, err := a.profiles.GetByID(ctx, id)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	profile = &models.Profile{
		ID:       id,
		Username: usernameFromEmail(claims.Email, id),
		Email:    claims.Email,
	}
	if err := a.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	a.logger.Info("profile_created", zap.String("profile_id", id.String()))
	return profile, nil
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Missing Authorization header", a.logger)
	case errors.Is(err, auth.ErrInvalidToken):
		a.logger.Debug("token_rejected", zap.String("error", logpkg.SanitizeError(err)))
		respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token", a.logger)
	default:
		a.logger.Error("profile_lookup_failed",
			zap.String("error", logpkg.SanitizeError(err)),
			zap.String("request_id", request.RequestID(r.Context())),
		)
		respondErrorJSON(w, r, http.StatusInternalServerError, "Internal Server Error", "Failed to load profile", a.logger)
	}
}

// usernameFromEmail uses the local part of email, or a short id when there is none.
func usernameFromEmail(email string, id uuid.UUID) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.TrimSpace(local)
	if local == "" {
		return "user-" + id.String()[:8]
	}
	return local
}
