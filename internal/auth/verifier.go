// Package auth verifies access tokens signed with the project's HS256 secret.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/askdev/internal/models"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	// DefaultClockSkew is tolerated on exp, iat and nbf.
	DefaultClockSkew = 30 * time.Second

	emailClaim = "email"
	roleClaim  = "role"
)

var (
	// ErrInvalidToken covers every rejected token: bad signature, expired, wrong issuer.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrMissingToken is returned when no bearer token is present.
	ErrMissingToken = errors.New("missing bearer token")
)

// Verifier checks HS256 tokens.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	skew     time.Duration
}

// NewVerifier creates a verifier. Empty issuer or audience disables that check.
func NewVerifier(secret, issuer, audience string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Verifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		skew:     DefaultClockSkew,
	}, nil
}

// Verify parses and validates tokenString and returns its claims. The subject
// must be a UUID since it is used as the profile id.
func (v *Verifier) Verify(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, v.secret),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(v.skew),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := uuid.Parse(token.Subject()); err != nil {
		return nil, fmt.Errorf("%w: subject is not a profile id", ErrInvalidToken)
	}

	claims := &models.JWTClaims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
		Exp: token.Expiration().Unix(),
		Iat: token.IssuedAt().Unix(),
	}
	if aud := token.Audience(); len(aud) > 0 {
		claims.Aud = aud[0]
	}
	if email, ok := token.Get(emailClaim); ok {
		if s, ok := email.(string); ok {
			claims.Email = s
		}
	}
	if role, ok := token.Get(roleClaim); ok {
		if s, ok := role.(string); ok {
			claims.Role = s
		}
	}
	return claims, nil
}

// Sign issues a token for claims valid for ttl. Used by askctl and tests.
func (v *Verifier) Sign(claims models.JWTClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	b := jwt.NewBuilder().
		Subject(claims.Sub).
		IssuedAt(now).
		Expiration(now.Add(ttl))
	iss := claims.Iss
	if iss == "" {
		iss = v.issuer
	}
	if iss != "" {
		b = b.Issuer(iss)
	}
	aud := claims.Aud
	if aud == "" {
		aud = v.audience
	}
	if aud != "" {
		b = b.Audience([]string{aud})
	}
	if claims.Email != "" {
		b = b.Claim(emailClaim, claims.Email)
	}
	if claims.Role != "" {
		b = b.Claim(roleClaim, claims.Role)
	}
	token, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, v.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: malformed Authorization header", ErrInvalidToken)
	}
	return strings.TrimSpace(token), nil
}
