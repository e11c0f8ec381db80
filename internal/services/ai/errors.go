package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
)

var (
	// ErrNotConfigured is returned when no AI provider is set up.
	ErrNotConfigured = errors.New("ai tag suggestions not configured")
	// ErrNoChoices is returned when the API response has no choices
	ErrNoChoices = errors.New("no choices in response")
)

// APIError represents an error from the AI provider API
type APIError struct {
	Message     string
	Type        string
	Code        string
	StatusCode  int
	RetryAfter  time.Duration
	IsPermanent bool // true for quota errors, false for rate limits
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests && !apiErr.IsPermanent
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsPermanent
	}
	return strings.Contains(err.Error(), "insufficient_quota")
}

// ExtractAPIError converts an OpenAI SDK error into an APIError. It returns
// nil for errors that did not come from the API.
func ExtractAPIError(err error) *APIError {
	var oaErr *openai.Error
	if !errors.As(err, &oaErr) {
		return nil
	}
	apiErr := &APIError{
		Message:    oaErr.Message,
		Type:       oaErr.Type,
		Code:       oaErr.Code,
		StatusCode: oaErr.StatusCode,
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(oaErr.StatusCode)
	}
	if apiErr.StatusCode == http.StatusTooManyRequests {
		apiErr.RetryAfter = 60 * time.Second
		if apiErr.Code == "insufficient_quota" {
			apiErr.IsPermanent = true
			apiErr.RetryAfter = time.Hour
		}
	}
	return apiErr
}
