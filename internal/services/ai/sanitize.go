package ai

import (
	logpkg "github.com/benvon/askdev/internal/logger"
)

const (
	// MaxPreviewLength is the maximum length for preview strings in logs
	MaxPreviewLength = 200
	// MaxDebugContentLength bounds full prompt and response logging in debug mode.
	MaxDebugContentLength = 10000
	// RedactedValue is the value used to replace sensitive data
	RedactedValue = "[REDACTED]"
)

// SanitizeAPIKey keeps the first and last four characters of a key.
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// SanitizePrompt creates a safe preview of a prompt for logging.
func SanitizePrompt(prompt string, fullLog bool) string {
	return logpkg.SanitizeString(prompt, previewLength(fullLog))
}

// SanitizeResponse creates a safe preview of a response for logging.
func SanitizeResponse(response string, fullLog bool) string {
	return logpkg.SanitizeString(response, previewLength(fullLog))
}

func previewLength(fullLog bool) int {
	if fullLog {
		return MaxDebugContentLength
	}
	return MaxPreviewLength
}
