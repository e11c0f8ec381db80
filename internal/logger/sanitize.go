package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength is the maximum length for URL paths in logs
	MaxPathLength = 500
	// MaxIDLength bounds ids in logs; UUIDs are 36 chars.
	MaxIDLength = 128
	// MaxErrorMessageLength is the maximum length for error messages in logs
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength is the maximum length for general strings in logs
	MaxGeneralStringLength = 2000
	// MaxQueryLength bounds user search text in logs.
	MaxQueryLength = 200
	// MaxLoggedTags bounds how many tags are logged from one request.
	MaxLoggedTags = 25
)

// SanitizeString strips control characters, repairs UTF-8 and truncates to maxLength.
// A non-positive maxLength means MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' {
			b.WriteRune(r)
		}
	}
	s = b.String()
	if len(s) > maxLength {
		s = truncateUTF8(s, maxLength) + "..."
	}
	return s
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

func SanitizeID(id string) string {
	return SanitizeString(id, MaxIDLength)
}

// SanitizeQuery cleans free-text search input.
func SanitizeQuery(q string) string {
	return SanitizeString(q, MaxQueryLength)
}

// SanitizeTags cleans a tag list, keeping at most MaxLoggedTags entries.
func SanitizeTags(tags []string) []string {
	n := len(tags)
	if n > MaxLoggedTags {
		n = MaxLoggedTags
	}
	out := make([]string, 0, n)
	for _, t := range tags[:n] {
		out = append(out, SanitizeString(t, MaxIDLength))
	}
	return out
}
