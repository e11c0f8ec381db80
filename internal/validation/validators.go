package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/benvon/askdev/internal/models"
	"github.com/go-playground/validator/v10"
)

const (
	MinTitleLength   = 15
	MaxTitleLength   = 300
	MinContentLength = 30
	MaxContentLength = 30000
	MinAnswerLength  = 1
	MaxTagLength     = 35
	MaxSearchLength  = 200
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	tagPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9+#.\-]*$`)
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("tag", validateTag); err != nil {
		panic(fmt.Sprintf("failed to register tag validator: %v", err))
	}
	if err := Validate.RegisterValidation("vote_type", validateVoteType); err != nil {
		panic(fmt.Sprintf("failed to register vote_type validator: %v", err))
	}
}

// validateTag accepts lower-case tags such as "c++", "c#", "node.js" or "vue-router".
func validateTag(fl validator.FieldLevel) bool {
	return IsValidTag(fl.Field().String())
}

func validateVoteType(fl validator.FieldLevel) bool {
	return models.VoteType(fl.Field().String()).Valid()
}

// IsValidTag reports whether tag is a normalized tag of acceptable length.
func IsValidTag(tag string) bool {
	return len(tag) <= MaxTagLength && tagPattern.MatchString(tag)
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return strings.TrimSpace(sanitized.String())
}

// ValidateVoteType validates a VoteType string value
func ValidateVoteType(value string) error {
	if !models.VoteType(value).Valid() {
		return fmt.Errorf("invalid vote_type: %s (must be 'up' or 'down')", value)
	}
	return nil
}

// FirstError renders the first field error of a validator failure for clients.
func FirstError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation failed"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, lengthUnit(fe))
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, lengthUnit(fe))
	case "tag":
		return fmt.Sprintf("%s contains an invalid tag %q", field, fe.Value())
	case "vote_type":
		return fmt.Sprintf("%s must be 'up' or 'down'", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lengthUnit(fe validator.FieldError) string {
	if fe.Kind().String() == "slice" {
		return fe.Param() + " items"
	}
	return fe.Param() + " characters"
}
