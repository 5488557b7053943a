// Package forms handles form-mode requests: field validation and submission.
// Form mode bypasses the LLM entirely.
package forms

import (
	"regexp"
	"strings"

	"github.com/chatrelay/chatrelay/pkg/tenant"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
)

// ValidationResult is returned to the widget for one field check.
type ValidationResult struct {
	Type   string   `json:"type"`
	Field  string   `json:"field,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateField checks one answer. Pure function; rules apply in order and
// the first failure wins.
func ValidateField(fieldID, value string, cfg *tenant.Config) ValidationResult {
	fail := func(msg string) ValidationResult {
		return ValidationResult{Type: "validation_error", Field: fieldID, Errors: []string{msg}}
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fail("This field is required")
	}

	switch fieldID {
	case "email":
		if !emailRe.MatchString(trimmed) {
			return fail("Please enter a valid email address")
		}
	case "phone":
		if !phoneRe.MatchString(trimmed) {
			return fail("Please enter a valid phone number")
		}
	case "age_confirm":
		if strings.EqualFold(trimmed, "no") {
			return fail("You must be at least 22 years old to volunteer")
		}
	case "commitment_confirm":
		if strings.EqualFold(trimmed, "no") {
			return fail("A one year commitment is required for this program")
		}
	}

	return ValidationResult{Type: "validation_success", Field: fieldID}
}
