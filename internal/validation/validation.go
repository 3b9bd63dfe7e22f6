package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// Field is a named input value
type Field struct {
	Name  string
	Value string
}

// Required returns a ValidationError for the first field that is blank.
func Required(fields ...Field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			return ValidationError{Field: f.Name, Message: f.Name + " is required"}
		}
	}
	return nil
}

// NormalizeEmail trims surrounding whitespace and lowercases. Every store
// compares the result byte for byte.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
