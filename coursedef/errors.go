package coursedef

import (
	"fmt"
	"strings"
)

// Error codes for structural validation failures.
const (
	ErrCodeRequired    = "required"
	ErrCodeInvalidType = "invalid_type"
	ErrCodeConflict    = "conflict"
	ErrCodeDuplicate   = "duplicate"
	ErrCodeUnknownKey  = "unknown_key"
	ErrCodeReference   = "reference"
	ErrCodeInvalid     = "invalid"
)

// ValidationError aggregates field-level course validation failures.
type ValidationError struct {
	FieldErrors []FieldError
}

// Error formats validation errors as a multi-line message.
func (e *ValidationError) Error() string {
	if len(e.FieldErrors) == 0 {
		return "course validation failed: no errors"
	}

	var b strings.Builder
	if len(e.FieldErrors) == 1 {
		b.WriteString("course validation failed: 1 error\n")
	} else {
		fmt.Fprintf(&b, "course validation failed: %d errors\n", len(e.FieldErrors))
	}
	for _, fe := range e.FieldErrors {
		fmt.Fprintf(&b, "  - %s: %s (%s)\n", fe.Path, fe.Code, fe.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FieldError is a single structural validation failure.
type FieldError struct {
	Path    string // Dot notation into the course document (e.g., "modules[0].children[2].category")
	Code    string // Error code (e.g., "required", "duplicate")
	Message string // Human-readable description
}
