package courseconf

import "fmt"

// ConfigError is the single error kind raised by the configuration
// engine: unresolvable or ambiguous file paths, parse failures,
// missing required fields, unknown processor tags, include collisions,
// and invalid exercise references. It carries a human-readable message
// and an optional nested cause.
type ConfigError struct {
	Message string
	Err     error // nested cause, may be nil
}

// Error formats the message, appending the nested cause when present.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the nested cause so errors.Is/As see through it.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// newConfigError creates a ConfigError with a formatted message and no cause.
func newConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// wrapConfigError creates a ConfigError with a formatted message and a cause.
func wrapConfigError(err error, format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...), Err: err}
}
