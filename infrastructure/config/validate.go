package config

import "fmt"

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateRequired checks that a string field is not empty.
func ValidateRequired(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidatePort checks that a port number is valid.
func ValidatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{Field: field, Message: "must be between 1 and 65535"}
	}
	return nil
}

// ValidateProbability checks that p lies in [0, 1].
func ValidateProbability(field string, p float64) error {
	if p < 0 || p > 1 {
		return &ValidationError{Field: field, Message: "must be between 0 and 1"}
	}
	return nil
}

// ValidateNonNegative checks that v is not negative.
func ValidateNonNegative(field string, v float64) error {
	if v < 0 {
		return &ValidationError{Field: field, Message: "must not be negative"}
	}
	return nil
}

// ValidateLogLevel checks that a log level is valid.
func ValidateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return nil
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error, fatal"}
	}
}

// ValidateLogFormat checks that a log format is valid.
func ValidateLogFormat(format string) error {
	switch format {
	case "json", "console":
		return nil
	default:
		return &ValidationError{Field: "logging.format", Message: "must be one of: json, console"}
	}
}
