// Package errors holds error helpers shared by the commands and the API.
package errors

import "fmt"

// WrapWithContext prefixes err with context. A nil err stays nil.
func WrapWithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// WrapWithContextf is WrapWithContext with a format string.
func WrapWithContextf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
