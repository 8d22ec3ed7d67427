package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError carries the status an API handler should answer with.
type HTTPError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %s: %v", e.StatusCode, http.StatusText(e.StatusCode), e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Unwrap returns the underlying error.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// BadRequest wraps err as a 400.
func BadRequest(message string, err error) *HTTPError {
	return &HTTPError{StatusCode: http.StatusBadRequest, Message: message, Err: err}
}

// Internal wraps err as a 500.
func Internal(message string, err error) *HTTPError {
	return &HTTPError{StatusCode: http.StatusInternalServerError, Message: message, Err: err}
}

// StatusCode returns the status of the first HTTPError in err's chain, or 500.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message safe to show a client.
func PublicMessage(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return http.StatusText(http.StatusInternalServerError)
}
