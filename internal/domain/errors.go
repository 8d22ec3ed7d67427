package domain

import "errors"

var (
	// ErrInvalidInput is returned when a caller supplies unusable input, such
	// as an empty candidate list.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBudgetExceeded is returned by the hard budget guard. The run should
	// be skipped, not retried.
	ErrBudgetExceeded = errors.New("budget exceeded")

	// ErrNoEligibleKeyword is returned when every supplied keyword is blacklisted.
	ErrNoEligibleKeyword = errors.New("no eligible keyword")
)
