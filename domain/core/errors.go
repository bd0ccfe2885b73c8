package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrSnapshotNotFound = fmt.Errorf("%w: snapshot", ErrNotFound)
	ErrRunNotFound      = fmt.Errorf("%w: run", ErrNotFound)

	// Input errors
	ErrEmptyInput        = errors.New("pick from empty input")
	ErrInvalidCohortSize = errors.New("invalid cohort size")
	ErrUnknownStep       = errors.New("unknown workflow step")
)

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrInvalidCohortSize) ||
		errors.Is(err, ErrUnknownStep)
}
