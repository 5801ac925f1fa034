package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound        = errors.New("resource not found")
	ErrDatasetNotFound = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("%w: user", ErrNotFound)

	ErrEmptyData       = errors.New("file has no data rows")
	ErrNoColumns       = errors.New("file has no columns")
	ErrDatasetNotReady = errors.New("dataset is not ready for querying")

	ErrForbidden = errors.New("resource belongs to a different user")
)

// NewNotFoundError builds a not-found error carrying the resource and id
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// IsNotFoundError reports whether err descends from ErrNotFound
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
