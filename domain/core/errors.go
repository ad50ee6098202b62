package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound            = errors.New("resource not found")
	ErrObservationNotFound = fmt.Errorf("%w: observation", ErrNotFound)
	ErrPreviewNotFound     = fmt.Errorf("%w: evidence preview", ErrNotFound)

	// Validation errors
	ErrInvalid           = errors.New("validation failed")
	ErrMissingColumn     = errors.New("required column missing")
	ErrEmptySheet        = errors.New("sheet has no header row")
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrUnsupportedImage  = errors.New("unsupported image type")
	ErrImageTooLarge     = errors.New("image exceeds size limit")
)

// Error constructors with context
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrInvalid, field, reason)
}

func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w: %q", ErrMissingColumn, column)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalid) ||
		errors.Is(err, ErrUnsupportedImage) ||
		errors.Is(err, ErrImageTooLarge)
}
