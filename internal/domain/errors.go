package domain

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidInput marks caller errors. They are never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoActiveSources is returned by the ensemble builder when no source
	// has a usable series.
	ErrNoActiveSources = errors.New("no active weather sources")

	// ErrNoPredictions is returned when every sampled point of a field or
	// grid analysis failed.
	ErrNoPredictions = errors.New("no point predictions could be produced")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks v's `validate` struct tags and wraps any failure in
// ErrInvalidInput.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
