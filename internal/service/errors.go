package service

import (
	"errors"

	"ai-docchat-client/internal/interaction"
)

var (
	ErrEmptyName     = interaction.ErrEmptyName
	ErrEmptyURL      = interaction.ErrEmptyURL
	ErrNoSelection   = errors.New("select at least one file or link")
	ErrNoActiveGroup = errors.New("no group selected")
	ErrEmptyMessage  = errors.New("question cannot be empty")

	ErrGroupNotFound = errors.New("group not found")
	ErrItemNotFound  = errors.New("item not found")
	ErrOffline       = errors.New("no backend configured")
)

// ValidationError is returned when input is rejected before any state change
// or network call.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(err error) error {
	return &ValidationError{Err: err}
}

// IsValidation reports whether err was rejected as invalid input.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
