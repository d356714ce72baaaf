package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrAdapter         = errors.New("object store failure")
	ErrConflict        = errors.New("conflict")
)

// NotFound reports a missing or foreign resource. The caller can not tell the two apart.
func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

func Invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

func AdapterFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrAdapter, err)
}

// Code returns a stable machine readable code for err.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrAdapter):
		return "adapter"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}
