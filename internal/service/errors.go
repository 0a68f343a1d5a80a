package service

import (
	"errors"
	"fmt"

	"marketplace-backend/internal/repository"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = repository.ErrConflict
	ErrNotFound   = repository.ErrNotFound
	ErrForbidden  = errors.New("forbidden")
	ErrUpstream   = errors.New("payment service unavailable")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
