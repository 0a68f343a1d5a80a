package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"marketplace-backend/internal/db"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write would break a uniqueness or
// reference rule (asset already leased, row still referenced).
var ErrConflict = errors.New("conflict")

// ErrPaymentClosed is returned when a payment can no longer be settled
// because it ended without being paid.
var ErrPaymentClosed = errors.New("payment closed")

// IsDuplicate detects unique constraint violation.
func IsDuplicate(err error) bool {
	return db.IsUniqueViolation(err)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func mapWriteErr(err error) error {
	if db.IsUniqueViolation(err) || db.IsForeignKeyViolation(err) {
		return errors.Join(ErrConflict, err)
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}
