// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned for unknown ids and for records owned by another vendor.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when a design or product is not in a state that permits the operation.
	ErrInvalidState = errors.New("invalid state")
	// ErrLockedState is returned when a vendor edits a preference after the admin decision.
	ErrLockedState = errors.New("locked state")
	// ErrStorageFailure is returned when the blob store rejects an upload.
	ErrStorageFailure = errors.New("storage failure")
	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrBaseProductNotFound is an ErrNotFound for the catalog item a product is built on.
	ErrBaseProductNotFound = fmt.Errorf("base product %w", ErrNotFound)

	// errConstraintViolation never leaves this package; dedup races are resolved by re-reading.
	errConstraintViolation = errors.New("constraint violation")
)

const pgUniqueViolation = "23505"

// isUniqueViolation recognises duplicate key errors from every driver the
// service can run on.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}

	return false
}
