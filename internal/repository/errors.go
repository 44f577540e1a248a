package repository

import (
	"errors"
	"strings"

	"amity/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes treated as concurrent-mutation conflicts.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// errConcurrentUpdate is returned from inside a transaction when a
// precondition checked by the caller no longer holds.
var errConcurrentUpdate = models.NewConflictError(
	"The relationship was changed by another request. Please retry.", nil)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
			return true
		}
		return false
	}
	msg := err.Error()
	return isUniqueViolation(err) ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// translateError converts a store error into the application taxonomy.
// Application errors pass through unchanged, so callers inside transactions
// can return them directly.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if isConflict(err) {
		return models.NewConflictError(errConcurrentUpdate.Message, err)
	}
	return models.NewInternalError(err)
}
