package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"autobill/internal/core/apperror"
)

// PostgreSQL SQLSTATE codes classified by repositories.
const (
	SQLStateUniqueViolation     = "23505"
	SQLStateForeignKeyViolation = "23503"
	SQLStateCheckViolation      = "23514"
)

// PgCode returns the SQLSTATE of err, or "" when err is not a server error.
func PgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// constraintName returns the violated constraint of err, if any.
func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// IsUniqueViolationOf reports whether err is a unique violation of one of constraints.
func IsUniqueViolationOf(err error, constraints ...string) bool {
	if PgCode(err) != SQLStateUniqueViolation {
		return false
	}
	name := constraintName(err)
	for _, c := range constraints {
		if c == name {
			return true
		}
	}
	return false
}

// ClassifyWriteError maps constraint violations on entity to AppErrors.
// Other errors are returned unchanged.
func ClassifyWriteError(err error, entity string) error {
	switch PgCode(err) {
	case SQLStateUniqueViolation:
		return apperror.NewConflict(entity+" violates a uniqueness constraint").
			WithDetail("entity", entity).
			WithDetail("constraint", constraintName(err)).
			WithCause(err)
	case SQLStateForeignKeyViolation:
		return apperror.NewValidation("referenced record does not exist or is still in use").
			WithDetail("entity", entity).
			WithDetail("constraint", constraintName(err)).
			WithCause(err)
	case SQLStateCheckViolation:
		return apperror.NewValidation(entity+" violates a check constraint").
			WithDetail("entity", entity).
			WithDetail("constraint", constraintName(err)).
			WithCause(err)
	}
	return err
}
