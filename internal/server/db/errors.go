package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes this layer cares about.
const (
	codeUniqueViolation       = "23505"
	codeInsufficientPrivilege = "42501"
	codeSerializationFailure  = "40001"
)

// IsUniqueViolation reports a unique-constraint conflict, e.g. a duplicate slug.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// ConstraintName returns the violated constraint, if the error carries one.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}

	return ""
}

// IsPermissionDenied reports a row-policy denial surfaced by the database.
func IsPermissionDenied(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == codeInsufficientPrivilege
}

// IsSerializationFailure reports a transaction aborted by a serialization
// conflict. Callers decide whether to retry; this layer never does.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == codeSerializationFailure
}
