package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "categories_slug_key"}
	denied := &pgconn.PgError{Code: "42501"}
	serial := &pgconn.PgError{Code: "40001"}

	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert category: %w", unique)))
	assert.False(t, IsUniqueViolation(denied))
	assert.False(t, IsUniqueViolation(errors.New("plain")))

	assert.Equal(t, "categories_slug_key", ConstraintName(unique))
	assert.Empty(t, ConstraintName(errors.New("plain")))

	assert.True(t, IsPermissionDenied(denied))
	assert.False(t, IsPermissionDenied(unique))

	assert.True(t, IsSerializationFailure(serial))
	assert.False(t, IsSerializationFailure(unique))
}
