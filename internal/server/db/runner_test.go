package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercatohq/mercato/internal/authz"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	t.Cleanup(func() { _ = sqlDB.Close() })

	return New(sqlDB, time.Second), mock
}

func TestInTx_CommitWithIdentity(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(setSessionIdentity).
		WithArgs("42", "editor").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO leads (name) VALUES ($1)`).
		WithArgs("Ada").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ident := &authz.Identity{SubjectID: "42", Role: authz.RoleEditor}

	err := d.InTx(context.Background(), ident, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO leads (name) VALUES ($1)`, "Ada")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	// The connection must be back in the pool.
	assert.Equal(t, 0, d.Stats().InUse)
}

func TestInTx_AnonymousSkipsSessionIdentity(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM products WHERE published`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	err := d.InTx(context.Background(), nil, func(ctx context.Context, tx *sql.Tx) error {
		var id int64
		return tx.QueryRowContext(ctx, `SELECT id FROM products WHERE published`).Scan(&id)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_ErrorTriggersRollback(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")

	err := d.InTx(context.Background(), nil, func(ctx context.Context, tx *sql.Tx) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, d.Stats().InUse)
}

func TestInTx_SessionIdentityFailureIsHard(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(setSessionIdentity).
		WithArgs("7", "admin").
		WillReturnError(errors.New("no permission to set parameter"))
	mock.ExpectRollback()

	called := false
	ident := &authz.Identity{SubjectID: "7", Role: authz.RoleAdmin}

	err := d.InTx(context.Background(), ident, func(ctx context.Context, tx *sql.Tx) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set session identity")
	assert.False(t, called, "unit of work must not run without identity injection")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_CommitErrorPropagates(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("deadlock detected"))

	err := d.InTx(context.Background(), nil, func(ctx context.Context, tx *sql.Tx) error {
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit")
	assert.Equal(t, 0, d.Stats().InUse)
}

func TestInTx_RollbackErrorDoesNotMaskOriginal(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(errors.New("connection reset"))

	boom := errors.New("business failure")

	err := d.InTx(context.Background(), nil, func(ctx context.Context, tx *sql.Tx) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
}

func TestInTx_PanicStillReleasesConnection(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = d.InTx(context.Background(), nil, func(ctx context.Context, tx *sql.Tx) error {
			panic("handler bug")
		})
	})

	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, d.Stats().InUse)
}

func TestInTx_AcquireTimeout(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	defer func() { _ = sqlDB.Close() }()

	sqlDB.SetMaxOpenConns(1)

	// Saturate the pool with the only connection.
	held, err := sqlDB.Conn(context.Background())
	require.NoError(t, err)

	d := New(sqlDB, 50*time.Millisecond)

	start := time.Now()
	err = d.InTx(context.Background(), nil, func(ctx context.Context, tx *sql.Tx) error {
		return nil
	})
	require.ErrorIs(t, err, ErrAcquireTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	// Releasing the held connection lets the next unit of work proceed.
	require.NoError(t, held.Close())

	mock.ExpectBegin()
	mock.ExpectCommit()

	err = d.InTx(context.Background(), nil, func(ctx context.Context, tx *sql.Tx) error {
		return nil
	})
	require.NoError(t, err)
}

func TestRun_ReturnsResult(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count(*) FROM leads`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectCommit()

	count, err := Run(context.Background(), d, nil, func(ctx context.Context, tx *sql.Tx) (int64, error) {
		var n int64

		err := tx.QueryRowContext(ctx, `SELECT count(*) FROM leads`).Scan(&n)

		return n, err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestRun_ZeroValueOnError(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	result, err := Run(context.Background(), d, nil, func(ctx context.Context, tx *sql.Tx) (string, error) {
		return "partial", errors.New("boom")
	})
	require.Error(t, err)
	assert.Empty(t, result)
}
