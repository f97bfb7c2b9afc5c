package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mercatohq/mercato/internal/authz"
	"github.com/mercatohq/mercato/internal/log"
)

// setSessionIdentity injects the caller identity into the transaction's
// session state. The third argument to set_config makes both variables
// transaction-local: they vanish at commit or rollback and never leak into
// pooled-connection reuse. set_config also tolerates the variable not
// existing yet, so first use on a fresh database cannot fail the transaction.
//
// app.user_id / app.user_role are the fixed integration contract with the
// row-level security policies; see schema.go.
const setSessionIdentity = `SELECT set_config('app.user_id', $1, true), set_config('app.user_role', $2, true)`

// ErrAcquireTimeout reports that the pool stayed exhausted past the
// configured acquisition timeout.
var ErrAcquireTimeout = errors.New("db: timed out acquiring connection")

// InTx runs fn as one unit of work: it acquires an exclusive connection,
// begins a transaction, injects the identity into the transaction's session
// state when present, and commits on success or rolls back on any failure.
//
// The connection is released exactly once on every exit path, including
// panics inside fn. Rollback failures are logged and never mask the error
// that triggered the rollback. A failure to inject the identity is a hard
// failure: proceeding would let the row policies silently evaluate the
// request as anonymous.
func (d *DB) InTx(ctx context.Context, ident *authz.Identity, fn func(ctx context.Context, tx *sql.Tx) error) error {
	acquireCtx := ctx

	if d.acquireTimeout > 0 {
		var cancel context.CancelFunc

		acquireCtx, cancel = context.WithTimeout(ctx, d.acquireTimeout)
		defer cancel()
	}

	conn, err := d.sql.Conn(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: %w", ErrAcquireTimeout, err)
		}

		return fmt.Errorf("db: acquire connection: %w", err)
	}

	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Warn(ctx, "failed to release connection", log.Cause(cerr))
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db: begin: %w", err)
	}

	committed := false

	defer func() {
		if committed {
			return
		}

		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Warn(ctx, "rollback failed", log.Cause(rbErr))
		}
	}()

	if ident != nil {
		if _, err := tx.ExecContext(ctx, setSessionIdentity, ident.SubjectID, ident.Role.String()); err != nil {
			return fmt.Errorf("db: set session identity: %w", err)
		}
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("db: commit: %w", err)
	}

	committed = true

	return nil
}

// Run is the result-returning form of InTx.
func Run[T any](ctx context.Context, d *DB, ident *authz.Identity, fn func(ctx context.Context, tx *sql.Tx) (T, error)) (T, error) {
	var result T

	err := d.InTx(ctx, ident, func(ctx context.Context, tx *sql.Tx) error {
		var err error

		result, err = fn(ctx, tx)

		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}
