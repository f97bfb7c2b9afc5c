package biz

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mercatohq/mercato/internal/log"
	"github.com/mercatohq/mercato/internal/server/db"
)

// storeError translates a data-layer failure into the business taxonomy.
//
// sql.ErrNoRows and explicit permission denials both become ErrNotFound: a
// row hidden by policy must be indistinguishable from a row that does not
// exist. Unique violations on a slug column become ErrSlugConflict. Pool
// acquisition timeouts pass through so the transport layer can report a
// transient infrastructure error. Everything else is logged and hidden
// behind ErrInternal.
func storeError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows),
		errors.Is(err, ErrNotFound),
		db.IsPermissionDenied(err):
		return ErrNotFound
	case db.IsUniqueViolation(err):
		if strings.Contains(db.ConstraintName(err), "slug") {
			return ErrSlugConflict
		}

		return ErrConflict
	case errors.Is(err, db.ErrAcquireTimeout),
		errors.Is(err, ErrSlugConflict),
		errors.Is(err, ErrConflict):
		return err
	default:
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return err
		}

		log.Error(ctx, "store operation failed", log.Cause(err))

		return ErrInternal
	}
}
