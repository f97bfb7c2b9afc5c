package biz

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken reports a credential that was presented but failed
	// verification. This is distinct from no credential at all, which is the
	// anonymous path and not an error.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidPassword reports a failed sign-in.
	ErrInvalidPassword = errors.New("invalid email or password")

	// ErrNotFound reports an entity that does not exist or is invisible under
	// the current row policy. The two cases are intentionally
	// indistinguishable to the caller.
	ErrNotFound = errors.New("not found")

	// ErrSlugConflict reports a duplicate slug.
	ErrSlugConflict = errors.New("slug already in use")

	// ErrConflict reports a uniqueness violation other than a slug.
	ErrConflict = errors.New("already exists")

	// ErrInternal hides infrastructure failures from callers.
	ErrInternal = errors.New("server internal error, please try again later")
)

// ValidationError reports malformed input, identifying the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
