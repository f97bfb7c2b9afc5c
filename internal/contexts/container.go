package contexts

import (
	"context"
	"sync"

	"github.com/mercatohq/mercato/internal/authz"
)

// contextContainer contains all request-scoped values.
type contextContainer struct {
	Identity  *authz.Identity
	RequestID *string
	VisitorID *string
	Errors    []error
	mu        sync.RWMutex
}

// getContainer retrieves the existing container from the context, or creates
// a fresh one if none is stored yet.
func getContainer(ctx context.Context) *contextContainer {
	if container, ok := ctx.Value(containerContextKey).(*contextContainer); ok {
		return container
	}

	return &contextContainer{}
}

// withContainer stores the container in the context (if not already stored).
func withContainer(ctx context.Context, container *contextContainer) context.Context {
	if ctx.Value(containerContextKey) == nil {
		return context.WithValue(ctx, containerContextKey, container)
	}

	return ctx
}
