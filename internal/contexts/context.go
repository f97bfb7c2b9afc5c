package contexts

import (
	"context"

	"github.com/mercatohq/mercato/internal/authz"
)

// ContextKey defines the context key type.
type ContextKey string

const (
	// containerContextKey is used to store the context container in the context.
	containerContextKey ContextKey = "context_container"
)

// WithIdentity stores the resolved caller identity in the context. Anonymous
// requests never call this; the absence of an identity means guest.
func WithIdentity(ctx context.Context, identity *authz.Identity) context.Context {
	container := getContainer(ctx)
	container.Identity = identity

	return withContainer(ctx, container)
}

// GetIdentity retrieves the caller identity from the context.
func GetIdentity(ctx context.Context) (*authz.Identity, bool) {
	container := getContainer(ctx)
	return container.Identity, container.Identity != nil
}

// WithRequestID stores the request id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	container := getContainer(ctx)
	container.RequestID = &requestID

	return withContainer(ctx, container)
}

// GetRequestID retrieves the request id from the context.
func GetRequestID(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	if container.RequestID != nil {
		return *container.RequestID, true
	}

	return "", false
}

// WithVisitorID stores the anonymous visitor id in the context.
func WithVisitorID(ctx context.Context, visitorID string) context.Context {
	container := getContainer(ctx)
	container.VisitorID = &visitorID

	return withContainer(ctx, container)
}

// GetVisitorID retrieves the anonymous visitor id from the context.
func GetVisitorID(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	if container.VisitorID != nil {
		return *container.VisitorID, true
	}

	return "", false
}

// AddError records an error for access logging.
func AddError(ctx context.Context, err error) {
	container := getContainer(ctx)
	container.mu.Lock()
	defer container.mu.Unlock()

	container.Errors = append(container.Errors, err)
}

// GetErrors retrieves the recorded errors from the context.
func GetErrors(ctx context.Context) []error {
	container := getContainer(ctx)
	container.mu.RLock()
	defer container.mu.RUnlock()

	return container.Errors
}
