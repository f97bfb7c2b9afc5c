package contexts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercatohq/mercato/internal/authz"
)

func TestIdentityRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := GetIdentity(ctx)
	assert.False(t, ok)

	ident := &authz.Identity{SubjectID: "42", Role: authz.RoleEditor}
	ctx = WithIdentity(ctx, ident)

	got, ok := GetIdentity(ctx)
	require.True(t, ok)
	assert.Equal(t, "42", got.SubjectID)
	assert.Equal(t, authz.RoleEditor, got.Role)
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")

	got, ok := GetRequestID(ctx)
	require.True(t, ok)
	assert.Equal(t, "req-1", got)
}

func TestVisitorID(t *testing.T) {
	_, ok := GetVisitorID(context.Background())
	assert.False(t, ok)

	ctx := WithVisitorID(context.Background(), "v-9")
	got, ok := GetVisitorID(ctx)
	require.True(t, ok)
	assert.Equal(t, "v-9", got)
}

func TestErrors(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-2")

	AddError(ctx, errors.New("first"))
	AddError(ctx, errors.New("second"))

	errs := GetErrors(ctx)
	require.Len(t, errs, 2)
	assert.Equal(t, "first", errs[0].Error())
}
