package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowed(t *testing.T) {
	admin := &Identity{SubjectID: "1", Role: RoleAdmin}
	editor := &Identity{SubjectID: "2", Role: RoleEditor}
	user := &Identity{SubjectID: "3", Role: RoleUser}

	tests := []struct {
		name       string
		capability Capability
		identity   *Identity
		want       bool
	}{
		{"editor writes catalog", CapabilityCatalogWrite, editor, true},
		{"admin writes catalog", CapabilityCatalogWrite, admin, true},
		{"user denied catalog write", CapabilityCatalogWrite, user, false},
		{"guest denied catalog write", CapabilityCatalogWrite, nil, false},
		{"guest may comment", CapabilityContentComment, nil, true},
		{"guest may record leads", CapabilityLeadsWrite, nil, true},
		{"guest may subscribe to push", CapabilityPushSubscribe, nil, true},
		{"editor denied push send", CapabilityPushSend, editor, false},
		{"admin sends push", CapabilityPushSend, admin, true},
		{"editor denied user management", CapabilityUsersManage, editor, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Allowed(tt.capability, tt.identity)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllowed_UnknownCapability(t *testing.T) {
	_, err := Allowed(Capability("catalog.zap"), &Identity{SubjectID: "1", Role: RoleAdmin})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCapability)
}
