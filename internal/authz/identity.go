package authz

import "fmt"

// Identity is the resolved caller of the current request: an opaque subject
// id plus one role. It is immutable for the lifetime of the request. Anonymous
// callers have no Identity at all; they are represented by a nil *Identity
// and are treated as RoleGuest by the capability registry.
type Identity struct {
	SubjectID string
	Role      Role
}

// String returns a short form for audit logs.
func (id Identity) String() string {
	return fmt.Sprintf("%s:%s", id.Role.String(), id.SubjectID)
}

// RoleOf returns the effective role of a possibly absent identity.
func RoleOf(id *Identity) Role {
	if id == nil {
		return RoleGuest
	}

	return id.Role
}
