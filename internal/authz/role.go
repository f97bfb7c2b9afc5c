package authz

import "fmt"

// Role is the closed set of caller roles. Anything read from storage or a
// token that is not one of these values is a data-integrity error, never a
// silent default.
type Role int

const (
	// RoleGuest is the implicit role of anonymous callers.
	RoleGuest Role = iota
	// RoleUser is a signed-in customer account.
	RoleUser
	// RoleEditor manages catalog and content.
	RoleEditor
	// RoleAdmin manages everything, including users and push delivery.
	RoleAdmin
)

// ErrUnknownRole reports a stored or claimed role outside the closed set.
var ErrUnknownRole = fmt.Errorf("authz: unknown role")

// String returns the wire representation of the role. This is also the value
// injected into the database session as app.user_role.
func (r Role) String() string {
	switch r {
	case RoleGuest:
		return "guest"
	case RoleUser:
		return "user"
	case RoleEditor:
		return "editor"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseRole maps a stored representation onto the closed role set.
func ParseRole(s string) (Role, error) {
	switch s {
	case "guest":
		return RoleGuest, nil
	case "user":
		return RoleUser, nil
	case "editor":
		return RoleEditor, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleGuest, fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}
