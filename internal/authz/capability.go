package authz

import (
	"fmt"
	"slices"
)

// Capability names a coarse, route-level permission. The registry below is a
// fast pre-filter only: the database row policies remain authoritative for
// row-level decisions.
type Capability string

const (
	// CapabilityCatalogWrite manages categories and products.
	CapabilityCatalogWrite Capability = "catalog.write"
	// CapabilityContentWrite manages blog posts.
	CapabilityContentWrite Capability = "content.write"
	// CapabilityContentModerate approves and removes comments.
	CapabilityContentModerate Capability = "content.moderate"
	// CapabilityContentComment posts a comment or like; open to guests.
	CapabilityContentComment Capability = "content.comment"
	// CapabilityLeadsRead views captured leads and visits.
	CapabilityLeadsRead Capability = "leads.read"
	// CapabilityLeadsWrite records a visit or lead; open to guests.
	CapabilityLeadsWrite Capability = "leads.write"
	// CapabilityMediaWrite uploads images.
	CapabilityMediaWrite Capability = "media.write"
	// CapabilityPushSubscribe registers a push subscription; open to guests.
	CapabilityPushSubscribe Capability = "push.subscribe"
	// CapabilityPushSend dispatches push notifications.
	CapabilityPushSend Capability = "push.send"
	// CapabilityUsersManage creates and lists backend users.
	CapabilityUsersManage Capability = "users.manage"
)

// ErrUnknownCapability reports a capability name missing from the registry.
// This is a server misconfiguration and must surface loudly, never as a
// plain denial.
var ErrUnknownCapability = fmt.Errorf("authz: unknown capability")

var registry = map[Capability][]Role{
	CapabilityCatalogWrite:    {RoleAdmin, RoleEditor},
	CapabilityContentWrite:    {RoleAdmin, RoleEditor},
	CapabilityContentModerate: {RoleAdmin, RoleEditor},
	CapabilityContentComment:  {RoleAdmin, RoleEditor, RoleUser, RoleGuest},
	CapabilityLeadsRead:       {RoleAdmin, RoleEditor},
	CapabilityLeadsWrite:      {RoleAdmin, RoleEditor, RoleUser, RoleGuest},
	CapabilityMediaWrite:      {RoleAdmin, RoleEditor},
	CapabilityPushSubscribe:   {RoleAdmin, RoleEditor, RoleUser, RoleGuest},
	CapabilityPushSend:        {RoleAdmin},
	CapabilityUsersManage:     {RoleAdmin},
}

// Allowed reports whether the identity (nil means guest) may exercise the
// capability. Unknown capabilities return ErrUnknownCapability.
func Allowed(capability Capability, id *Identity) (bool, error) {
	admissible, ok := registry[capability]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownCapability, capability)
	}

	return slices.Contains(admissible, RoleOf(id)), nil
}
