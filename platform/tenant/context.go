package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Role is a tenant membership role.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleOwner      Role = "owner"
	RoleMember     Role = "member"
	RoleViewer     Role = "viewer"
)

// Space captures the resolved tenant context for a request: which tenant the
// caller belongs to and what they may do inside it. It is attached to the
// context by middleware once the membership has been resolved and is immutable
// for the lifetime of the request.
type Space struct {
	TenantID    uuid.UUID
	Slug        string
	Name        string
	Role        Role
	Permissions []string
}

// IsAdmin reports whether the role grants platform-admin surfaces.
func (s Space) IsAdmin() bool {
	return s.Role == RoleSuperAdmin || s.Role == RoleOwner
}

// HasPermission checks the membership's capability set.
func (s Space) HasPermission(perm string) bool {
	for _, p := range s.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

type ctxKey string

const spaceKey ctxKey = "INBOX_TENANT_SPACE"

// WithSpace returns a derived context carrying the tenant Space.
func WithSpace(ctx context.Context, space Space) context.Context {
	return context.WithValue(ctx, spaceKey, space)
}

// FromContext extracts the tenant Space and a boolean indicating presence.
func FromContext(ctx context.Context) (Space, bool) {
	v := ctx.Value(spaceKey)
	if v == nil {
		return Space{}, false
	}

	space, ok := v.(Space)
	return space, ok
}
