package persistence

import "errors"

// ErrNotFound indicates the requested row does not exist within the caller's
// tenant. Rows belonging to other tenants deliberately surface the same error.
var ErrNotFound = errors.New("record not found")

// ErrMembershipNotFound indicates the user has no active membership for the tenant.
var ErrMembershipNotFound = errors.New("membership not found")
