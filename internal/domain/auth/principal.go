// Package auth holds the authenticated caller model and the authorization
// guard applied by every customer-scoped operation.
package auth

import "github.com/go-faster/errors"

// RoleAdmin grants read access to any customer's orders. It never extends to
// cart mutation or checkout.
const RoleAdmin = "admin"

// Authorization outcomes. ErrUnauthenticated means no principal was attached
// to the request at all; ErrForbidden means a valid principal targeted a
// customer it does not own.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Principal is an authenticated caller: a stable identity string plus the
// roles granted to it. It is always passed explicitly; core operations never
// read it from ambient state.
type Principal struct {
	ID    string
	Roles []string
}

// HasRole reports whether the principal carries the given role.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal carries the administrative role.
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// AuthorizeOwner allows only the exact owner of customerID. This is the check
// for every cart mutation and for checkout; the administrative role does not
// bypass it. It is a pure function and must run before any store access.
func AuthorizeOwner(p *Principal, customerID string) error {
	if p == nil || p.ID == "" {
		return ErrUnauthenticated
	}
	if p.ID != customerID {
		return ErrForbidden
	}
	return nil
}

// AuthorizeOwnerOrAdmin allows the owner of customerID or any administrator.
// This is the check for order reads.
func AuthorizeOwnerOrAdmin(p *Principal, customerID string) error {
	if p == nil || p.ID == "" {
		return ErrUnauthenticated
	}
	if p.ID == customerID || p.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

// RequireAuthenticated allows any authenticated principal. Used by list
// endpoints that scope results to the caller instead of rejecting.
func RequireAuthenticated(p *Principal) error {
	if p == nil || p.ID == "" {
		return ErrUnauthenticated
	}
	return nil
}
