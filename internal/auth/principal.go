package auth

import (
	"slices"

	"github.com/vcubone/library-boot/internal/db/models"
)

// Identity is the fully loaded snapshot used for authorization decisions.
type Identity struct {
	ID       int64
	Username string
	Roles    []string
	Version  int
}

// NewIdentity returns an Identity with a sorted, de-duplicated role set.
func NewIdentity(id int64, username string, roles []string, version int) Identity {
	normalized := slices.Clone(roles)
	slices.Sort(normalized)
	return Identity{
		ID:       id,
		Username: username,
		Roles:    slices.Compact(normalized),
		Version:  version,
	}
}

// IdentityFromPerson snapshots a person loaded with roles.
func IdentityFromPerson(p *models.Person) Identity {
	return NewIdentity(p.ID, p.Username, p.RoleNames(), p.Version)
}

// HasRole is an exact set test; roles are not hierarchical.
func (i Identity) HasRole(name string) bool {
	_, found := slices.BinarySearch(i.Roles, name)
	return found
}

// HasAnyRole reports whether the identity holds at least one of names.
func (i Identity) HasAnyRole(names ...string) bool {
	for _, n := range names {
		if i.HasRole(n) {
			return true
		}
	}
	return false
}

// Principal is either Anonymous (the zero value) or Authenticated(Identity).
type Principal struct {
	identity *Identity
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal {
	return Principal{}
}

// Authenticated wraps an identity.
func Authenticated(id Identity) Principal {
	return Principal{identity: &id}
}

// Identity returns the wrapped identity and whether the principal is authenticated.
func (p Principal) Identity() (Identity, bool) {
	if p.identity == nil {
		return Identity{}, false
	}
	return *p.identity, true
}

// IsAuthenticated reports whether the principal carries an identity.
func (p Principal) IsAuthenticated() bool {
	return p.identity != nil
}

// HasRole is false for Anonymous.
func (p Principal) HasRole(name string) bool {
	return p.identity != nil && p.identity.HasRole(name)
}

// String renders the principal for logs.
func (p Principal) String() string {
	if p.identity == nil {
		return "anonymous"
	}
	return p.identity.Username
}
