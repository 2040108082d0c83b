package domain

import (
	"fmt"
	"strings"
)

// Role is a coarse permission tier. Fine-grained authorities hang off the
// role; users reference roles, never raw authorities.
type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// Fine-grained authorities granted through roles. The policy layer matches
// on these; the authentication core only carries them.
const (
	AuthorityAdminRead        = "admin:read"
	AuthorityAdminCreate      = "admin:create"
	AuthorityAdminUpdate      = "admin:update"
	AuthorityAdminDelete      = "admin:delete"
	AuthorityManagementRead   = "management:read"
	AuthorityManagementCreate = "management:create"
	AuthorityManagementUpdate = "management:update"
	AuthorityManagementDelete = "management:delete"
)

// RolePrefix marks the pseudo-authority carrying the role itself, so role
// checks and authority checks flow through one mechanism.
const RolePrefix = "ROLE_"

var roleAuthorities = map[Role][]string{
	RoleUser: {},
	RoleManager: {
		AuthorityManagementRead,
		AuthorityManagementCreate,
		AuthorityManagementUpdate,
		AuthorityManagementDelete,
	},
	RoleAdmin: {
		AuthorityAdminRead,
		AuthorityAdminCreate,
		AuthorityAdminUpdate,
		AuthorityAdminDelete,
		AuthorityManagementRead,
		AuthorityManagementCreate,
		AuthorityManagementUpdate,
		AuthorityManagementDelete,
	},
}

// ParseRole maps a stored or client-supplied role name onto a known Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := roleAuthorities[r]; !ok {
		return "", fmt.Errorf("domain: unknown role %q", s)
	}
	return r, nil
}

// Authorities returns the role's granted authorities plus its ROLE_ marker.
func (r Role) Authorities() []string {
	granted, ok := roleAuthorities[r]
	if !ok {
		return nil
	}

	out := make([]string, 0, len(granted)+1)
	out = append(out, granted...)
	out = append(out, RolePrefix+string(r))
	return out
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleAuthorities[r]
	return ok
}
