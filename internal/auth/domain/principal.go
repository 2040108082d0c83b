package domain

// Principal is the request-scoped identity established by the request
// authenticator. It is immutable once built and travels explicitly through
// the request context; an absent Principal means the request is anonymous.
type Principal struct {
	UserID      string
	Email       string
	Role        Role
	Authorities []string
}

// HasAuthority reports whether the principal was granted the authority.
func (p Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// HasRole reports whether the principal holds the role, via its ROLE_
// marker authority.
func (p Principal) HasRole(role Role) bool {
	return p.HasAuthority(RolePrefix + string(role))
}
