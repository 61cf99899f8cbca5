package authz

import "strings"

// Role is the closed set of caller roles. Roles are compared structurally,
// never by raw claim string, so casing in tokens cannot widen access.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// ParseRole normalizes a raw role claim into a Role. Returns false when the
// claim names no known role.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.IsValid() {
		return "", false
	}
	return role, true
}

// Principal is a verified caller identity, constructed only by the token
// validator and valid for the lifetime of one request.
type Principal struct {
	UserID   int64
	Role     Role
	Username string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
