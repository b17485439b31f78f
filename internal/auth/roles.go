// Package auth covers users, roles and the bearer tokens that carry them.
package auth

import "slices"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAnalyst  Role = "analyst"
	RoleBusiness Role = "business"
)

// AllRoles may read KPI and map data.
var AllRoles = []Role{RoleAdmin, RoleAnalyst, RoleBusiness}

// ParseRole validates a role name; empty means the default business role.
func ParseRole(raw string) (Role, bool) {
	if raw == "" {
		return RoleBusiness, true
	}
	role := Role(raw)
	return role, slices.Contains(AllRoles, role)
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID uint   `json:"id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// Allowed reports whether p may use an endpoint open to permitted. An empty
// permitted set admits any authenticated principal.
func Allowed(p *Principal, permitted ...Role) bool {
	if p == nil {
		return false
	}
	return len(permitted) == 0 || slices.Contains(permitted, p.Role)
}
