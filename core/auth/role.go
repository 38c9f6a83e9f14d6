package auth

import "strings"

// Role is the single role a session is issued for.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
	RoleStudent    Role = "student"
	RoleParent     Role = "parent"
	RoleSuperadmin Role = "superadmin"
)

var (
	// TenantRoles are the roles a school account can hold.
	TenantRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleParent}

	AllRoles = append(append([]Role{}, TenantRoles...), RoleSuperadmin)
)

// ParseRole returns the Role named by s (case-insensitive) and whether it is known.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllRoles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// IsTenantRole reports whether r belongs to a school account.
func (r Role) IsTenantRole() bool {
	for _, tr := range TenantRoles {
		if r == tr {
			return true
		}
	}
	return false
}

// IsElevated reports whether sessions for r get the short validity window.
func (r Role) IsElevated() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

func (r Role) String() string { return string(r) }

// RoleIn reports whether r is one of roles. An empty roles set matches every role.
func RoleIn(r Role, roles []Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}
