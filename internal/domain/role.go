package domain

import "fmt"

// Role is the effective role of an authenticated principal. Storage may hold
// several role assignments per user; authorization decisions always operate on
// exactly one Role, resolved at principal-load time.
type Role int

const (
	RoleUnknown Role = iota
	RoleStudent
	RoleParent
	RoleTeacher
	RoleAdmin
)

// AllRoles lists every valid role, highest privilege first.
var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleParent, RoleStudent}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleTeacher:
		return "teacher"
	case RoleParent:
		return "parent"
	case RoleStudent:
		return "student"
	default:
		return "unknown"
	}
}

// ParseRole converts a stored role name into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "admin":
		return RoleAdmin, nil
	case "teacher":
		return RoleTeacher, nil
	case "parent":
		return RoleParent, nil
	case "student":
		return RoleStudent, nil
	default:
		return RoleUnknown, fmt.Errorf("unknown role %q", s)
	}
}

// Outranks reports whether r carries more privilege than other.
// The ordering admin > teacher > parent > student is a policy choice used to
// pick the effective role when a user holds multiple assignments.
func (r Role) Outranks(other Role) bool {
	return r > other
}
