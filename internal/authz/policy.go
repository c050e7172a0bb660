package authz

import "classhub/internal/domain"

// Decision is the outcome of a role policy check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Authorize decides whether a role may invoke an operation with the given
// allowed set. Pure and total: Allow iff the role is in the set. An empty set
// is a configuration error and fails closed; the guard logs it.
func Authorize(role domain.Role, allowed []domain.Role) Decision {
	for _, a := range allowed {
		if role == a {
			return Allow
		}
	}
	return Deny
}
