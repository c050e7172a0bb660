package domain

// Principal represents the authenticated caller for one request: the domain
// user behind a verified external subject, pinned to a single tenant and a
// single effective role.
type Principal struct {
	UserID            string
	TenantID          string
	Role              Role
	ExternalSubjectID string
}

// AuthContext is the immutable bundle handed to a protected handler once the
// request guard has resolved and authorized the caller. It is created fresh
// per request and never outlives it.
type AuthContext struct {
	Principal Principal
	TenantID  string
	UserID    string
	Role      Role
}

// NewAuthContext builds an AuthContext from a resolved principal.
func NewAuthContext(p Principal) AuthContext {
	return AuthContext{
		Principal: p,
		TenantID:  p.TenantID,
		UserID:    p.UserID,
		Role:      p.Role,
	}
}
