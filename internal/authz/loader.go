package authz

import (
	"context"
	"errors"
	"fmt"

	"classhub/internal/domain"
)

// PrincipalLoader maps a verified external subject id to a domain principal:
// internal user id, tenant id, and one effective role.
type PrincipalLoader struct {
	dir Directory
}

// NewPrincipalLoader creates a loader backed by the given directory.
func NewPrincipalLoader(dir Directory) *PrincipalLoader {
	return &PrincipalLoader{dir: dir}
}

// ResolvePrincipal looks up the domain user for an external subject id.
// An identity with no provisioned account (invite not completed) resolves to
// domain.ErrUnauthenticated; a provisioned account with no tenant resolves to
// domain.ErrTenantMissing. Read-only and idempotent for a fixed store state.
func (l *PrincipalLoader) ResolvePrincipal(ctx context.Context, externalSubjectID string) (domain.Principal, error) {
	if externalSubjectID == "" {
		return domain.Principal{}, domain.ErrUnauthenticated
	}

	rec, err := l.dir.UserBySubject(ctx, externalSubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Principal{}, domain.ErrUnauthenticated
		}
		return domain.Principal{}, fmt.Errorf("looking up subject: %w", err)
	}

	if rec.TenantID == "" {
		return domain.Principal{}, domain.ErrTenantMissing
	}

	role := effectiveRole(rec.Roles)
	if role == domain.RoleUnknown {
		// A user with no role assignment cannot be authorized for anything.
		return domain.Principal{}, domain.ErrUnauthenticated
	}

	return domain.Principal{
		UserID:            rec.ID,
		TenantID:          rec.TenantID,
		Role:              role,
		ExternalSubjectID: externalSubjectID,
	}, nil
}

// effectiveRole picks one role from a user's assignments, privilege-descending:
// admin > teacher > parent > student. The ordering is a documented policy
// choice; each authenticated session authorizes with exactly this one role.
func effectiveRole(roles []domain.Role) domain.Role {
	best := domain.RoleUnknown
	for _, r := range roles {
		if r.Outranks(best) {
			best = r
		}
	}
	return best
}
