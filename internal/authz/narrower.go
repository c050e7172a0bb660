package authz

import (
	"context"
	"fmt"
	"slices"

	"classhub/internal/domain"
)

// Narrower computes the scope predicate a handler must apply before touching
// data. Every predicate starts from the principal's tenant; roles other than
// admin add an ownership or linkage clause on top.
type Narrower struct {
	dir Directory
}

// NewNarrower creates a narrower backed by the given directory.
func NewNarrower(dir Directory) *Narrower {
	return &Narrower{dir: dir}
}

// Narrow returns the predicate for the principal's role:
//
//   - admin: tenant filter only (full tenant visibility)
//   - teacher: tenant filter plus ownership (resources whose owning teacher is
//     the principal)
//   - student: tenant filter plus the student's own user id for personal
//     resources, with the enrolled class-id set as an IN-filter for shared ones
//   - parent: tenant filter plus the linked student-id set from parent links
//
// The foreign-id sets are fetched in one query each and applied as IN-filters
// by the store; lists are never filtered client-side after an unscoped fetch.
func (n *Narrower) Narrow(ctx context.Context, p domain.Principal) (domain.ScopePredicate, error) {
	switch p.Role {
	case domain.RoleAdmin:
		return domain.TenantOnly(p.TenantID), nil
	case domain.RoleTeacher:
		return domain.OwnedByUser(p.TenantID, p.UserID), nil
	case domain.RoleStudent:
		classIDs, err := n.dir.ClassIDsForStudent(ctx, p.TenantID, p.UserID)
		if err != nil {
			return domain.ScopePredicate{}, fmt.Errorf("loading enrollment for student %s: %w", p.UserID, err)
		}
		return domain.LinkedToUser(p.TenantID, p.UserID, classIDs), nil
	case domain.RoleParent:
		studentIDs, err := n.dir.LinkedStudentIDs(ctx, p.TenantID, p.UserID)
		if err != nil {
			return domain.ScopePredicate{}, fmt.Errorf("loading parent links for %s: %w", p.UserID, err)
		}
		return domain.LinkedToUser(p.TenantID, p.UserID, studentIDs), nil
	default:
		return domain.ScopePredicate{}, fmt.Errorf("cannot narrow scope for role %s", p.Role)
	}
}

// OwnsOrVisible reports whether a single resource owned by
// resourceOwnerUserID is visible to the principal. Admins see everything in
// their tenant; everyone else only their own. Callers translate false into a
// not-found response, never a forbidden one.
func OwnsOrVisible(p domain.Principal, resourceOwnerUserID string) bool {
	if p.Role == domain.RoleAdmin {
		return true
	}
	return p.UserID == resourceOwnerUserID
}

// CanAccessStudent reports whether the principal may access the specific
// student's data. Parents must hold a parent-link row for exactly this
// student; a parent linked to one student sees nothing of another, even in
// the same tenant.
func (n *Narrower) CanAccessStudent(ctx context.Context, p domain.Principal, studentUserID string) (bool, error) {
	switch p.Role {
	case domain.RoleAdmin, domain.RoleTeacher:
		return true, nil
	case domain.RoleStudent:
		return p.UserID == studentUserID, nil
	case domain.RoleParent:
		linked, err := n.dir.LinkedStudentIDs(ctx, p.TenantID, p.UserID)
		if err != nil {
			return false, fmt.Errorf("loading parent links for %s: %w", p.UserID, err)
		}
		return slices.Contains(linked, studentUserID), nil
	default:
		return false, nil
	}
}

// VisibleClassIDs returns the class ids behind a schedule-style listing for
// the principal: a student's own classes, or the classes of a parent's linked
// students. The result feeds the store's IN-filter.
func (n *Narrower) VisibleClassIDs(ctx context.Context, p domain.Principal) ([]string, error) {
	switch p.Role {
	case domain.RoleStudent:
		return n.dir.ClassIDsForStudent(ctx, p.TenantID, p.UserID)
	case domain.RoleParent:
		studentIDs, err := n.dir.LinkedStudentIDs(ctx, p.TenantID, p.UserID)
		if err != nil {
			return nil, err
		}
		classIDs := make([]string, 0, len(studentIDs))
		for _, sid := range studentIDs {
			ids, err := n.dir.ClassIDsForStudent(ctx, p.TenantID, sid)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				if !slices.Contains(classIDs, id) {
					classIDs = append(classIDs, id)
				}
			}
		}
		return classIDs, nil
	default:
		return nil, fmt.Errorf("no class visibility for role %s", p.Role)
	}
}
