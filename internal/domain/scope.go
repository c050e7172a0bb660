package domain

import "slices"

// ScopeKind identifies the narrowing applied to a data query beyond the
// mandatory tenant filter.
type ScopeKind int

const (
	// ScopeTenantOnly restricts to the principal's tenant and nothing else
	// (admin visibility).
	ScopeTenantOnly ScopeKind = iota
	// ScopeOwnedByUser additionally restricts to resources owned by the
	// principal (a teacher's own courses, a student's own records).
	ScopeOwnedByUser
	// ScopeLinkedToUser additionally restricts to resources belonging to a
	// precomputed set of foreign ids the principal may see (a parent's linked
	// students, a student's class assignments).
	ScopeLinkedToUser
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeTenantOnly:
		return "tenant_only"
	case ScopeOwnedByUser:
		return "owned_by_user"
	case ScopeLinkedToUser:
		return "linked_to_user"
	default:
		return "unknown"
	}
}

// ScopePredicate is the filter a store must apply before returning or mutating
// any data. Every predicate carries a tenant id; stores refuse to execute a
// predicate without one.
type ScopePredicate struct {
	Kind     ScopeKind
	TenantID string

	// OwnerUserID restricts to resources owned by this user when Kind is
	// ScopeOwnedByUser or ScopeLinkedToUser (personal resources).
	OwnerUserID string

	// VisibleIDs is the precomputed IN-filter set for ScopeLinkedToUser:
	// class ids for a student, linked student ids for a parent. Empty means
	// nothing beyond personal resources is visible.
	VisibleIDs []string
}

// TenantOnly builds the admin predicate for a tenant.
func TenantOnly(tenantID string) ScopePredicate {
	return ScopePredicate{Kind: ScopeTenantOnly, TenantID: tenantID}
}

// OwnedByUser builds an ownership predicate.
func OwnedByUser(tenantID, userID string) ScopePredicate {
	return ScopePredicate{Kind: ScopeOwnedByUser, TenantID: tenantID, OwnerUserID: userID}
}

// LinkedToUser builds a linkage predicate carrying the visible foreign-id set.
func LinkedToUser(tenantID, userID string, visibleIDs []string) ScopePredicate {
	return ScopePredicate{Kind: ScopeLinkedToUser, TenantID: tenantID, OwnerUserID: userID, VisibleIDs: visibleIDs}
}

// AllowsID reports whether the predicate's IN-filter admits the given foreign
// id. TenantOnly admits everything in the tenant; ownership predicates admit
// only the owner itself.
func (p ScopePredicate) AllowsID(id string) bool {
	switch p.Kind {
	case ScopeTenantOnly:
		return true
	case ScopeOwnedByUser:
		return id == p.OwnerUserID
	case ScopeLinkedToUser:
		return slices.Contains(p.VisibleIDs, id)
	default:
		return false
	}
}
