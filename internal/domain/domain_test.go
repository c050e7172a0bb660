package domain_test

import (
	"testing"

	"classhub/internal/domain"
)

func TestRoleStringRoundTrip(t *testing.T) {
	for _, r := range domain.AllRoles {
		parsed, err := domain.ParseRole(r.String())
		if err != nil {
			t.Errorf("ParseRole(%q): %v", r.String(), err)
		}
		if parsed != r {
			t.Errorf("round trip %v: got %v", r, parsed)
		}
	}
}

func TestParseRoleUnknown(t *testing.T) {
	if _, err := domain.ParseRole("superuser"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestRolePrecedence(t *testing.T) {
	// admin > teacher > parent > student
	if !domain.RoleAdmin.Outranks(domain.RoleTeacher) {
		t.Error("admin should outrank teacher")
	}
	if !domain.RoleTeacher.Outranks(domain.RoleParent) {
		t.Error("teacher should outrank parent")
	}
	if !domain.RoleParent.Outranks(domain.RoleStudent) {
		t.Error("parent should outrank student")
	}
	if domain.RoleStudent.Outranks(domain.RoleAdmin) {
		t.Error("student should not outrank admin")
	}
	if domain.RoleAdmin.Outranks(domain.RoleAdmin) {
		t.Error("a role should not outrank itself")
	}
}

func TestScopePredicateAllowsID(t *testing.T) {
	tenantOnly := domain.TenantOnly("t1")
	if !tenantOnly.AllowsID("anything") {
		t.Error("tenant-only predicate should admit any id in the tenant")
	}

	owned := domain.OwnedByUser("t1", "u1")
	if !owned.AllowsID("u1") {
		t.Error("ownership predicate should admit the owner")
	}
	if owned.AllowsID("u2") {
		t.Error("ownership predicate should exclude other users")
	}

	linked := domain.LinkedToUser("t1", "p1", []string{"s1", "s2"})
	if !linked.AllowsID("s1") || !linked.AllowsID("s2") {
		t.Error("linkage predicate should admit linked ids")
	}
	if linked.AllowsID("s3") {
		t.Error("linkage predicate should exclude unlinked ids")
	}

	empty := domain.LinkedToUser("t1", "p1", nil)
	if empty.AllowsID("s1") {
		t.Error("empty linkage set should admit nothing")
	}
}

func TestNewAuthContext(t *testing.T) {
	p := domain.Principal{
		UserID:            "u1",
		TenantID:          "t1",
		Role:              domain.RoleTeacher,
		ExternalSubjectID: "sub-1",
	}
	ac := domain.NewAuthContext(p)
	if ac.UserID != "u1" || ac.TenantID != "t1" || ac.Role != domain.RoleTeacher {
		t.Errorf("unexpected auth context: %+v", ac)
	}
	if ac.Principal != p {
		t.Error("auth context should embed the principal unchanged")
	}
}
