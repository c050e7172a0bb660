package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"classhub/internal/api"
	"classhub/internal/authz"
	"classhub/internal/authz/adapter/memory"
	"classhub/internal/authz/audit"
	"classhub/internal/domain"
	"classhub/internal/testutil"
)

type env struct {
	store    *memory.Store
	handlers *api.Handlers
	sink     *audit.Sink
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := testutil.NewSeededStore()
	sink := audit.NewSink(store, 16, 1, nil)
	t.Cleanup(func() { sink.Close(time.Second) })
	return &env{
		store:    store,
		handlers: api.NewHandlers(store, authz.NewNarrower(store), sink),
		sink:     sink,
	}
}

func authCtx(userID string, role domain.Role) domain.AuthContext {
	return domain.NewAuthContext(domain.Principal{
		UserID:   userID,
		TenantID: testutil.Tenant1,
		Role:     role,
	})
}

func TestListCoursesByRole(t *testing.T) {
	e := newEnv(t)

	cases := []struct {
		name string
		ac   domain.AuthContext
		want []string
	}{
		{"admin sees all", authCtx(testutil.Admin1, domain.RoleAdmin), []string{testutil.Course1, testutil.Course2}},
		{"teacher sees own", authCtx(testutil.Teacher1, domain.RoleTeacher), []string{testutil.Course1}},
		{"student sees own class", authCtx(testutil.Student1, domain.RoleStudent), []string{testutil.Course1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.handlers.ListCourses(rec, httptest.NewRequest(http.MethodGet, "/v1/courses", nil), tc.ac)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var resp struct {
				Courses []struct {
					ID string `json:"id"`
				} `json:"courses"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if len(resp.Courses) != len(tc.want) {
				t.Fatalf("got %d courses, want %d", len(resp.Courses), len(tc.want))
			}
			for i, id := range tc.want {
				if resp.Courses[i].ID != id {
					t.Errorf("course %d = %q, want %q", i, resp.Courses[i].ID, id)
				}
			}
		})
	}
}

func TestGetCourseOutOfScopeMatchesMissing(t *testing.T) {
	e := newEnv(t)
	ac := authCtx(testutil.Teacher1, domain.RoleTeacher)

	get := func(id string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/courses/"+id, nil)
		req.SetPathValue("id", id)
		e.handlers.GetCourse(rec, req, ac)
		return rec
	}

	outOfScope := get(testutil.Course2)
	missing := get("no-such-course")

	if outOfScope.Code != http.StatusNotFound || missing.Code != http.StatusNotFound {
		t.Fatalf("expected both 404, got %d and %d", outOfScope.Code, missing.Code)
	}
	if outOfScope.Body.String() != missing.Body.String() {
		t.Errorf("absence responses differ:\n%s\nvs\n%s", outOfScope.Body.String(), missing.Body.String())
	}
}

func TestGetLessonVisibility(t *testing.T) {
	e := newEnv(t)
	ac := authCtx(testutil.Student1, domain.RoleStudent)

	get := func(id string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/lessons/"+id, nil)
		req.SetPathValue("id", id)
		e.handlers.GetLesson(rec, req, ac)
		return rec.Code
	}

	if code := get(testutil.Lesson1); code != http.StatusOK {
		t.Errorf("own-class lesson: status = %d, want 200", code)
	}
	if code := get(testutil.Lesson2); code != http.StatusNotFound {
		t.Errorf("other-class lesson: status = %d, want 404", code)
	}
}

func TestGetStudentParentLinkage(t *testing.T) {
	e := newEnv(t)

	get := func(ac domain.AuthContext, id string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/students/"+id, nil)
		req.SetPathValue("id", id)
		e.handlers.GetStudent(rec, req, ac)
		return rec.Code
	}

	linked := authCtx(testutil.Parent1, domain.RoleParent)
	if code := get(linked, testutil.Student1); code != http.StatusOK {
		t.Errorf("linked parent: status = %d, want 200", code)
	}
	if code := get(linked, testutil.Student2); code != http.StatusNotFound {
		t.Errorf("unlinked student: status = %d, want 404", code)
	}

	unlinked := authCtx(testutil.Parent2, domain.RoleParent)
	if code := get(unlinked, testutil.Student1); code != http.StatusNotFound {
		t.Errorf("parent without links: status = %d, want 404", code)
	}
}

func TestListScheduleFilteredByClass(t *testing.T) {
	e := newEnv(t)
	ac := authCtx(testutil.Student1, domain.RoleStudent)

	rec := httptest.NewRecorder()
	e.handlers.ListSchedule(rec, httptest.NewRequest(http.MethodGet, "/v1/schedule", nil), ac)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Schedule []struct {
			ClassID string `json:"class_id"`
		} `json:"schedule"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Schedule) != 1 || resp.Schedule[0].ClassID != testutil.Class1 {
		t.Errorf("expected only class 1 entries, got %+v", resp.Schedule)
	}
}

func TestCreateClassEmitsAudit(t *testing.T) {
	e := newEnv(t)
	ac := authCtx(testutil.Admin1, domain.RoleAdmin)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/classes", strings.NewReader(`{"name":"6C"}`))
	req.RemoteAddr = "10.1.2.3:5555"
	e.handlers.CreateClass(rec, req, ac)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	// Drain the sink so the record reaches the store.
	if err := e.sink.Close(time.Second); err != nil {
		t.Fatalf("closing sink: %v", err)
	}

	records := e.store.AuditRecords()
	if len(records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(records))
	}
	got := records[0]
	if got.Action != "class.create" || got.ActorID != testutil.Admin1 || got.TenantID != testutil.Tenant1 {
		t.Errorf("unexpected audit record: %+v", got)
	}
	if got.IPAddress != "10.1.2.3" {
		t.Errorf("audit ip = %q, want 10.1.2.3", got.IPAddress)
	}
}

func TestCreateClassValidation(t *testing.T) {
	e := newEnv(t)
	ac := authCtx(testutil.Admin1, domain.RoleAdmin)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/classes", strings.NewReader(`{}`))
	e.handlers.CreateClass(rec, req, ac)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateParentLinkUsesCallerTenant(t *testing.T) {
	e := newEnv(t)
	ac := authCtx(testutil.Admin1, domain.RoleAdmin)

	body := `{"parent_user_id":"` + testutil.Parent2 + `","student_user_id":"` + testutil.Student2 + `"}`
	rec := httptest.NewRecorder()
	e.handlers.CreateParentLink(rec, httptest.NewRequest(http.MethodPost, "/v1/parent-links", strings.NewReader(body)), ac)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	ids, err := e.store.LinkedStudentIDs(context.Background(), testutil.Tenant1, testutil.Parent2)
	if err != nil {
		t.Fatalf("LinkedStudentIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != testutil.Student2 {
		t.Errorf("expected link in caller tenant, got %v", ids)
	}
}
