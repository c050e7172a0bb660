// Package api holds the HTTP call sites that consume the authorization
// core's output. Every handler receives a resolved AuthContext from the
// request guard and narrows its data access through the scope narrower
// before touching the catalog.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"classhub/internal/authz"
	"classhub/internal/authz/audit"
	"classhub/internal/domain"
)

// Handlers bundles the dependencies of the protected endpoints.
type Handlers struct {
	catalog  authz.Catalog
	narrower *authz.Narrower
	audit    *audit.Sink
}

// NewHandlers creates the handler set. The audit sink may be nil in tests
// that don't assert on audit records.
func NewHandlers(catalog authz.Catalog, narrower *authz.Narrower, sink *audit.Sink) *Handlers {
	return &Handlers{catalog: catalog, narrower: narrower, audit: sink}
}

type courseResponse struct {
	ID      string `json:"id"`
	ClassID string `json:"class_id"`
	Title   string `json:"title"`
}

type lessonResponse struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

type studentResponse struct {
	ID      string `json:"id"`
	ClassID string `json:"class_id"`
	Name    string `json:"name"`
}

type scheduleEntryResponse struct {
	ID       string    `json:"id"`
	ClassID  string    `json:"class_id"`
	CourseID string    `json:"course_id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// ListCourses returns the courses visible to the caller under the narrowed
// scope.
func (h *Handlers) ListCourses(w http.ResponseWriter, r *http.Request, ac domain.AuthContext) {
	pred, err := h.narrower.Narrow(r.Context(), ac.Principal)
	if err != nil {
		slog.Error("narrowing scope", "error", err, "tenant_id", ac.TenantID, "operation", "courses.list")
		writeServerError(w)
		return
	}

	courses, err := h.catalog.ListCourses(r.Context(), pred)
	if err != nil {
		slog.Error("listing courses", "error", err, "tenant_id", ac.TenantID)
		writeServerError(w)
		return
	}

	out := make([]courseResponse, len(courses))
	for i, c := range courses {
		out[i] = courseResponse{ID: c.ID, ClassID: c.ClassID, Title: c.Title}
	}
	writeJSON(w, http.StatusOK, map[string]any{"courses": out})
}

// GetCourse fetches one course by id. Out-of-scope and missing are the same
// 404.
func (h *Handlers) GetCourse(w http.ResponseWriter, r *http.Request, ac domain.AuthContext) {
	id := r.PathValue("id")
	if id == "" {
		writeBadRequest(w, "missing course id")
		return
	}

	pred, err := h.narrower.Narrow(r.Context(), ac.Principal)
	if err != nil {
		slog.Error("narrowing scope", "error", err, "tenant_id", ac.TenantID, "operation", "courses.get")
		writeServerError(w)
		return
	}

	c, err := h.catalog.CourseByID(r.Context(), pred, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeNotFound(w)
			return
		}
		slog.Error("fetching course", "error", err, "tenant_id", ac.TenantID)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, courseResponse{ID: c.ID, ClassID: c.ClassID, Title: c.Title})
}

// GetLesson fetches one lesson; visibility follows the owning course.
func (h *Handlers) GetLesson(w http.ResponseWriter, r *http.Request, ac domain.AuthContext) {
	id := r.PathValue("id")
	if id == "" {
		writeBadRequest(w, "missing lesson id")
		return
	}

	pred, err := h.narrower.Narrow(r.Context(), ac.Principal)
	if err != nil {
		slog.Error("narrowing scope", "error", err, "tenant_id", ac.TenantID, "operation", "lessons.get")
		writeServerError(w)
		return
	}

	l, err := h.catalog.LessonByID(r.Context(), pred, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeNotFound(w)
			return
		}
		slog.Error("fetching lesson", "error", err, "tenant_id", ac.TenantID)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, lessonResponse{ID: l.ID, CourseID: l.CourseID, Title: l.Title, Body: l.Body})
}

// GetStudent fetches one student profile. Parents must hold a link for this
// specific student; a missing link is indistinguishable from a missing
// student.
func (h *Handlers) GetStudent(w http.ResponseWriter, r *http.Request, ac domain.AuthContext) {
	id := r.PathValue("id")
	if id == "" {
		writeBadRequest(w, "missing student id")
		return
	}

	ok, err := h.narrower.CanAccessStudent(r.Context(), ac.Principal, id)
	if err != nil {
		slog.Error("checking student access", "error", err, "tenant_id", ac.TenantID, "operation", "students.get")
		writeServerError(w)
		return
	}
	if !ok {
		writeNotFound(w)
		return
	}

	pred, err := h.narrower.Narrow(r.Context(), ac.Principal)
	if err != nil {
		slog.Error("narrowing scope", "error", err, "tenant_id", ac.TenantID, "operation", "students.get")
		writeServerError(w)
		return
	}

	st, err := h.catalog.StudentByID(r.Context(), pred, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeNotFound(w)
			return
		}
		slog.Error("fetching student", "error", err, "tenant_id", ac.TenantID)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, studentResponse{ID: st.ID, ClassID: st.ClassID, Name: st.Name})
}

// ListSchedule lists timetable entries for the classes the caller may see.
// The visible class-id set is computed first, in one pass, and applied as an
// IN-filter; entries are never fetched unscoped.
func (h *Handlers) ListSchedule(w http.ResponseWriter, r *http.Request, ac domain.AuthContext) {
	classIDs, err := h.narrower.VisibleClassIDs(r.Context(), ac.Principal)
	if err != nil {
		slog.Error("computing visible classes", "error", err, "tenant_id", ac.TenantID, "operation", "schedule.list")
		writeServerError(w)
		return
	}

	pred, err := h.narrower.Narrow(r.Context(), ac.Principal)
	if err != nil {
		slog.Error("narrowing scope", "error", err, "tenant_id", ac.TenantID, "operation", "schedule.list")
		writeServerError(w)
		return
	}

	entries, err := h.catalog.ListSchedule(r.Context(), pred, classIDs)
	if err != nil {
		slog.Error("listing schedule", "error", err, "tenant_id", ac.TenantID)
		writeServerError(w)
		return
	}

	out := make([]scheduleEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = scheduleEntryResponse{
			ID:       e.ID,
			ClassID:  e.ClassID,
			CourseID: e.CourseID,
			StartsAt: e.StartsAt,
			EndsAt:   e.EndsAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedule": out})
}

// CreateClass creates a class in the caller's tenant and emits an audit
// record.
func (h *Handlers) CreateClass(w http.ResponseWriter, r *http.Request, ac domain.AuthContext) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	class, err := h.catalog.CreateClass(r.Context(), domain.Class{
		TenantID: ac.TenantID,
		Name:     req.Name,
	})
	if err != nil {
		slog.Error("creating class", "error", err, "tenant_id", ac.TenantID)
		writeServerError(w)
		return
	}

	h.recordAudit(r, ac, "class.create", "class", class.ID, map[string]string{"name": class.Name})
	writeJSON(w, http.StatusCreated, map[string]string{"id": class.ID, "name": class.Name})
}

// CreateParentLink links a parent to a student within the caller's tenant
// and emits an audit record. The tenant id always comes from the
// AuthContext, never from the request body.
func (h *Handlers) CreateParentLink(w http.ResponseWriter, r *http.Request, ac domain.AuthContext) {
	var req struct {
		ParentUserID  string `json:"parent_user_id"`
		StudentUserID string `json:"student_user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ParentUserID == "" || req.StudentUserID == "" {
		writeBadRequest(w, "parent_user_id and student_user_id are required")
		return
	}

	link := domain.ParentLink{
		ParentUserID:  req.ParentUserID,
		StudentUserID: req.StudentUserID,
		TenantID:      ac.TenantID,
	}
	if err := h.catalog.CreateParentLink(r.Context(), link); err != nil {
		slog.Error("creating parent link", "error", err, "tenant_id", ac.TenantID)
		writeServerError(w)
		return
	}

	h.recordAudit(r, ac, "parent_link.create", "parent_link", req.StudentUserID, map[string]string{
		"parent_user_id": req.ParentUserID,
	})
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (h *Handlers) recordAudit(r *http.Request, ac domain.AuthContext, action, resourceType, resourceID string, metadata map[string]string) {
	if h.audit == nil {
		return
	}
	h.audit.Record(domain.AuditRecord{
		TenantID:     ac.TenantID,
		ActorID:      ac.UserID,
		ActorRole:    ac.Role,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		IPAddress:    remoteIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
