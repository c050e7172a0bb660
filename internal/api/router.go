package api

import (
	"net/http"

	"classhub/internal/authz/middleware"
	"classhub/internal/domain"
)

// NewRouter registers every protected operation with its allowed-role set.
// This table is the only configuration surface of the authorization core:
// each route declares who may call it, and the guard enforces the rest.
func NewRouter(guard *middleware.Guard, h *Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	staff := []domain.Role{domain.RoleAdmin, domain.RoleTeacher}
	courseRoles := []domain.Role{domain.RoleAdmin, domain.RoleTeacher, domain.RoleStudent}
	adminOnly := []domain.Role{domain.RoleAdmin}

	mux.Handle("GET /v1/courses", guard.Protect("courses.list", courseRoles, h.ListCourses))
	mux.Handle("GET /v1/courses/{id}", guard.Protect("courses.get", courseRoles, h.GetCourse))
	mux.Handle("GET /v1/lessons/{id}", guard.Protect("lessons.get", courseRoles, h.GetLesson))
	mux.Handle("GET /v1/students/{id}", guard.Protect("students.get",
		append(staff, domain.RoleParent), h.GetStudent))
	mux.Handle("GET /v1/schedule", guard.Protect("schedule.list",
		[]domain.Role{domain.RoleStudent, domain.RoleParent}, h.ListSchedule))
	mux.Handle("POST /v1/classes", guard.Protect("classes.create", adminOnly, h.CreateClass))
	mux.Handle("POST /v1/parent-links", guard.Protect("parent_links.create", adminOnly, h.CreateParentLink))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	return mux
}
