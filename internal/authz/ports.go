package authz

import (
	"context"
	"net/http"

	"classhub/internal/domain"
)

// SessionVerifier extracts a verified external subject id from an inbound
// request (session cookie or bearer header). It performs no business logic;
// signature verification is its whole job.
type SessionVerifier interface {
	// Subject returns the verified external subject id, or
	// domain.ErrUnauthenticated when the request carries no valid session.
	Subject(ctx context.Context, r *http.Request) (string, error)
}

// UserRecord is the directory's view of a domain user: the raw material the
// principal loader turns into a Principal.
type UserRecord struct {
	ID                string
	TenantID          string
	ExternalSubjectID string
	Roles             []domain.Role
}

// Directory is the read-only store surface the authorization core needs:
// principal lookup plus the foreign-id set queries behind scope narrowing.
type Directory interface {
	// UserBySubject returns the domain user provisioned for an external
	// subject id, or domain.ErrNotFound when no account exists.
	UserBySubject(ctx context.Context, externalSubjectID string) (UserRecord, error)

	// ClassIDsForStudent returns the class ids a student is enrolled in,
	// scoped to the tenant, in a single query.
	ClassIDsForStudent(ctx context.Context, tenantID, studentUserID string) ([]string, error)

	// LinkedStudentIDs returns the student ids linked to a parent, scoped to
	// the tenant, in a single query.
	LinkedStudentIDs(ctx context.Context, tenantID, parentUserID string) ([]string, error)
}

// Catalog is the store surface of the example call sites. Every method takes
// a ScopePredicate; implementations must refuse a predicate with an empty
// tenant id and must return domain.ErrNotFound for out-of-scope single
// fetches, indistinguishable from genuine absence.
type Catalog interface {
	ListCourses(ctx context.Context, pred domain.ScopePredicate) ([]domain.Course, error)
	CourseByID(ctx context.Context, pred domain.ScopePredicate, id string) (domain.Course, error)
	LessonByID(ctx context.Context, pred domain.ScopePredicate, id string) (domain.Lesson, error)
	StudentByID(ctx context.Context, pred domain.ScopePredicate, id string) (domain.Student, error)
	ListSchedule(ctx context.Context, pred domain.ScopePredicate, classIDs []string) ([]domain.ScheduleEntry, error)
	CreateClass(ctx context.Context, class domain.Class) (domain.Class, error)
	CreateParentLink(ctx context.Context, link domain.ParentLink) error
}

// AuditWriter persists audit records. Implemented by the store adapters and
// consumed by the asynchronous audit sink, never directly by handlers.
type AuditWriter interface {
	WriteAudit(ctx context.Context, rec domain.AuditRecord) error
}

// RateLimiter decides whether a request identified by key should be allowed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	RetryAfter int // seconds until next token available; 0 if allowed
}

// StatusWriter wraps http.ResponseWriter to capture the status code.
type StatusWriter struct {
	http.ResponseWriter
	Code int
}

func (sw *StatusWriter) WriteHeader(code int) {
	sw.Code = code
	sw.ResponseWriter.WriteHeader(code)
}

// AuthContextFromContext extracts the resolved AuthContext from a request
// context. Present only after the guard has dispatched; used by logging, not
// by handlers (handlers receive the AuthContext explicitly).
func AuthContextFromContext(ctx context.Context) (domain.AuthContext, bool) {
	ac, ok := ctx.Value(authContextKey{}).(domain.AuthContext)
	return ac, ok
}

// ContextWithAuthContext stores the resolved AuthContext in the context.
func ContextWithAuthContext(ctx context.Context, ac domain.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, ac)
}

type authContextKey struct{}

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextWithRequestID stores the request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

type requestIDKey struct{}
