// Package memory provides an in-memory store used by tests and the dev mode
// of cmd/classhub. It enforces the same tenant and scope rules as the
// postgres adapter so guard behavior is identical across backends.
package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"classhub/internal/authz"
	"classhub/internal/domain"
)

var errMissingTenant = errors.New("scope predicate missing tenant id")

// Store holds all records behind a single mutex. Reads vastly outnumber
// writes in the authorization path, so an RWMutex keeps concurrent requests
// cheap.
type Store struct {
	mu sync.RWMutex

	usersBySubject map[string]authz.UserRecord
	enrollments    []domain.Enrollment
	parentLinks    []domain.ParentLink
	classes        map[string]domain.Class
	courses        map[string]domain.Course
	lessons        map[string]domain.Lesson
	students       map[string]domain.Student
	schedule       []domain.ScheduleEntry
	auditLog       []domain.AuditRecord
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		usersBySubject: make(map[string]authz.UserRecord),
		classes:        make(map[string]domain.Class),
		courses:        make(map[string]domain.Course),
		lessons:        make(map[string]domain.Lesson),
		students:       make(map[string]domain.Student),
	}
}

// Seed helpers. Not part of any port; used by tests and dev-mode wiring.

func (s *Store) SeedUser(rec authz.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersBySubject[rec.ExternalSubjectID] = rec
}

func (s *Store) SeedClass(c domain.Class) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[c.ID] = c
}

func (s *Store) SeedEnrollment(e domain.Enrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrollments = append(s.enrollments, e)
}

func (s *Store) SeedParentLink(l domain.ParentLink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parentLinks = append(s.parentLinks, l)
}

func (s *Store) SeedCourse(c domain.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[c.ID] = c
}

func (s *Store) SeedLesson(l domain.Lesson) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lessons[l.ID] = l
}

func (s *Store) SeedStudent(st domain.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[st.ID] = st
}

func (s *Store) SeedScheduleEntry(e domain.ScheduleEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule = append(s.schedule, e)
}

// Directory implementation.

func (s *Store) UserBySubject(_ context.Context, externalSubjectID string) (authz.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.usersBySubject[externalSubjectID]
	if !ok {
		return authz.UserRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

func (s *Store) ClassIDsForStudent(_ context.Context, tenantID, studentUserID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, e := range s.enrollments {
		if e.TenantID == tenantID && e.StudentUserID == studentUserID {
			ids = append(ids, e.ClassID)
		}
	}
	return ids, nil
}

func (s *Store) LinkedStudentIDs(_ context.Context, tenantID, parentUserID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, l := range s.parentLinks {
		if l.TenantID == tenantID && l.ParentUserID == parentUserID {
			ids = append(ids, l.StudentUserID)
		}
	}
	return ids, nil
}

// Catalog implementation.

func (s *Store) ListCourses(_ context.Context, pred domain.ScopePredicate) ([]domain.Course, error) {
	if pred.TenantID == "" {
		return nil, errMissingTenant
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Course
	for _, c := range s.courses {
		if courseVisible(c, pred) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CourseByID(_ context.Context, pred domain.ScopePredicate, id string) (domain.Course, error) {
	if pred.TenantID == "" {
		return domain.Course{}, errMissingTenant
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok || !courseVisible(c, pred) {
		return domain.Course{}, domain.ErrNotFound
	}
	return c, nil
}

func (s *Store) LessonByID(_ context.Context, pred domain.ScopePredicate, id string) (domain.Lesson, error) {
	if pred.TenantID == "" {
		return domain.Lesson{}, errMissingTenant
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lessons[id]
	if !ok || l.TenantID != pred.TenantID {
		return domain.Lesson{}, domain.ErrNotFound
	}
	course, ok := s.courses[l.CourseID]
	if !ok || !courseVisible(course, pred) {
		return domain.Lesson{}, domain.ErrNotFound
	}
	return l, nil
}

func (s *Store) StudentByID(_ context.Context, pred domain.ScopePredicate, id string) (domain.Student, error) {
	if pred.TenantID == "" {
		return domain.Student{}, errMissingTenant
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.students[id]
	if !ok || st.TenantID != pred.TenantID {
		return domain.Student{}, domain.ErrNotFound
	}

	switch pred.Kind {
	case domain.ScopeTenantOnly:
		return st, nil
	case domain.ScopeOwnedByUser:
		// A teacher sees students in classes they teach a course for.
		if id == pred.OwnerUserID || s.teachesClassLocked(pred.TenantID, pred.OwnerUserID, st.ClassID) {
			return st, nil
		}
	case domain.ScopeLinkedToUser:
		if id == pred.OwnerUserID || slices.Contains(pred.VisibleIDs, id) {
			return st, nil
		}
	}
	return domain.Student{}, domain.ErrNotFound
}

func (s *Store) ListSchedule(_ context.Context, pred domain.ScopePredicate, classIDs []string) ([]domain.ScheduleEntry, error) {
	if pred.TenantID == "" {
		return nil, errMissingTenant
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ScheduleEntry
	for _, e := range s.schedule {
		if e.TenantID != pred.TenantID {
			continue
		}
		if pred.Kind != domain.ScopeTenantOnly && !slices.Contains(classIDs, e.ClassID) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (s *Store) CreateClass(_ context.Context, class domain.Class) (domain.Class, error) {
	if class.TenantID == "" {
		return domain.Class{}, errMissingTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if class.ID == "" {
		class.ID = uuid.New().String()
	}
	s.classes[class.ID] = class
	return class, nil
}

func (s *Store) CreateParentLink(_ context.Context, link domain.ParentLink) error {
	if link.TenantID == "" {
		return errMissingTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.parentLinks = append(s.parentLinks, link)
	return nil
}

// AuditWriter implementation.

func (s *Store) WriteAudit(_ context.Context, rec domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLog = append(s.auditLog, rec)
	return nil
}

// AuditRecords returns a copy of the audit log (for testing).
func (s *Store) AuditRecords() []domain.AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.auditLog)
}

// courseVisible applies the scope predicate to one course. The tenant check
// comes first; a cross-tenant course is invisible to every role.
func courseVisible(c domain.Course, pred domain.ScopePredicate) bool {
	if c.TenantID != pred.TenantID {
		return false
	}
	switch pred.Kind {
	case domain.ScopeTenantOnly:
		return true
	case domain.ScopeOwnedByUser:
		return c.OwnerTeacherID == pred.OwnerUserID
	case domain.ScopeLinkedToUser:
		return slices.Contains(pred.VisibleIDs, c.ClassID)
	default:
		return false
	}
}

// teachesClassLocked reports whether the teacher owns a course mapped to the
// class. Callers hold s.mu.
func (s *Store) teachesClassLocked(tenantID, teacherUserID, classID string) bool {
	for _, c := range s.courses {
		if c.TenantID == tenantID && c.OwnerTeacherID == teacherUserID && c.ClassID == classID {
			return true
		}
	}
	return false
}
