// Package postgres implements the directory, catalog, and audit-writer ports
// on PostgreSQL via GORM. Every query is tenant-scoped; the scope predicate
// is translated into WHERE clauses, never applied after the fetch.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"classhub/internal/authz"
	"classhub/internal/domain"
)

var errMissingTenant = errors.New("scope predicate missing tenant id")

// Store is a GORM-backed implementation of the store ports.
type Store struct {
	db *gorm.DB
}

// Open connects to PostgreSQL with the given DSN.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing GORM handle (used by tests against other drivers).
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&TenantModel{},
		&UserModel{},
		&RoleAssignmentModel{},
		&ClassModel{},
		&EnrollmentModel{},
		&ParentLinkModel{},
		&CourseModel{},
		&LessonModel{},
		&ScheduleEntryModel{},
		&AuditLogModel{},
	)
}

// Directory implementation.

func (s *Store) UserBySubject(ctx context.Context, externalSubjectID string) (authz.UserRecord, error) {
	var user UserModel
	err := s.db.WithContext(ctx).
		Where("external_subject_id = ?", externalSubjectID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authz.UserRecord{}, domain.ErrNotFound
		}
		return authz.UserRecord{}, fmt.Errorf("querying user by subject: %w", err)
	}

	var roleNames []string
	err = s.db.WithContext(ctx).
		Model(&RoleAssignmentModel{}).
		Where("user_id = ?", user.ID).
		Pluck("role", &roleNames).Error
	if err != nil {
		return authz.UserRecord{}, fmt.Errorf("querying role assignments: %w", err)
	}

	roles := make([]domain.Role, 0, len(roleNames))
	for _, name := range roleNames {
		r, err := domain.ParseRole(name)
		if err != nil {
			// An unparseable assignment is dropped, not fatal: the remaining
			// assignments still resolve and the row is flagged for cleanup.
			slog.Warn("skipping unknown role assignment", "user_id", user.ID, "role", name)
			continue
		}
		roles = append(roles, r)
	}

	return authz.UserRecord{
		ID:                user.ID,
		TenantID:          user.TenantID,
		ExternalSubjectID: user.ExternalSubjectID,
		Roles:             roles,
	}, nil
}

func (s *Store) ClassIDsForStudent(ctx context.Context, tenantID, studentUserID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&EnrollmentModel{}).
		Where("tenant_id = ? AND student_user_id = ?", tenantID, studentUserID).
		Pluck("class_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("querying enrollments: %w", err)
	}
	return ids, nil
}

func (s *Store) LinkedStudentIDs(ctx context.Context, tenantID, parentUserID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&ParentLinkModel{}).
		Where("tenant_id = ? AND parent_user_id = ?", tenantID, parentUserID).
		Pluck("student_user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("querying parent links: %w", err)
	}
	return ids, nil
}

// Catalog implementation.

func (s *Store) ListCourses(ctx context.Context, pred domain.ScopePredicate) ([]domain.Course, error) {
	q, err := s.courseQuery(ctx, pred)
	if err != nil {
		return nil, err
	}

	var models []CourseModel
	if err := q.Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}

	out := make([]domain.Course, len(models))
	for i, m := range models {
		out[i] = courseFromModel(m)
	}
	return out, nil
}

func (s *Store) CourseByID(ctx context.Context, pred domain.ScopePredicate, id string) (domain.Course, error) {
	q, err := s.courseQuery(ctx, pred)
	if err != nil {
		return domain.Course{}, err
	}

	var m CourseModel
	if err := q.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Course{}, domain.ErrNotFound
		}
		return domain.Course{}, fmt.Errorf("querying course: %w", err)
	}
	return courseFromModel(m), nil
}

func (s *Store) LessonByID(ctx context.Context, pred domain.ScopePredicate, id string) (domain.Lesson, error) {
	if pred.TenantID == "" {
		return domain.Lesson{}, errMissingTenant
	}

	var m LessonModel
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", pred.TenantID, id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Lesson{}, domain.ErrNotFound
		}
		return domain.Lesson{}, fmt.Errorf("querying lesson: %w", err)
	}

	// The lesson's visibility follows its course's.
	if _, err := s.CourseByID(ctx, pred, m.CourseID); err != nil {
		return domain.Lesson{}, err
	}

	return domain.Lesson{
		ID:       m.ID,
		TenantID: m.TenantID,
		CourseID: m.CourseID,
		Title:    m.Title,
		Body:     m.Body,
	}, nil
}

func (s *Store) StudentByID(ctx context.Context, pred domain.ScopePredicate, id string) (domain.Student, error) {
	if pred.TenantID == "" {
		return domain.Student{}, errMissingTenant
	}

	var user UserModel
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", pred.TenantID, id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Student{}, domain.ErrNotFound
		}
		return domain.Student{}, fmt.Errorf("querying student: %w", err)
	}

	var classID string
	var classIDs []string
	if err := s.db.WithContext(ctx).
		Model(&EnrollmentModel{}).
		Where("tenant_id = ? AND student_user_id = ?", pred.TenantID, id).
		Limit(1).
		Pluck("class_id", &classIDs).Error; err != nil {
		return domain.Student{}, fmt.Errorf("querying enrollment: %w", err)
	}
	if len(classIDs) > 0 {
		classID = classIDs[0]
	}

	visible := false
	switch pred.Kind {
	case domain.ScopeTenantOnly:
		visible = true
	case domain.ScopeOwnedByUser:
		if id == pred.OwnerUserID {
			visible = true
		} else if classID != "" {
			// A teacher sees students in classes they teach a course for.
			var n int64
			err := s.db.WithContext(ctx).
				Model(&CourseModel{}).
				Where("tenant_id = ? AND owner_teacher_id = ? AND class_id = ?",
					pred.TenantID, pred.OwnerUserID, classID).
				Count(&n).Error
			if err != nil {
				return domain.Student{}, fmt.Errorf("checking teacher ownership: %w", err)
			}
			visible = n > 0
		}
	case domain.ScopeLinkedToUser:
		visible = id == pred.OwnerUserID || slices.Contains(pred.VisibleIDs, id)
	}
	if !visible {
		return domain.Student{}, domain.ErrNotFound
	}

	return domain.Student{
		ID:       user.ID,
		TenantID: user.TenantID,
		ClassID:  classID,
		Name:     user.Name,
	}, nil
}

func (s *Store) ListSchedule(ctx context.Context, pred domain.ScopePredicate, classIDs []string) ([]domain.ScheduleEntry, error) {
	if pred.TenantID == "" {
		return nil, errMissingTenant
	}

	q := s.db.WithContext(ctx).
		Model(&ScheduleEntryModel{}).
		Where("tenant_id = ?", pred.TenantID)
	if pred.Kind != domain.ScopeTenantOnly {
		if len(classIDs) == 0 {
			return nil, nil
		}
		q = q.Where("class_id IN ?", classIDs)
	}

	var models []ScheduleEntryModel
	if err := q.Order("starts_at").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing schedule: %w", err)
	}

	out := make([]domain.ScheduleEntry, len(models))
	for i, m := range models {
		out[i] = domain.ScheduleEntry{
			ID:       m.ID,
			TenantID: m.TenantID,
			ClassID:  m.ClassID,
			CourseID: m.CourseID,
			StartsAt: m.StartsAt,
			EndsAt:   m.EndsAt,
		}
	}
	return out, nil
}

func (s *Store) CreateClass(ctx context.Context, class domain.Class) (domain.Class, error) {
	if class.TenantID == "" {
		return domain.Class{}, errMissingTenant
	}
	if class.ID == "" {
		class.ID = uuid.New().String()
	}

	m := ClassModel{
		ID:        class.ID,
		TenantID:  class.TenantID,
		Name:      class.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Class{}, fmt.Errorf("creating class: %w", err)
	}
	return class, nil
}

func (s *Store) CreateParentLink(ctx context.Context, link domain.ParentLink) error {
	if link.TenantID == "" {
		return errMissingTenant
	}

	m := ParentLinkModel{
		ParentUserID:  link.ParentUserID,
		StudentUserID: link.StudentUserID,
		TenantID:      link.TenantID,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("creating parent link: %w", err)
	}
	return nil
}

// AuditWriter implementation.

func (s *Store) WriteAudit(ctx context.Context, rec domain.AuditRecord) error {
	var metadata []byte
	if len(rec.Metadata) > 0 {
		b, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("encoding audit metadata: %w", err)
		}
		metadata = b
	}

	m := AuditLogModel{
		ID:           rec.ID,
		TenantID:     rec.TenantID,
		ActorID:      rec.ActorID,
		ActorRole:    rec.ActorRole.String(),
		Action:       rec.Action,
		ResourceType: rec.ResourceType,
		ResourceID:   rec.ResourceID,
		Metadata:     metadata,
		IPAddress:    rec.IPAddress,
		UserAgent:    rec.UserAgent,
		CreatedAt:    rec.CreatedAt,
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("writing audit record: %w", err)
	}
	return nil
}

// courseQuery builds the scoped base query for courses. The tenant filter is
// unconditional; ownership and linkage clauses follow the predicate kind.
func (s *Store) courseQuery(ctx context.Context, pred domain.ScopePredicate) (*gorm.DB, error) {
	if pred.TenantID == "" {
		return nil, errMissingTenant
	}

	q := s.db.WithContext(ctx).
		Model(&CourseModel{}).
		Where("tenant_id = ?", pred.TenantID)

	switch pred.Kind {
	case domain.ScopeTenantOnly:
		// tenant filter only
	case domain.ScopeOwnedByUser:
		q = q.Where("owner_teacher_id = ?", pred.OwnerUserID)
	case domain.ScopeLinkedToUser:
		if len(pred.VisibleIDs) == 0 {
			q = q.Where("1 = 0")
		} else {
			q = q.Where("class_id IN ?", pred.VisibleIDs)
		}
	default:
		return nil, fmt.Errorf("unsupported scope kind %s", pred.Kind)
	}
	return q, nil
}

func courseFromModel(m CourseModel) domain.Course {
	return domain.Course{
		ID:             m.ID,
		TenantID:       m.TenantID,
		ClassID:        m.ClassID,
		OwnerTeacherID: m.OwnerTeacherID,
		Title:          m.Title,
	}
}
