package testutil

import (
	"time"

	"classhub/internal/authz"
	"classhub/internal/authz/adapter/memory"
	"classhub/internal/domain"
)

// Fixture ids shared by unit and integration tests. Two tenants; tenant 1
// has one admin, two teachers with one course each, two students in
// different classes, and a parent linked only to student 1.
const (
	Tenant1 = "tenant-1"
	Tenant2 = "tenant-2"

	Admin1   = "admin-1"
	Teacher1 = "teacher-1"
	Teacher2 = "teacher-2"
	Student1 = "student-1"
	Student2 = "student-2"
	Parent1  = "parent-1"
	Parent2  = "parent-2" // no parent links

	Class1 = "class-1"
	Class2 = "class-2"

	Course1 = "course-1" // teacher-1, class-1
	Course2 = "course-2" // teacher-2, class-2

	Lesson1 = "lesson-1" // course-1
	Lesson2 = "lesson-2" // course-2

	AdminT2   = "admin-t2"
	StudentT2 = "student-t2"
	CourseT2  = "course-t2"
	LessonT2  = "lesson-t2"
	ClassT2   = "class-t2"
)

// Subject returns the external subject id seeded for a fixture user.
func Subject(userID string) string {
	return "sub-" + userID
}

// SeedStore fills a memory store with the shared fixture data.
func SeedStore(store *memory.Store) {
	users := []struct {
		id     string
		tenant string
		roles  []domain.Role
	}{
		{Admin1, Tenant1, []domain.Role{domain.RoleAdmin}},
		{Teacher1, Tenant1, []domain.Role{domain.RoleTeacher}},
		{Teacher2, Tenant1, []domain.Role{domain.RoleTeacher}},
		{Student1, Tenant1, []domain.Role{domain.RoleStudent}},
		{Student2, Tenant1, []domain.Role{domain.RoleStudent}},
		{Parent1, Tenant1, []domain.Role{domain.RoleParent}},
		{Parent2, Tenant1, []domain.Role{domain.RoleParent}},
		{AdminT2, Tenant2, []domain.Role{domain.RoleAdmin}},
		{StudentT2, Tenant2, []domain.Role{domain.RoleStudent}},
	}
	for _, u := range users {
		store.SeedUser(authz.UserRecord{
			ID:                u.id,
			TenantID:          u.tenant,
			ExternalSubjectID: Subject(u.id),
			Roles:             u.roles,
		})
	}

	store.SeedClass(domain.Class{ID: Class1, TenantID: Tenant1, Name: "5A"})
	store.SeedClass(domain.Class{ID: Class2, TenantID: Tenant1, Name: "5B"})
	store.SeedClass(domain.Class{ID: ClassT2, TenantID: Tenant2, Name: "6A"})

	store.SeedEnrollment(domain.Enrollment{StudentUserID: Student1, ClassID: Class1, TenantID: Tenant1})
	store.SeedEnrollment(domain.Enrollment{StudentUserID: Student2, ClassID: Class2, TenantID: Tenant1})
	store.SeedEnrollment(domain.Enrollment{StudentUserID: StudentT2, ClassID: ClassT2, TenantID: Tenant2})

	store.SeedStudent(domain.Student{ID: Student1, TenantID: Tenant1, ClassID: Class1, Name: "Sam Student"})
	store.SeedStudent(domain.Student{ID: Student2, TenantID: Tenant1, ClassID: Class2, Name: "Sue Student"})
	store.SeedStudent(domain.Student{ID: StudentT2, TenantID: Tenant2, ClassID: ClassT2, Name: "Stan Student"})

	store.SeedParentLink(domain.ParentLink{ParentUserID: Parent1, StudentUserID: Student1, TenantID: Tenant1})

	store.SeedCourse(domain.Course{ID: Course1, TenantID: Tenant1, ClassID: Class1, OwnerTeacherID: Teacher1, Title: "Algebra"})
	store.SeedCourse(domain.Course{ID: Course2, TenantID: Tenant1, ClassID: Class2, OwnerTeacherID: Teacher2, Title: "Biology"})
	store.SeedCourse(domain.Course{ID: CourseT2, TenantID: Tenant2, ClassID: ClassT2, OwnerTeacherID: "teacher-t2", Title: "Chemistry"})

	store.SeedLesson(domain.Lesson{ID: Lesson1, TenantID: Tenant1, CourseID: Course1, Title: "Linear equations", Body: "ax + b = 0"})
	store.SeedLesson(domain.Lesson{ID: Lesson2, TenantID: Tenant1, CourseID: Course2, Title: "Cells", Body: "Mitochondria"})
	store.SeedLesson(domain.Lesson{ID: LessonT2, TenantID: Tenant2, CourseID: CourseT2, Title: "Atoms", Body: "Protons"})

	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store.SeedScheduleEntry(domain.ScheduleEntry{
		ID: "entry-1", TenantID: Tenant1, ClassID: Class1, CourseID: Course1,
		StartsAt: monday, EndsAt: monday.Add(time.Hour),
	})
	store.SeedScheduleEntry(domain.ScheduleEntry{
		ID: "entry-2", TenantID: Tenant1, ClassID: Class2, CourseID: Course2,
		StartsAt: monday.Add(time.Hour), EndsAt: monday.Add(2 * time.Hour),
	})
}

// NewSeededStore creates a memory store pre-filled with the shared fixture.
func NewSeededStore() *memory.Store {
	store := memory.NewStore()
	SeedStore(store)
	return store
}
