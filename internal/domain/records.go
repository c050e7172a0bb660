package domain

import "time"

// Tenant is an isolated organization. The authorization core references
// tenants by id only and never creates or mutates them.
type Tenant struct {
	ID   string
	Slug string
	Name string
}

// ParentLink ties a parent to a student within one tenant. The scope narrower
// consults these rows to decide which students a parent may see.
type ParentLink struct {
	ParentUserID  string
	StudentUserID string
	TenantID      string
}

// Class is a group of students taught together.
type Class struct {
	ID       string
	TenantID string
	Name     string
}

// Enrollment places a student in a class.
type Enrollment struct {
	StudentUserID string
	ClassID       string
	TenantID      string
}

// Course is teaching material owned by one teacher and mapped to a class.
type Course struct {
	ID             string
	TenantID       string
	ClassID        string
	OwnerTeacherID string
	Title          string
}

// Lesson is a unit of a course. Its visibility follows the course's.
type Lesson struct {
	ID       string
	TenantID string
	CourseID string
	Title    string
	Body     string
}

// Student is the profile view of a student user.
type Student struct {
	ID       string
	TenantID string
	ClassID  string
	Name     string
}

// ScheduleEntry is one slot of a class timetable.
type ScheduleEntry struct {
	ID       string
	TenantID string
	ClassID  string
	CourseID string
	StartsAt time.Time
	EndsAt   time.Time
}
