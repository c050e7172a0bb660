package postgres

import "time"

type UserModel struct {
	ID                string    `gorm:"type:uuid;primaryKey"`
	TenantID          string    `gorm:"type:uuid;index"`
	ExternalSubjectID string    `gorm:"uniqueIndex;not null"`
	Name              string    `gorm:"not null"`
	CreatedAt         time.Time `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}

type RoleAssignmentModel struct {
	ID       string `gorm:"type:uuid;primaryKey"`
	UserID   string `gorm:"type:uuid;index;not null"`
	TenantID string `gorm:"type:uuid;index;not null"`
	Role     string `gorm:"not null"`
}

func (RoleAssignmentModel) TableName() string {
	return "role_assignments"
}

type TenantModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Slug      string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (TenantModel) TableName() string {
	return "tenants"
}

type ClassModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	TenantID  string    `gorm:"type:uuid;index;not null"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (ClassModel) TableName() string {
	return "classes"
}

type EnrollmentModel struct {
	StudentUserID string `gorm:"type:uuid;primaryKey"`
	ClassID       string `gorm:"type:uuid;primaryKey"`
	TenantID      string `gorm:"type:uuid;index;not null"`
}

func (EnrollmentModel) TableName() string {
	return "enrollments"
}

type ParentLinkModel struct {
	ParentUserID  string `gorm:"type:uuid;primaryKey"`
	StudentUserID string `gorm:"type:uuid;primaryKey"`
	TenantID      string `gorm:"type:uuid;index;not null"`
}

func (ParentLinkModel) TableName() string {
	return "parent_links"
}

type CourseModel struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	TenantID       string    `gorm:"type:uuid;index;not null"`
	ClassID        string    `gorm:"type:uuid;index;not null"`
	OwnerTeacherID string    `gorm:"type:uuid;index;not null"`
	Title          string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (CourseModel) TableName() string {
	return "courses"
}

type LessonModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	TenantID  string    `gorm:"type:uuid;index;not null"`
	CourseID  string    `gorm:"type:uuid;index;not null"`
	Title     string    `gorm:"not null"`
	Body      string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
}

func (LessonModel) TableName() string {
	return "lessons"
}

type ScheduleEntryModel struct {
	ID       string    `gorm:"type:uuid;primaryKey"`
	TenantID string    `gorm:"type:uuid;index;not null"`
	ClassID  string    `gorm:"type:uuid;index;not null"`
	CourseID string    `gorm:"type:uuid;not null"`
	StartsAt time.Time `gorm:"not null"`
	EndsAt   time.Time `gorm:"not null"`
}

func (ScheduleEntryModel) TableName() string {
	return "schedule_entries"
}

type AuditLogModel struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	TenantID     string    `gorm:"type:uuid;index;not null"`
	ActorID      string    `gorm:"type:uuid;index;not null"`
	ActorRole    string    `gorm:"not null"`
	Action       string    `gorm:"not null"`
	ResourceType string    `gorm:"not null"`
	ResourceID   string    `gorm:"index"`
	Metadata     []byte    `gorm:"type:jsonb"`
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time `gorm:"index;not null"`
}

func (AuditLogModel) TableName() string {
	return "audit_logs"
}
