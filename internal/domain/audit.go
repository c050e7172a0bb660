package domain

import "time"

// AuditRecord describes a sensitive mutation for the audit trail. IPAddress
// and UserAgent are captured at the request boundary and are never included
// in any read-back response.
type AuditRecord struct {
	ID           string
	TenantID     string
	ActorID      string
	ActorRole    Role
	Action       string
	ResourceType string
	ResourceID   string
	Metadata     map[string]string
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
}
