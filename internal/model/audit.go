package model

import "time"

// AuditLog is the path of the sandbox write trail. It is not a collection.
const AuditLog = "audit"

const (
	AuditSuccess = "success"
	AuditFailure = "failure"
)

// Audit actions.
const (
	AuditCreate         = "create"
	AuditUpdate         = "update"
	AuditDelete         = "delete"
	AuditToggleActive   = "toggle-active"
	AuditRefreshAge     = "refresh-age"
	AuditUploadDocument = "upload-document"
)

// AuditEntry is one write attempt against the sandbox, kept whether or not
// it succeeded.
type AuditEntry struct {
	ID         string    `json:"_id"`
	Action     string    `json:"action"`
	Collection string    `json:"collection"`
	RecordID   string    `json:"recordId,omitempty"`
	ActorID    string    `json:"actorId,omitempty"`
	ActorEmail string    `json:"actorEmail,omitempty"`
	ActorRole  string    `json:"actorRole,omitempty"`
	Status     string    `json:"status"`
	StatusCode int       `json:"statusCode"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
