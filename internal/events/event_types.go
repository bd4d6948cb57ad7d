package events

import (
	"time"

	"github.com/spec-kit/medical-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered       EventType = "user_registered"
	EventUserBlocked          EventType = "user_blocked"
	EventUserUnblocked        EventType = "user_unblocked"
	EventUserDeleted          EventType = "user_deleted"
	EventRequestCreated       EventType = "request_created"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventFileAttached         EventType = "file_attached"
	EventFileDetached         EventType = "file_detached"
)

// AllEventTypes lists every type the portal publishes.
var AllEventTypes = []EventType{
	EventUserRegistered,
	EventUserBlocked,
	EventUserUnblocked,
	EventUserDeleted,
	EventRequestCreated,
	EventRequestStatusChanged,
	EventFileAttached,
	EventFileDetached,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type   domain.SubjectType `json:"type"`
	UserID *string            `json:"user_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserDeletedPayload payload.
type UserDeletedPayload struct {
	NationalID      string `json:"national_id"`
	RequestsRemoved int    `json:"requests_removed"`
	FilesRemoved    int    `json:"files_removed"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Type domain.RequestType `json:"type"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
}

// FileAttachedPayload payload.
type FileAttachedPayload struct {
	FileName   string `json:"file_name"`
	Size       int64  `json:"size"`
	UploadedBy string `json:"uploaded_by,omitempty"`
}
