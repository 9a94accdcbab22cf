package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintSubmitted EventType = "complaint_submitted"
	EventAttachmentRejected EventType = "attachment_rejected"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    int64       `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ComplaintSubmittedPayload payload.
type ComplaintSubmittedPayload struct {
	ComplaintID   int64  `json:"complaint_id"`
	Subject       string `json:"subject"`
	HasAttachment bool   `json:"has_attachment"`
}

// AttachmentRejectedPayload payload.
type AttachmentRejectedPayload struct {
	FileName     string `json:"file_name"`
	FileHash     string `json:"file_hash"`
	Detections   int    `json:"detections"`
	TotalEngines int    `json:"total_engines"`
}
