package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ComplaintResponse is one complaint as returned to clients.
type ComplaintResponse struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	ComplaintText  string    `json:"complaint_text"`
	AttachmentName string    `json:"attachment_name,omitempty"`
	AttachmentHash string    `json:"attachment_sha256,omitempty"`
	HasAttachment  bool      `json:"has_attachment"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewComplaintResponse maps a domain complaint. The storage path stays server side.
func NewComplaintResponse(c *domain.Complaint) ComplaintResponse {
	resp := ComplaintResponse{
		ID:            c.ID,
		UserID:        c.UserID,
		ComplaintText: c.Text,
		CreatedAt:     c.CreatedAt,
	}
	if c.Attachment != nil {
		resp.HasAttachment = true
		resp.AttachmentName = c.Attachment.FileName
		resp.AttachmentHash = c.Attachment.SHA256
	}
	return resp
}

// NewComplaintList maps a slice of complaints.
func NewComplaintList(items []domain.Complaint) []ComplaintResponse {
	out := make([]ComplaintResponse, 0, len(items))
	for i := range items {
		out = append(out, NewComplaintResponse(&items[i]))
	}
	return out
}
