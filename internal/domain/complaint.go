package domain

import (
	"fmt"
	"time"
)

// ComplaintFields are the free-text parts of a submission.
type ComplaintFields struct {
	Subject     string
	Date        string
	Location    string
	Description string
	Witnesses   string
}

// Text flattens the fields into the stored complaint body.
func (f ComplaintFields) Text() string {
	return fmt.Sprintf("Subject: %s\nDate: %s\nLocation: %s\nDescription: %s\nWitnesses: %s",
		f.Subject, f.Date, f.Location, f.Description, f.Witnesses)
}

// Attachment references a file held in vetted storage.
type Attachment struct {
	Path     string
	FileName string
	SHA256   string
}

// Complaint is the aggregate persisted for each accepted submission.
type Complaint struct {
	ID         int64
	UserID     int64
	Text       string
	Attachment *Attachment
	CreatedAt  time.Time
}
