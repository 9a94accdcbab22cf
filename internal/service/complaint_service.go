package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/storage"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// AttachmentStore persists vetted attachments.
type AttachmentStore interface {
	Save(filename string, content []byte) (string, error)
	Remove(path string) error
}

// Upload is an attachment received with a submission.
type Upload struct {
	Filename string
	Content  []byte
}

// SubmitComplaintInput is the parsed submission form. OwnerID zero means the
// caller files for themselves.
type SubmitComplaintInput struct {
	OwnerID int64
	Fields  domain.ComplaintFields
	File    *Upload
}

// ComplaintService runs the submission workflow and complaint queries.
type ComplaintService struct {
	complaints        repository.ComplaintRepository
	users             repository.UserRepository
	scans             *ScanService
	store             AttachmentStore
	dispatcher        events.Dispatcher
	allowedExtensions []string
	logger            *zap.Logger
}

// ComplaintDependencies groups collaborators for NewComplaintService.
type ComplaintDependencies struct {
	Complaints        repository.ComplaintRepository
	Users             repository.UserRepository
	Scans             *ScanService
	Store             AttachmentStore
	Dispatcher        events.Dispatcher
	AllowedExtensions []string
	Logger            *zap.Logger
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := deps.AllowedExtensions
	if len(allowed) == 0 {
		allowed = []string{"pdf"}
	}
	return &ComplaintService{
		complaints:        deps.Complaints,
		users:             deps.Users,
		scans:             deps.Scans,
		store:             deps.Store,
		dispatcher:        deps.Dispatcher,
		allowedExtensions: allowed,
		logger:            logger,
	}
}

// Submit validates the form, vets the attachment and persists the complaint.
// Nothing is written unless the attachment, when present, came back clean.
func (s *ComplaintService) Submit(ctx context.Context, actor *domain.User, in SubmitComplaintInput) (*domain.Complaint, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	ownerID := in.OwnerID
	if ownerID == 0 {
		ownerID = actor.ID
	}
	fields := trimFields(in.Fields)

	missing := []string{}
	if ownerID <= 0 {
		missing = append(missing, "user_id")
	}
	if fields.Subject == "" {
		missing = append(missing, "subject")
	}
	if fields.Description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	if ownerID != actor.ID {
		if !actor.IsAdmin() {
			return nil, apperrors.NewForbidden("cannot submit complaints for another user")
		}
		if err := s.ensureUser(ctx, ownerID); err != nil {
			return nil, err
		}
	}

	var storedName string
	if in.File != nil && in.File.Filename != "" {
		storedName = storage.SanitizeFilename(in.File.Filename)
		if !storage.HasAllowedExtension(storedName, s.allowedExtensions) {
			return nil, apperrors.NewValidationError("file type not allowed", map[string]any{
				"allowed": s.allowedExtensions,
			})
		}
	}

	complaint := &domain.Complaint{UserID: ownerID, Text: fields.Text()}
	log := s.logger.With(zap.Int64("user_id", ownerID))

	if storedName == "" {
		if err := s.complaints.Create(ctx, complaint); err != nil {
			log.Error("complaint insert failed", zap.Error(err))
			return nil, apperrors.NewPersistenceError(err)
		}
		s.publishSubmitted(ctx, complaint, fields.Subject)
		return complaint, nil
	}

	outcome, err := s.scans.ScanFile(ctx, &ownerID, storedName, in.File.Content)
	if err != nil {
		return nil, err
	}
	if outcome.Verdict.IsMalicious() {
		log.Warn("attachment rejected",
			zap.String("file", storedName),
			zap.String("digest", outcome.Digest),
			zap.Int("detections", outcome.Verdict.MaliciousCount))
		s.publish(ctx, events.EventAttachmentRejected, ownerID, events.AttachmentRejectedPayload{
			FileName:     storedName,
			FileHash:     outcome.Digest,
			Detections:   outcome.Verdict.MaliciousCount,
			TotalEngines: outcome.Verdict.TotalEngines,
		})
		return nil, apperrors.NewMaliciousContent(outcome.Verdict.MaliciousCount, outcome.Verdict.TotalEngines)
	}

	path, err := s.store.Save(storedName, in.File.Content)
	if err != nil {
		log.Error("vetted attachment write failed", zap.Error(err))
		return nil, apperrors.NewPersistenceError(err)
	}
	complaint.Attachment = &domain.Attachment{Path: path, FileName: storedName, SHA256: outcome.Digest}

	if err := s.complaints.Create(ctx, complaint); err != nil {
		log.Error("complaint insert failed", zap.Error(err))
		if rmErr := s.store.Remove(path); rmErr != nil {
			log.Error("orphaned attachment left behind", zap.String("path", path), zap.Error(rmErr))
		}
		return nil, apperrors.NewPersistenceError(err)
	}

	s.publishSubmitted(ctx, complaint, fields.Subject)
	return complaint, nil
}

// ListForUser returns a user's complaints. Only the owner or an admin may read them.
func (s *ComplaintService) ListForUser(ctx context.Context, actor *domain.User, userID int64) ([]domain.Complaint, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.ID != userID && !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("cannot read another user's complaints")
	}
	complaints, err := s.complaints.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return complaints, nil
}

// ListAll pages through every complaint.
func (s *ComplaintService) ListAll(ctx context.Context, limit, offset int) ([]domain.Complaint, error) {
	limit, offset = normalizePage(limit, offset)
	complaints, err := s.complaints.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return complaints, nil
}

func (s *ComplaintService) ensureUser(ctx context.Context, id int64) error {
	if s.users == nil {
		return nil
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("unknown user_id", map[string]any{"user_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *ComplaintService) publishSubmitted(ctx context.Context, c *domain.Complaint, subject string) {
	s.publish(ctx, events.EventComplaintSubmitted, c.UserID, events.ComplaintSubmittedPayload{
		ComplaintID:   c.ID,
		Subject:       subject,
		HasAttachment: c.Attachment != nil,
	})
}

func (s *ComplaintService) publish(ctx context.Context, eventType events.EventType, userID int64, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

func trimFields(f domain.ComplaintFields) domain.ComplaintFields {
	return domain.ComplaintFields{
		Subject:     strings.TrimSpace(f.Subject),
		Date:        strings.TrimSpace(f.Date),
		Location:    strings.TrimSpace(f.Location),
		Description: strings.TrimSpace(f.Description),
		Witnesses:   strings.TrimSpace(f.Witnesses),
	}
}
