package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

const attachmentField = "file"

// ComplaintsHandler serves complaint submission and history.
type ComplaintsHandler struct {
	service *service.ComplaintService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaintService *service.ComplaintService) *ComplaintsHandler {
	return &ComplaintsHandler{service: complaintService}
}

// Submit POST /api/complaints.
func (h *ComplaintsHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}

	var ownerID int64
	if raw := strings.TrimSpace(formValue(c, "user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return apperrors.NewValidationError("invalid user_id", nil)
		}
		ownerID = id
	}

	upload, err := readUpload(c)
	if err != nil {
		return err
	}

	complaint, err := h.service.Submit(c.UserContext(), principal.User, service.SubmitComplaintInput{
		OwnerID: ownerID,
		Fields: domain.ComplaintFields{
			Subject:     formValue(c, "subject"),
			Date:        formValue(c, "date"),
			Location:    formValue(c, "location"),
			Description: formValue(c, "description"),
			Witnesses:   formValue(c, "witnesses"),
		},
		File: upload,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "complaint submitted successfully",
		"data":    dto.NewComplaintResponse(complaint),
	})
}

// MyComplaints GET /api/complaints/my-complaints.
func (h *ComplaintsHandler) MyComplaints(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	complaints, err := h.service.ListForUser(c.UserContext(), principal.User, principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintList(complaints)})
}

// UserComplaints GET /api/complaints/user/:id.
func (h *ComplaintsHandler) UserComplaints(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || userID <= 0 {
		return apperrors.NewValidationError("invalid user id", nil)
	}
	complaints, err := h.service.ListForUser(c.UserContext(), principal.User, userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintList(complaints)})
}

// ListAll GET /api/complaints.
func (h *ComplaintsHandler) ListAll(c *fiber.Ctx) error {
	complaints, err := h.service.ListAll(c.UserContext(), c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintList(complaints)})
}

// formValue copies the value out of the request buffer; complaint fields
// outlive the request in events and repositories.
func formValue(c *fiber.Ctx, key string) string {
	return utils.CopyString(c.FormValue(key))
}

// readUpload returns the optional attachment. A missing file, or one sent
// with an empty name, yields nil.
func readUpload(c *fiber.Ctx) (*service.Upload, error) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid multipart form", nil)
	}
	files := form.File[attachmentField]
	if len(files) == 0 || files[0].Filename == "" {
		return nil, nil
	}
	content, err := readFileHeader(files[0])
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable attachment", nil)
	}
	return &service.Upload{Filename: utils.CopyString(files[0].Filename), Content: content}, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
