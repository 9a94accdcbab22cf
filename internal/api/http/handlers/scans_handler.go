package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// ScansHandler exposes standalone scanning and the security report log.
type ScansHandler struct {
	service *service.ScanService
}

// NewScansHandler constructs handler.
func NewScansHandler(scanService *service.ScanService) *ScansHandler {
	return &ScansHandler{service: scanService}
}

// Scan POST /api/scans. The file is vetted and discarded.
func (h *ScansHandler) Scan(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	upload, err := readUpload(c)
	if err != nil {
		return err
	}
	if upload == nil {
		return apperrors.NewValidationError("file required", nil)
	}

	userID := principal.User.ID
	outcome, err := h.service.ScanFile(c.UserContext(), &userID, upload.Filename, upload.Content)
	if err != nil {
		return err
	}

	v := outcome.Verdict
	return c.JSON(fiber.Map{"data": dto.ScanResponse{
		FileName:     upload.Filename,
		SHA256:       outcome.Digest,
		Status:       outcome.Status,
		IsMalicious:  v.IsMalicious(),
		Detections:   v.MaliciousCount,
		TotalEngines: v.TotalEngines,
		Results:      v.Stats,
		FlaggedBy:    v.FlaggedBy,
		Cached:       outcome.Cached,
		VTLink:       dto.ReportLinkBase + outcome.Digest,
	}})
}

// Reports GET /api/scans/all.
func (h *ScansHandler) Reports(c *fiber.Ctx) error {
	reports, err := h.service.ListReports(c.UserContext(), c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewScanReportList(reports)})
}
