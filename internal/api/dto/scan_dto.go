package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ReportLinkBase is the public report page for a digest.
const ReportLinkBase = "https://www.virustotal.com/gui/file/"

// ScanResponse is the verdict for an uploaded file.
type ScanResponse struct {
	FileName     string            `json:"file_name"`
	SHA256       string            `json:"sha256"`
	Status       domain.ScanStatus `json:"status"`
	IsMalicious  bool              `json:"is_malicious"`
	Detections   int               `json:"detections"`
	TotalEngines int               `json:"total_engines"`
	Results      map[string]int    `json:"results"`
	FlaggedBy    []string          `json:"flagged_by,omitempty"`
	Cached       bool              `json:"cached"`
	VTLink       string            `json:"vt_link"`
}

// ScanReportResponse is one entry of the security report log.
type ScanReportResponse struct {
	ID                 int64             `json:"id"`
	UserID             *int64            `json:"user_id,omitempty"`
	ReporterName       string            `json:"reporter_name,omitempty"`
	ReporterDepartment string            `json:"reporter_department,omitempty"`
	OriginalFilename   string            `json:"original_filename"`
	FileHash           string            `json:"file_hash"`
	Status             domain.ScanStatus `json:"status"`
	Detections         int               `json:"detections"`
	TotalEngines       int               `json:"total_engines"`
	Details            string            `json:"details,omitempty"`
	VTLink             string            `json:"vt_link,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}

// NewScanReportList maps the report log.
func NewScanReportList(reports []domain.ScanReport) []ScanReportResponse {
	out := make([]ScanReportResponse, 0, len(reports))
	for _, r := range reports {
		item := ScanReportResponse{
			ID:                 r.ID,
			UserID:             r.UserID,
			ReporterName:       r.ReporterName,
			ReporterDepartment: r.ReporterDepartment,
			OriginalFilename:   r.OriginalFilename,
			FileHash:           r.FileHash,
			Status:             r.Status,
			Detections:         r.Detections,
			TotalEngines:       r.TotalEngines,
			Details:            r.Details,
			CreatedAt:          r.CreatedAt,
		}
		if r.FileHash != "" {
			item.VTLink = ReportLinkBase + r.FileHash
		}
		out = append(out, item)
	}
	return out
}
