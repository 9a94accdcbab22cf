package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/scan"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// FileScanner resolves a verdict for file content.
type FileScanner interface {
	Enabled() bool
	Scan(ctx context.Context, content []byte, filename string) (scan.Result, error)
}

// ScanOutcome is a finished scan plus the status recorded for it.
type ScanOutcome struct {
	scan.Result
	Status domain.ScanStatus
}

// ScanService runs scans and keeps the security report log.
type ScanService struct {
	scanner FileScanner
	reports repository.ScanReportRepository
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewScanService wires the service. reports and metrics may be nil.
func NewScanService(scanner FileScanner, reports repository.ScanReportRepository, metrics *observability.Metrics, logger *zap.Logger) *ScanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanService{scanner: scanner, reports: reports, metrics: metrics, logger: logger}
}

// ScanFile vets content and records the outcome. A malicious verdict is not an
// error here; callers decide what to do with it. Any failure to reach a verdict
// is returned as a SCAN_FAILED domain error.
func (s *ScanService) ScanFile(ctx context.Context, userID *int64, filename string, content []byte) (*ScanOutcome, error) {
	if s.scanner == nil || !s.scanner.Enabled() {
		s.metrics.RecordScan(observability.ScanOutcomeDisabled)
		return nil, apperrors.NewScanUnavailable(scan.ErrDisabled)
	}

	result, err := s.scanner.Scan(ctx, content, filename)
	if err != nil {
		s.metrics.RecordScan(observability.ScanOutcomeError)
		s.logger.Warn("attachment scan failed", zap.String("file", filename), zap.Error(err))
		s.record(ctx, &domain.ScanReport{
			UserID:           userID,
			OriginalFilename: filename,
			FileHash:         result.Digest,
			Status:           domain.ScanStatusError,
			Details:          failureDetail(err),
		})
		return nil, apperrors.NewScanUnavailable(err)
	}

	outcome := &ScanOutcome{Result: result, Status: statusFor(result.Verdict)}
	s.metrics.RecordScan(string(outcome.Status))
	s.logger.Info("attachment scanned",
		zap.String("file", filename),
		zap.String("digest", result.Digest),
		zap.String("status", string(outcome.Status)),
		zap.Int("detections", result.Verdict.MaliciousCount),
		zap.Int("total_engines", result.Verdict.TotalEngines),
		zap.Bool("cached", result.Cached))

	s.record(ctx, &domain.ScanReport{
		UserID:           userID,
		OriginalFilename: filename,
		FileHash:         result.Digest,
		Status:           outcome.Status,
		Detections:       result.Verdict.MaliciousCount,
		TotalEngines:     result.Verdict.TotalEngines,
		Details:          verdictDetail(result.Verdict),
	})
	return outcome, nil
}

// ListReports returns the security report log, newest first.
func (s *ScanService) ListReports(ctx context.Context, limit, offset int) ([]domain.ScanReport, error) {
	if s.reports == nil {
		return []domain.ScanReport{}, nil
	}
	limit, offset = normalizePage(limit, offset)
	reports, err := s.reports.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reports, nil
}

// record writes the audit entry. Failures are logged and swallowed.
func (s *ScanService) record(ctx context.Context, report *domain.ScanReport) {
	if s.reports == nil {
		return
	}
	if err := s.reports.Create(ctx, report); err != nil {
		s.logger.Warn("scan report not recorded",
			zap.String("file", report.OriginalFilename),
			zap.Error(err))
	}
}

func statusFor(v scan.Verdict) domain.ScanStatus {
	switch {
	case v.IsMalicious():
		return domain.ScanStatusMalicious
	case v.SuspiciousCount > 0:
		return domain.ScanStatusWarning
	default:
		return domain.ScanStatusClean
	}
}

func verdictDetail(v scan.Verdict) string {
	if len(v.FlaggedBy) > 0 {
		return fmt.Sprintf("flagged by: %v", v.FlaggedBy)
	}
	return fmt.Sprintf("%d malicious, %d suspicious of %d engines", v.MaliciousCount, v.SuspiciousCount, v.TotalEngines)
}

func failureDetail(err error) string {
	var scanErr *scan.Error
	if errors.As(err, &scanErr) {
		return fmt.Sprintf("%s failed: %v", scanErr.Stage, scanErr.Err)
	}
	return err.Error()
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
