package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ScanReportRepository persists the attachment scan audit log.
type ScanReportRepository interface {
	Create(ctx context.Context, report *domain.ScanReport) error
	List(ctx context.Context, limit, offset int) ([]domain.ScanReport, error)
}

type scanReportRepository struct {
	pool *pgxpool.Pool
}

// NewScanReportRepository constructs repository.
func NewScanReportRepository(pool *pgxpool.Pool) ScanReportRepository {
	return &scanReportRepository{pool: pool}
}

func (r *scanReportRepository) Create(ctx context.Context, report *domain.ScanReport) error {
	const query = `
        INSERT INTO scan_reports (user_id, original_filename, file_hash, status, detections, total_engines, details)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		report.UserID,
		report.OriginalFilename,
		report.FileHash,
		report.Status,
		report.Detections,
		report.TotalEngines,
		report.Details,
	).Scan(&report.ID, &report.CreatedAt)
}

func (r *scanReportRepository) List(ctx context.Context, limit, offset int) ([]domain.ScanReport, error) {
	const query = `
        SELECT s.id, s.user_id, s.original_filename, s.file_hash, s.status, s.detections,
               s.total_engines, s.details, s.created_at,
               COALESCE(u.name, ''), COALESCE(u.department, '')
        FROM scan_reports s
        LEFT JOIN users u ON u.id = s.user_id
        ORDER BY s.created_at DESC, s.id DESC
        LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.ScanReport{}
	for rows.Next() {
		var report domain.ScanReport
		if err := rows.Scan(
			&report.ID,
			&report.UserID,
			&report.OriginalFilename,
			&report.FileHash,
			&report.Status,
			&report.Detections,
			&report.TotalEngines,
			&report.Details,
			&report.CreatedAt,
			&report.ReporterName,
			&report.ReporterDepartment,
		); err != nil {
			return nil, err
		}
		result = append(result, report)
	}
	return result, rows.Err()
}
