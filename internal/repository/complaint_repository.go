package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	// Create inserts the complaint inside a transaction that is rolled back on
	// any error.
	Create(ctx context.Context, complaint *domain.Complaint) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Complaint, error)
	List(ctx context.Context, limit, offset int) ([]domain.Complaint, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (user_id, complaint_text, attachment_path, attachment_name, attachment_sha256)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`

	var path, name, digest *string
	if att := complaint.Attachment; att != nil {
		path, name, digest = &att.Path, &att.FileName, &att.SHA256
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			complaint.UserID,
			complaint.Text,
			path,
			name,
			digest,
		).Scan(&complaint.ID, &complaint.CreatedAt)
	})
}

func (r *complaintRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Complaint, error) {
	const query = `
        SELECT id, user_id, complaint_text, attachment_path, attachment_name, attachment_sha256, created_at
        FROM complaints WHERE user_id=$1
        ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, userID)
}

func (r *complaintRepository) List(ctx context.Context, limit, offset int) ([]domain.Complaint, error) {
	const query = `
        SELECT id, user_id, complaint_text, attachment_path, attachment_name, attachment_sha256, created_at
        FROM complaints
        ORDER BY created_at DESC, id DESC
        LIMIT $1 OFFSET $2`
	return r.list(ctx, query, limit, offset)
}

func (r *complaintRepository) list(ctx context.Context, query string, args ...any) ([]domain.Complaint, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Complaint{}
	for rows.Next() {
		var (
			complaint          domain.Complaint
			path, name, digest *string
		)
		if err := rows.Scan(
			&complaint.ID,
			&complaint.UserID,
			&complaint.Text,
			&path,
			&name,
			&digest,
			&complaint.CreatedAt,
		); err != nil {
			return nil, err
		}
		if path != nil {
			complaint.Attachment = &domain.Attachment{Path: *path}
			if name != nil {
				complaint.Attachment.FileName = *name
			}
			if digest != nil {
				complaint.Attachment.SHA256 = *digest
			}
		}
		result = append(result, complaint)
	}
	return result, rows.Err()
}
