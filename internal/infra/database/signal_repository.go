package database

import (
	"context"
	"database/sql"

	"github.com/xavierca1/clientpulse/internal/entity"
)

type SignalRepository struct {
	DB *sql.DB
}

func NewSignalRepository(db *sql.DB) *SignalRepository {
	return &SignalRepository{DB: db}
}

func (r *SignalRepository) Create(ctx context.Context, s *entity.Signal) error {
	query := `
		INSERT INTO signals (id, tenant_id, account_id, title, source_url, source_type, description, workflow_id, workflow_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.DB.ExecContext(ctx, query,
		s.ID,
		s.TenantID,
		s.AccountID,
		s.Title,
		s.SourceURL,
		string(s.SourceType),
		s.Description,
		s.WorkflowID,
		string(s.WorkflowStatus),
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func (r *SignalRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Signal, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM signals WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, tenant_id, account_id, title, source_url, source_type, description,
		       COALESCE(workflow_id, ''), workflow_status, created_at, updated_at
		FROM signals
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	signals := []*entity.Signal{}
	for rows.Next() {
		var s entity.Signal
		var sourceType, status string
		if err := rows.Scan(
			&s.ID,
			&s.TenantID,
			&s.AccountID,
			&s.Title,
			&s.SourceURL,
			&sourceType,
			&s.Description,
			&s.WorkflowID,
			&status,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		s.SourceType = entity.SignalSourceType(sourceType)
		s.WorkflowStatus = entity.SignalWorkflowStatus(status)
		signals = append(signals, &s)
	}
	return signals, total, rows.Err()
}

func (r *SignalRepository) UpdateWorkflowStatus(ctx context.Context, id string, status entity.SignalWorkflowStatus) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE signals SET workflow_status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	return expectRows(res)
}

// expectRows maps "nothing updated" to ErrNotFound.
func expectRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	return nil
}
