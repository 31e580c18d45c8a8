package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/xavierca1/clientpulse/internal/entity"
)

type WorkspaceRepository struct {
	DB *sql.DB
}

func NewWorkspaceRepository(db *sql.DB) *WorkspaceRepository {
	return &WorkspaceRepository{DB: db}
}

func (r *WorkspaceRepository) Create(ctx context.Context, w *entity.Workspace) error {
	query := `
		INSERT INTO workspaces (id, tenant_id, owner_id, company_name, company_url, domain, status, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)
	`
	_, err := r.DB.ExecContext(ctx, query,
		w.ID,
		w.TenantID,
		w.OwnerID,
		w.CompanyName,
		w.CompanyURL,
		w.Domain,
		w.Status,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		if uniqueViolationOn(err, "workspaces_domain_key") {
			return entity.ErrDomainAlreadyRegistered
		}
		return err
	}
	return nil
}

func (r *WorkspaceRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	return err
}

func (r *WorkspaceRepository) FindByID(ctx context.Context, id string) (*entity.Workspace, error) {
	query := `
		SELECT id, tenant_id, COALESCE(owner_id, ''), company_name, company_url, domain, status, created_at, updated_at
		FROM workspaces
		WHERE id = $1
	`
	var w entity.Workspace
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&w.ID,
		&w.TenantID,
		&w.OwnerID,
		&w.CompanyName,
		&w.CompanyURL,
		&w.Domain,
		&w.Status,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WorkspaceRepository) CreateAccount(ctx context.Context, a *entity.Account) error {
	query := `
		INSERT INTO accounts (id, tenant_id, name, website, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query, a.ID, a.TenantID, a.Name, a.Website, a.Status, a.CreatedAt)
	return err
}
