package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/xavierca1/clientpulse/internal/entity"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	query := `
		INSERT INTO users (id, tenant_id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query, u.ID, u.TenantID, u.Name, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if uniqueViolationOn(err, "users_email_key") {
			return entity.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT id, tenant_id, name, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`
	var u entity.User
	err := r.DB.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.TenantID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
