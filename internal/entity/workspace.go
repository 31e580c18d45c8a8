package entity

import (
	"context"
	"time"
)

// WorkspaceData is what the creation wizard submits. It is built once at
// submission time and never mutated afterwards.
type WorkspaceData struct {
	CompanyName string `json:"companyName"`
	CompanyURL  string `json:"companyUrl"`
}

type Workspace struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	OwnerID     string    `json:"owner_id,omitempty"`
	CompanyName string    `json:"company_name"`
	CompanyURL  string    `json:"company_url"`
	Domain      string    `json:"domain"`
	Status      string    `json:"status"` // PROVISIONING, READY
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Account is the company record opportunities and signals hang off.
type Account struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Website   string    `json:"website"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type WorkspaceRepositoryInterface interface {
	Create(ctx context.Context, w *Workspace) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Workspace, error)
	CreateAccount(ctx context.Context, a *Account) error
}
