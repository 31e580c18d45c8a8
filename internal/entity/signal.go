package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SignalSourceType string

const (
	SourceNews     SignalSourceType = "news"
	SourceArticle  SignalSourceType = "article"
	SourceFiling   SignalSourceType = "filing"
	SourceResearch SignalSourceType = "research"
	SourceSite     SignalSourceType = "site"
	SourcePDF      SignalSourceType = "pdf"
)

// SignalSourceTypes lists the accepted source types.
var SignalSourceTypes = []SignalSourceType{SourceNews, SourceArticle, SourceFiling, SourceResearch, SourceSite, SourcePDF}

type SignalWorkflowStatus string

const (
	SignalPending    SignalWorkflowStatus = "pending"
	SignalIngested   SignalWorkflowStatus = "ingested"
	SignalProcessing SignalWorkflowStatus = "processing"
	SignalProcessed  SignalWorkflowStatus = "processed"
	SignalFailed     SignalWorkflowStatus = "failed"
)

// Signal is a raw external event fed into opportunity discovery.
type Signal struct {
	ID             string               `json:"id"`
	TenantID       string               `json:"tenant_id"`
	AccountID      string               `json:"account_id"`
	Title          string               `json:"title"`
	SourceURL      string               `json:"source_url"`
	SourceType     SignalSourceType     `json:"source_type"`
	Description    string               `json:"description"`
	WorkflowID     string               `json:"workflow_id,omitempty"`
	WorkflowStatus SignalWorkflowStatus `json:"status"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

func NewSignal(tenantID, accountID, title, sourceURL string, sourceType SignalSourceType, description string) *Signal {
	if sourceType == "" {
		sourceType = SourceNews
	}
	now := time.Now().UTC()
	return &Signal{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		AccountID:      accountID,
		Title:          title,
		SourceURL:      sourceURL,
		SourceType:     sourceType,
		Description:    description,
		WorkflowStatus: SignalPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type SignalRepositoryInterface interface {
	Create(ctx context.Context, s *Signal) error
	List(ctx context.Context, tenantID string, limit, offset int) ([]*Signal, int, error)
	UpdateWorkflowStatus(ctx context.Context, id string, status SignalWorkflowStatus) error
}
