package queue

import "time"

// WorkspaceAnalysisPayload asks the analysis pipeline to profile a freshly
// created workspace.
type WorkspaceAnalysisPayload struct {
	WorkspaceID string    `json:"workspace_id"`
	TenantID    string    `json:"tenant_id"`
	AccountID   string    `json:"account_id"`
	CompanyName string    `json:"company_name"`
	CompanyURL  string    `json:"company_url"`
	Domain      string    `json:"domain"`
	RequestedAt time.Time `json:"requested_at"`
}

type SignalIngestionPayload struct {
	SignalID    string `json:"signal_id"`
	WorkflowID  string `json:"workflow_id"`
	TenantID    string `json:"tenant_id"`
	AccountID   string `json:"account_id"`
	Title       string `json:"title"`
	SourceURL   string `json:"source_url"`
	SourceType  string `json:"source_type"`
	Description string `json:"description,omitempty"`
}

// ReviewDecisionPayload tells the opportunity workflow what the reviewer
// decided. Detail carries the reason, feedback or question.
type ReviewDecisionPayload struct {
	WorkflowID    string         `json:"workflow_id"`
	OpportunityID string         `json:"opportunity_id"`
	TenantID      string         `json:"tenant_id"`
	ActorID       string         `json:"actor_id,omitempty"`
	Decision      string         `json:"decision"` // approve, reject, refine, needs_more_evidence
	Status        string         `json:"status"`
	Detail        string         `json:"detail,omitempty"`
	Context       string         `json:"context,omitempty"`
	Refinements   map[string]any `json:"refinements,omitempty"`
	DecidedAt     time.Time      `json:"decided_at"`
}

// ActivationPayload pushes an approved opportunity into the CRM.
type ActivationPayload struct {
	OpportunityID string    `json:"opportunity_id"`
	TenantID      string    `json:"tenant_id"`
	WorkflowID    string    `json:"workflow_id"`
	CRMSystem     string    `json:"crm_system"`
	AccountID     string    `json:"account_id"`
	AccountName   string    `json:"account_name"`
	Title         string    `json:"title"`
	Score         float64   `json:"score"`
	ContactEmail  string    `json:"contact_email,omitempty"`
	Origin        string    `json:"origin"` // SEND, RESEND, ACTIVATE_CRM
	RequestedAt   time.Time `json:"requested_at"`
}
