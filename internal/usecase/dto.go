package usecase

import (
	"time"

	"github.com/xavierca1/clientpulse/internal/entity"
)

// WorkspaceResult is the tagged outcome of a creation request: either
// Success with a WorkspaceID, or a failure carrying Error.
type WorkspaceResult struct {
	Success     bool   `json:"success"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Validate rejects results that claim success without an id. Failures
// without a message get the generic one.
func (r *WorkspaceResult) Validate() error {
	if r.Success {
		if r.WorkspaceID == "" {
			return &TechnicalError{Code: CodeIntegration, Message: "workspace created without an id"}
		}
		r.Error = ""
		return nil
	}
	if r.Error == "" {
		r.Error = MsgGeneralError
	}
	r.WorkspaceID = ""
	return nil
}

func WorkspaceSucceeded(id string) WorkspaceResult {
	return WorkspaceResult{Success: true, WorkspaceID: id}
}

func WorkspaceFailed(message string) WorkspaceResult {
	return WorkspaceResult{Success: false, Error: message}
}

type CreateWorkspaceInput struct {
	CompanyName string `json:"companyName"`
	CompanyURL  string `json:"companyUrl"`
	OwnerID     string `json:"-"`
	TenantID    string `json:"-"`
}

type ApproveInput struct {
	Comment string `json:"comment,omitempty"`
}

type RejectInput struct {
	Reason  string `json:"reason"`
	Comment string `json:"comment,omitempty"`
}

type RefineInput struct {
	Feedback    string         `json:"feedback"`
	Refinements map[string]any `json:"refinements,omitempty"`
}

type NeedsMoreEvidenceInput struct {
	Question string `json:"question"`
	Context  string `json:"context,omitempty"`
}

// ReviewDecisionOutput is returned by every review transition.
type ReviewDecisionOutput struct {
	Status        string `json:"status"`
	OpportunityID string `json:"opportunity_id"`
	WorkflowID    string `json:"workflow_id"`
	Message       string `json:"message"`
}

type ListOpportunitiesOutput struct {
	Opportunities []*entity.Opportunity `json:"opportunities"`
	Total         int                   `json:"total"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
}

type DraftOutreachInput struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Recipient string `json:"recipient"`
}

type ActivateCRMOutput struct {
	Success       bool   `json:"success"`
	OpportunityID string `json:"opportunity_id"`
	WorkflowID    string `json:"workflow_id"`
	CRMSystem     string `json:"crm_system"`
	Message       string `json:"message"`
}

type CreateSignalInput struct {
	AccountID   string `json:"account_id"`
	Title       string `json:"title"`
	SourceURL   string `json:"source_url"`
	SourceType  string `json:"source_type,omitempty"`
	Description string `json:"description,omitempty"`
}

type CreateSignalOutput struct {
	SignalID   string `json:"signal_id"`
	WorkflowID string `json:"workflow_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

type ListSignalsOutput struct {
	Signals []*entity.Signal `json:"signals"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthOutput struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *entity.User `json:"user"`
}

// Actor identifies who issued a request, taken from the bearer token.
type Actor struct {
	UserID   string
	TenantID string
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// clampPage applies the default and maximum page size.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
