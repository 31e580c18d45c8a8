package usecase

import (
	"context"
	"io"
	"time"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/infra/queue"
)

// WorkspaceCreator creates a workspace for the wizard. Implementations
// return a failure result for business errors and an error only when the
// request itself could not complete.
type WorkspaceCreator interface {
	Create(ctx context.Context, data entity.WorkspaceData) (WorkspaceResult, error)
}

// Navigator moves the user to another screen. The wizard calls Navigate
// under its own lock, so implementations must not call back into it.
type Navigator interface {
	Navigate(path string)
}

// OpportunityActions is the client side of the opportunities API.
type OpportunityActions interface {
	List(ctx context.Context, limit, offset int) (*ListOpportunitiesOutput, error)
	Get(ctx context.Context, id string) (*entity.Opportunity, error)
	Approve(ctx context.Context, id, comment string) (*ReviewDecisionOutput, error)
	Reject(ctx context.Context, id string, input RejectInput) (*ReviewDecisionOutput, error)
	Refine(ctx context.Context, id string, input RefineInput) (*ReviewDecisionOutput, error)
	NeedsMoreEvidence(ctx context.Context, id string, input NeedsMoreEvidenceInput) (*ReviewDecisionOutput, error)
	Review(ctx context.Context, id string) (*ReviewDecisionOutput, error)
	DraftOutreach(ctx context.Context, id string, input DraftOutreachInput) (*ReviewDecisionOutput, error)
	Send(ctx context.Context, id string) (*ActivateCRMOutput, error)
	Resend(ctx context.Context, id string) (*ActivateCRMOutput, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, id string, w io.Writer) error
}

// OpportunityLister is the read side used by the feed.
type OpportunityLister interface {
	List(ctx context.Context, limit, offset int) (*ListOpportunitiesOutput, error)
}

type QueueProducerInterface interface {
	PublishWorkspaceAnalysis(ctx context.Context, payload queue.WorkspaceAnalysisPayload) error
	PublishSignalIngestion(ctx context.Context, payload queue.SignalIngestionPayload) error
	PublishReviewDecision(ctx context.Context, payload queue.ReviewDecisionPayload) error
	PublishActivation(ctx context.Context, payload queue.ActivationPayload) error
}

// CRMClient pushes an opportunity into the external CRM.
type CRMClient interface {
	CreateDeal(ctx context.Context, payload queue.ActivationPayload) (string, error)
}

type EmailService interface {
	SendOutreach(to, subject, body string) error
}

type OpportunityExporter interface {
	Export(opp *entity.Opportunity, w io.Writer) error
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *entity.User) (string, time.Time, error)
}

// Clock is swapped in tests.
type Clock func() time.Time
