package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/infra/queue"
	"github.com/xavierca1/clientpulse/internal/logging"
)

const (
	DecisionReview            = "review"
	DecisionApprove           = "approve"
	DecisionReject            = "reject"
	DecisionRefine            = "refine"
	DecisionNeedsMoreEvidence = "needs_more_evidence"
)

// ReviewOpportunityUseCase moves opportunities through the human review
// stage and tells the downstream workflow about each decision.
type ReviewOpportunityUseCase struct {
	Repo   entity.OpportunityRepositoryInterface
	Queue  QueueProducerInterface
	Logger logging.Logger
	Now    Clock
	NewID  func() string
}

func NewReviewOpportunityUseCase(repo entity.OpportunityRepositoryInterface, queue QueueProducerInterface, logger logging.Logger) *ReviewOpportunityUseCase {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &ReviewOpportunityUseCase{
		Repo:   repo,
		Queue:  queue,
		Logger: logger,
		Now:    time.Now,
		NewID:  uuid.NewString,
	}
}

func (uc *ReviewOpportunityUseCase) List(ctx context.Context, actor Actor, limit, offset int) (*ListOpportunitiesOutput, error) {
	limit, offset = clampPage(limit, offset)
	opps, total, err := uc.Repo.List(ctx, actor.TenantID, limit, offset)
	if err != nil {
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to list opportunities", Err: err}
	}
	if opps == nil {
		opps = []*entity.Opportunity{}
	}
	return &ListOpportunitiesOutput{Opportunities: opps, Total: total, Limit: limit, Offset: offset}, nil
}

func (uc *ReviewOpportunityUseCase) Get(ctx context.Context, actor Actor, id string) (*entity.Opportunity, error) {
	return loadOpportunity(ctx, uc.Repo, actor, id)
}

func (uc *ReviewOpportunityUseCase) History(ctx context.Context, actor Actor, id string) ([]*entity.HistoryEntry, error) {
	if _, err := loadOpportunity(ctx, uc.Repo, actor, id); err != nil {
		return nil, err
	}
	entries, err := uc.Repo.History(ctx, id)
	if err != nil {
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to load opportunity history", Err: err}
	}
	if entries == nil {
		entries = []*entity.HistoryEntry{}
	}
	return entries, nil
}

// Review picks a new opportunity up for review.
func (uc *ReviewOpportunityUseCase) Review(ctx context.Context, actor Actor, id string) (*ReviewDecisionOutput, error) {
	return uc.decide(ctx, actor, id, decision{
		action:  entity.ActionReview,
		name:    DecisionReview,
		to:      entity.LifecyclePendingReview,
		message: "Opportunity moved to review",
	})
}

func (uc *ReviewOpportunityUseCase) Approve(ctx context.Context, actor Actor, id string, input ApproveInput) (*ReviewDecisionOutput, error) {
	return uc.decide(ctx, actor, id, decision{
		action:  entity.ActionApprove,
		name:    DecisionApprove,
		to:      entity.LifecycleApproved,
		detail:  input.Comment,
		message: "Opportunity approved",
	})
}

func (uc *ReviewOpportunityUseCase) Reject(ctx context.Context, actor Actor, id string, input RejectInput) (*ReviewDecisionOutput, error) {
	if err := ValidateReject(input); err != nil {
		return nil, err
	}
	return uc.decide(ctx, actor, id, decision{
		action:  entity.ActionReject,
		name:    DecisionReject,
		to:      entity.LifecycleRejected,
		detail:  input.Reason,
		context: input.Comment,
		message: "Opportunity rejected",
	})
}

func (uc *ReviewOpportunityUseCase) Refine(ctx context.Context, actor Actor, id string, input RefineInput) (*ReviewDecisionOutput, error) {
	if err := ValidateRefine(input); err != nil {
		return nil, err
	}
	return uc.decide(ctx, actor, id, decision{
		action:      entity.ActionRefine,
		name:        DecisionRefine,
		to:          entity.LifecyclePendingReview,
		detail:      input.Feedback,
		refinements: input.Refinements,
		message:     "Refinement requested",
	})
}

// NeedsMoreEvidence is a review-stage request, allowed wherever refine is.
func (uc *ReviewOpportunityUseCase) NeedsMoreEvidence(ctx context.Context, actor Actor, id string, input NeedsMoreEvidenceInput) (*ReviewDecisionOutput, error) {
	if err := ValidateNeedsMoreEvidence(input); err != nil {
		return nil, err
	}
	return uc.decide(ctx, actor, id, decision{
		action:  entity.ActionRefine,
		name:    DecisionNeedsMoreEvidence,
		to:      entity.LifecycleNeedsMoreEvidence,
		detail:  input.Question,
		context: input.Context,
		message: "More evidence requested",
	})
}

func (uc *ReviewOpportunityUseCase) Delete(ctx context.Context, actor Actor, id string) error {
	opp, err := loadOpportunity(ctx, uc.Repo, actor, id)
	if err != nil {
		return err
	}
	if err := ensureAllowed(opp, entity.ActionDelete); err != nil {
		return err
	}
	if err := uc.Repo.Delete(ctx, actor.TenantID, opp.ID); err != nil {
		return repositoryError(err, "failed to delete opportunity")
	}
	uc.Logger.Info("opportunity deleted", "opportunity_id", opp.ID, "actor_id", actor.UserID)
	return nil
}

type decision struct {
	action      entity.OpportunityAction
	name        string
	to          entity.LifecycleStatus
	detail      string
	context     string
	refinements map[string]any
	message     string
}

func (uc *ReviewOpportunityUseCase) decide(ctx context.Context, actor Actor, id string, d decision) (*ReviewDecisionOutput, error) {
	opp, err := loadOpportunity(ctx, uc.Repo, actor, id)
	if err != nil {
		return nil, err
	}
	if err := ensureAllowed(opp, d.action); err != nil {
		return nil, err
	}

	if err := uc.Repo.UpdateStatus(ctx, opp.ID, opp.Status, d.to); err != nil {
		return nil, repositoryError(err, "failed to update opportunity status")
	}

	workflowID := uc.NewID()
	now := uc.Now().UTC()
	recordHistory(ctx, uc.Repo, uc.Logger, &entity.HistoryEntry{
		ID:            uc.NewID(),
		OpportunityID: opp.ID,
		Action:        d.name,
		FromStatus:    opp.Status,
		ToStatus:      d.to,
		WorkflowID:    workflowID,
		ActorID:       actor.UserID,
		Note:          d.detail,
		CreatedAt:     now,
	})

	payload := queue.ReviewDecisionPayload{
		WorkflowID:    workflowID,
		OpportunityID: opp.ID,
		TenantID:      opp.TenantID,
		ActorID:       actor.UserID,
		Decision:      d.name,
		Status:        string(d.to),
		Detail:        d.detail,
		Context:       d.context,
		Refinements:   d.refinements,
		DecidedAt:     now,
	}
	if err := uc.Queue.PublishReviewDecision(ctx, payload); err != nil {
		uc.Logger.Error("review decision saved but not published", "opportunity_id", opp.ID, "decision", d.name, "error", err)
	}

	uc.Logger.Info("review decision", "opportunity_id", opp.ID, "decision", d.name, "from", opp.Status, "to", d.to)
	return &ReviewDecisionOutput{
		Status:        string(d.to),
		OpportunityID: opp.ID,
		WorkflowID:    workflowID,
		Message:       d.message,
	}, nil
}

func loadOpportunity(ctx context.Context, repo entity.OpportunityRepositoryInterface, actor Actor, id string) (*entity.Opportunity, error) {
	opp, err := repo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, repositoryError(err, "failed to load opportunity")
	}
	return opp, nil
}

// ensureAllowed gates a transition on the action table. Snoozing is local
// to each client, so the server always judges the unsnoozed status.
func ensureAllowed(opp *entity.Opportunity, action entity.OpportunityAction) error {
	status := opp.DisplayStatus(false)
	if entity.IsActionAllowed(status, action) {
		return nil
	}
	return &DomainError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("action %s is not available for an opportunity in status %s", action, status),
	}
}

func repositoryError(err error, message string) error {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return &DomainError{Code: CodeNotFound, Message: "opportunity not found"}
	case errors.Is(err, entity.ErrStatusConflict):
		return &DomainError{Code: CodeConflict, Message: "opportunity was changed by someone else, reload and try again"}
	default:
		return &TechnicalError{Code: CodeDatabase, Message: message, Err: err}
	}
}

// recordHistory never fails the transition that already happened.
func recordHistory(ctx context.Context, repo entity.OpportunityRepositoryInterface, logger logging.Logger, entry *entity.HistoryEntry) {
	if err := repo.AppendHistory(ctx, entry); err != nil {
		logger.Error("failed to record opportunity history", "opportunity_id", entry.OpportunityID, "action", entry.Action, "error", err)
	}
}
