package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/infra/queue"
	"github.com/xavierca1/clientpulse/internal/logging"
)

const (
	OriginSend        = "SEND"
	OriginResend      = "RESEND"
	OriginActivateCRM = "ACTIVATE_CRM"

	DefaultCRMSystem = "hubspot"
)

// OutreachUseCase covers everything after approval: drafting the outreach,
// emailing it and queueing the CRM activation.
type OutreachUseCase struct {
	Repo       entity.OpportunityRepositoryInterface
	Queue      QueueProducerInterface
	Email      EmailService
	Logger     logging.Logger
	Now        Clock
	NewID      func() string
	DefaultCRM string
}

func NewOutreachUseCase(repo entity.OpportunityRepositoryInterface, queue QueueProducerInterface, email EmailService, defaultCRM string, logger logging.Logger) *OutreachUseCase {
	if logger == nil {
		logger = logging.NoOp()
	}
	if defaultCRM == "" {
		defaultCRM = DefaultCRMSystem
	}
	return &OutreachUseCase{
		Repo:       repo,
		Queue:      queue,
		Email:      email,
		Logger:     logger,
		Now:        time.Now,
		NewID:      uuid.NewString,
		DefaultCRM: defaultCRM,
	}
}

// DraftOutreach stores the message for an approved opportunity, which makes
// it ready to send.
func (uc *OutreachUseCase) DraftOutreach(ctx context.Context, actor Actor, id string, input DraftOutreachInput) (*ReviewDecisionOutput, error) {
	if errs := ValidateDraftOutreachInput(input); len(errs) > 0 {
		return nil, validationFailure(errs)
	}
	opp, err := loadOpportunity(ctx, uc.Repo, actor, id)
	if err != nil {
		return nil, err
	}
	if err := ensureAllowed(opp, entity.ActionDraftOutreach); err != nil {
		return nil, err
	}

	now := uc.Now().UTC()
	draft := entity.OutreachDraft{
		Subject:   strings.TrimSpace(input.Subject),
		Body:      input.Body,
		Recipient: strings.TrimSpace(input.Recipient),
		UpdatedAt: now,
	}
	if err := uc.Repo.SaveDraft(ctx, opp.ID, draft); err != nil {
		return nil, repositoryError(err, "failed to save outreach draft")
	}
	if err := uc.Repo.UpdateStatus(ctx, opp.ID, opp.Status, entity.LifecycleActivationRequested); err != nil {
		return nil, repositoryError(err, "failed to update opportunity status")
	}

	recordHistory(ctx, uc.Repo, uc.Logger, &entity.HistoryEntry{
		ID:            uc.NewID(),
		OpportunityID: opp.ID,
		Action:        string(entity.ActionDraftOutreach),
		FromStatus:    opp.Status,
		ToStatus:      entity.LifecycleActivationRequested,
		ActorID:       actor.UserID,
		Note:          draft.Subject,
		CreatedAt:     now,
	})

	return &ReviewDecisionOutput{
		Status:        string(entity.LifecycleActivationRequested),
		OpportunityID: opp.ID,
		Message:       "Outreach draft saved",
	}, nil
}

// Send emails the draft and queues the CRM activation.
func (uc *OutreachUseCase) Send(ctx context.Context, actor Actor, id string) (*ActivateCRMOutput, error) {
	opp, err := loadOpportunity(ctx, uc.Repo, actor, id)
	if err != nil {
		return nil, err
	}
	if err := ensureAllowed(opp, entity.ActionSend); err != nil {
		return nil, err
	}
	if opp.DraftOutreach == nil {
		return nil, ErrNoDraft
	}
	if err := uc.sendEmail(opp); err != nil {
		return nil, err
	}
	return uc.dispatch(ctx, actor, opp, uc.DefaultCRM, OriginSend)
}

// Resend retries a sent or failed outreach. Failed activations go back to
// activation_requested first.
func (uc *OutreachUseCase) Resend(ctx context.Context, actor Actor, id string) (*ActivateCRMOutput, error) {
	opp, err := loadOpportunity(ctx, uc.Repo, actor, id)
	if err != nil {
		return nil, err
	}
	if err := ensureAllowed(opp, entity.ActionResend); err != nil {
		return nil, err
	}
	if err := uc.requestActivation(ctx, opp); err != nil {
		return nil, err
	}
	if opp.DraftOutreach != nil {
		if err := uc.sendEmail(opp); err != nil {
			return nil, err
		}
	}
	return uc.dispatch(ctx, actor, opp, uc.DefaultCRM, OriginResend)
}

// ActivateCRM queues the activation without sending any email.
func (uc *OutreachUseCase) ActivateCRM(ctx context.Context, actor Actor, id, crmSystem string) (*ActivateCRMOutput, error) {
	opp, err := loadOpportunity(ctx, uc.Repo, actor, id)
	if err != nil {
		return nil, err
	}
	status := opp.DisplayStatus(false)
	if !entity.IsActionAllowed(status, entity.ActionDraftOutreach) &&
		!entity.IsActionAllowed(status, entity.ActionSend) &&
		!entity.IsActionAllowed(status, entity.ActionResend) {
		return nil, ensureAllowed(opp, entity.ActionSend)
	}
	if err := uc.requestActivation(ctx, opp); err != nil {
		return nil, err
	}
	if crmSystem = strings.TrimSpace(crmSystem); crmSystem == "" {
		crmSystem = uc.DefaultCRM
	}
	return uc.dispatch(ctx, actor, opp, crmSystem, OriginActivateCRM)
}

// requestActivation moves approved and failed opportunities to
// activation_requested. Sent ones keep their status and are re-pushed.
func (uc *OutreachUseCase) requestActivation(ctx context.Context, opp *entity.Opportunity) error {
	switch opp.Status {
	case entity.LifecycleActivationRequested, entity.LifecycleActivated:
		return nil
	}
	if opp.CRMActivatedAt != nil {
		return nil
	}
	if err := uc.Repo.UpdateStatus(ctx, opp.ID, opp.Status, entity.LifecycleActivationRequested); err != nil {
		return repositoryError(err, "failed to update opportunity status")
	}
	opp.Status = entity.LifecycleActivationRequested
	return nil
}

func (uc *OutreachUseCase) sendEmail(opp *entity.Opportunity) error {
	d := opp.DraftOutreach
	if err := uc.Email.SendOutreach(d.Recipient, d.Subject, d.Body); err != nil {
		return &TechnicalError{Code: CodeIntegration, Message: "failed to send outreach email", Err: err}
	}
	uc.Logger.Info("outreach sent", "opportunity_id", opp.ID, "recipient", d.Recipient)
	return nil
}

func (uc *OutreachUseCase) dispatch(ctx context.Context, actor Actor, opp *entity.Opportunity, crmSystem, origin string) (*ActivateCRMOutput, error) {
	if err := uc.Repo.SetCRMStatus(ctx, opp.ID, entity.CRMStatusPending); err != nil {
		return nil, repositoryError(err, "failed to mark CRM activation")
	}

	workflowID := uc.NewID()
	now := uc.Now().UTC()
	recordHistory(ctx, uc.Repo, uc.Logger, &entity.HistoryEntry{
		ID:            uc.NewID(),
		OpportunityID: opp.ID,
		Action:        strings.ToLower(origin),
		FromStatus:    opp.Status,
		ToStatus:      opp.Status,
		WorkflowID:    workflowID,
		ActorID:       actor.UserID,
		Note:          crmSystem,
		CreatedAt:     now,
	})

	payload := queue.ActivationPayload{
		OpportunityID: opp.ID,
		TenantID:      opp.TenantID,
		WorkflowID:    workflowID,
		CRMSystem:     crmSystem,
		AccountID:     opp.AccountID,
		AccountName:   opp.AccountName,
		Title:         opp.Title,
		Score:         opp.Score,
		Origin:        origin,
		RequestedAt:   now,
	}
	if opp.DraftOutreach != nil {
		payload.ContactEmail = opp.DraftOutreach.Recipient
	}
	if err := uc.Queue.PublishActivation(ctx, payload); err != nil {
		// the reconciler fails it once the activation timeout passes
		uc.Logger.Error("CRM activation not queued", "opportunity_id", opp.ID, "error", err)
		return nil, &TechnicalError{Code: CodeIntegration, Message: "failed to queue CRM activation", Err: err}
	}

	uc.Logger.Info("CRM activation queued", "opportunity_id", opp.ID, "crm_system", crmSystem, "origin", origin)
	return &ActivateCRMOutput{
		Success:       true,
		OpportunityID: opp.ID,
		WorkflowID:    workflowID,
		CRMSystem:     crmSystem,
		Message:       "CRM activation queued",
	}, nil
}
