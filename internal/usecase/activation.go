package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/infra/queue"
	"github.com/xavierca1/clientpulse/internal/logging"
)

const (
	DefaultActivationRetries = 3
	DefaultActivationBackoff = 2 * time.Second
	DefaultActivationTimeout = 15 * time.Minute
)

// CompleteActivationUseCase is the consumer side of a CRM activation: it
// creates the deal and records the outcome on the opportunity.
type CompleteActivationUseCase struct {
	Repo    entity.OpportunityRepositoryInterface
	CRM     CRMClient
	Logger  logging.Logger
	Now     Clock
	Retries int
	Backoff time.Duration
	Sleep   func(ctx context.Context, d time.Duration) error
	// OnOutcome receives one of the CRMStatus values, or "conflict", per
	// handled message.
	OnOutcome func(status string)
}

var _ queue.ActivationHandler = (*CompleteActivationUseCase)(nil)

func NewCompleteActivationUseCase(repo entity.OpportunityRepositoryInterface, crm CRMClient, retries int, backoff time.Duration, logger logging.Logger) *CompleteActivationUseCase {
	if logger == nil {
		logger = logging.NoOp()
	}
	if retries <= 0 {
		retries = DefaultActivationRetries
	}
	return &CompleteActivationUseCase{
		Repo:      repo,
		CRM:       crm,
		Logger:    logger,
		Now:       time.Now,
		Retries:   retries,
		Backoff:   backoff,
		Sleep:     sleepContext,
		OnOutcome: func(string) {},
	}
}

// HandleActivation returns nil once the outcome is stored, failed or not.
// An error means the outcome could not be recorded.
func (uc *CompleteActivationUseCase) HandleActivation(ctx context.Context, payload queue.ActivationPayload) error {
	log := uc.Logger.WithFields(map[string]any{
		"opportunity_id": payload.OpportunityID,
		"workflow_id":    payload.WorkflowID,
		"crm_system":     payload.CRMSystem,
	})

	var dealID string
	var err error
	for attempt := 1; attempt <= uc.Retries; attempt++ {
		dealID, err = uc.CRM.CreateDeal(ctx, payload)
		if err == nil {
			break
		}
		log.Warn("CRM activation attempt failed", "attempt", attempt, "error", err)
		if attempt < uc.Retries {
			if sleepErr := uc.Sleep(ctx, uc.Backoff*time.Duration(attempt)); sleepErr != nil {
				return sleepErr
			}
		}
	}

	now := uc.Now().UTC()
	if err != nil {
		log.Error("CRM activation failed", "attempts", uc.Retries, "error", err)
		uc.OnOutcome(entity.CRMStatusFailed)
		return uc.fail(ctx, payload, now, err.Error())
	}

	err = uc.Repo.MarkActivated(ctx, payload.OpportunityID, entity.CRMStatusActivated, now)
	switch {
	case errors.Is(err, entity.ErrStatusConflict):
		// the deal exists but the opportunity moved on; redelivery would
		// only create another deal
		log.Warn("CRM deal created for an opportunity no longer awaiting activation", "deal_id", dealID)
		recordHistory(ctx, uc.Repo, uc.Logger, &entity.HistoryEntry{
			ID:            uuid.NewString(),
			OpportunityID: payload.OpportunityID,
			Action:        "crm_activation_conflict",
			WorkflowID:    payload.WorkflowID,
			Note:          dealID,
			CreatedAt:     now,
		})
		uc.OnOutcome("conflict")
		return nil
	case err != nil:
		return err
	}
	uc.OnOutcome(entity.CRMStatusActivated)
	recordHistory(ctx, uc.Repo, uc.Logger, &entity.HistoryEntry{
		ID:            uuid.NewString(),
		OpportunityID: payload.OpportunityID,
		Action:        "crm_activated",
		FromStatus:    entity.LifecycleActivationRequested,
		ToStatus:      entity.LifecycleActivated,
		WorkflowID:    payload.WorkflowID,
		Note:          dealID,
		CreatedAt:     now,
	})
	log.Info("CRM activation completed", "deal_id", dealID)
	return nil
}

func (uc *CompleteActivationUseCase) fail(ctx context.Context, payload queue.ActivationPayload, now time.Time, reason string) error {
	if err := uc.Repo.SetCRMStatus(ctx, payload.OpportunityID, entity.CRMStatusFailed); err != nil {
		return err
	}
	err := uc.Repo.UpdateStatus(ctx, payload.OpportunityID, entity.LifecycleActivationRequested, entity.LifecycleActivationFailed)
	switch {
	case errors.Is(err, entity.ErrStatusConflict):
		// a resend of an already sent opportunity keeps its status
		return nil
	case err != nil:
		return err
	}
	recordHistory(ctx, uc.Repo, uc.Logger, &entity.HistoryEntry{
		ID:            uuid.NewString(),
		OpportunityID: payload.OpportunityID,
		Action:        "crm_activation_failed",
		FromStatus:    entity.LifecycleActivationRequested,
		ToStatus:      entity.LifecycleActivationFailed,
		WorkflowID:    payload.WorkflowID,
		Note:          reason,
		CreatedAt:     now,
	})
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ExpireActivationsUseCase fails activations whose worker never reported
// back.
type ExpireActivationsUseCase struct {
	Repo    entity.OpportunityRepositoryInterface
	Timeout time.Duration
	Now     Clock
	Logger  logging.Logger
}

func NewExpireActivationsUseCase(repo entity.OpportunityRepositoryInterface, timeout time.Duration, logger logging.Logger) *ExpireActivationsUseCase {
	if logger == nil {
		logger = logging.NoOp()
	}
	if timeout <= 0 {
		timeout = DefaultActivationTimeout
	}
	return &ExpireActivationsUseCase{Repo: repo, Timeout: timeout, Now: time.Now, Logger: logger}
}

func (uc *ExpireActivationsUseCase) Execute(ctx context.Context) (int, error) {
	cutoff := uc.Now().UTC().Add(-uc.Timeout)
	ids, err := uc.Repo.ExpireActivations(ctx, cutoff)
	if err != nil {
		return 0, &TechnicalError{Code: CodeDatabase, Message: "failed to expire activations", Err: err}
	}
	now := uc.Now().UTC()
	for _, id := range ids {
		recordHistory(ctx, uc.Repo, uc.Logger, &entity.HistoryEntry{
			ID:            uuid.NewString(),
			OpportunityID: id,
			Action:        "crm_activation_timeout",
			FromStatus:    entity.LifecycleActivationRequested,
			ToStatus:      entity.LifecycleActivationFailed,
			Note:          "no response within " + uc.Timeout.String(),
			CreatedAt:     now,
		})
	}
	if len(ids) > 0 {
		uc.Logger.Warn("expired CRM activations", "count", len(ids))
	}
	return len(ids), nil
}
