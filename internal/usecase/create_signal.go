package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/infra/queue"
	"github.com/xavierca1/clientpulse/internal/logging"
)

type SignalUseCase struct {
	Repo   entity.SignalRepositoryInterface
	Queue  QueueProducerInterface
	Logger logging.Logger
}

var _ queue.SignalIngestionHandler = (*SignalUseCase)(nil)

func NewSignalUseCase(repo entity.SignalRepositoryInterface, queue QueueProducerInterface, logger logging.Logger) *SignalUseCase {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &SignalUseCase{Repo: repo, Queue: queue, Logger: logger}
}

// Create stores the signal and queues it for ingestion.
func (uc *SignalUseCase) Create(ctx context.Context, actor Actor, input CreateSignalInput) (*CreateSignalOutput, error) {
	if errs := ValidateCreateSignalInput(input); len(errs) > 0 {
		return nil, validationFailure(errs)
	}

	signal := entity.NewSignal(
		actor.TenantID,
		strings.TrimSpace(input.AccountID),
		strings.TrimSpace(input.Title),
		NormalizeURL(strings.TrimSpace(input.SourceURL)),
		entity.SignalSourceType(input.SourceType),
		input.Description,
	)
	signal.WorkflowID = uuid.NewString()

	if err := uc.Repo.Create(ctx, signal); err != nil {
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to save signal", Err: err}
	}

	payload := queue.SignalIngestionPayload{
		SignalID:    signal.ID,
		WorkflowID:  signal.WorkflowID,
		TenantID:    signal.TenantID,
		AccountID:   signal.AccountID,
		Title:       signal.Title,
		SourceURL:   signal.SourceURL,
		SourceType:  string(signal.SourceType),
		Description: signal.Description,
	}
	if err := uc.Queue.PublishSignalIngestion(ctx, payload); err != nil {
		uc.Logger.Error("signal saved but ingestion not queued", "signal_id", signal.ID, "error", err)
		if updateErr := uc.Repo.UpdateWorkflowStatus(ctx, signal.ID, entity.SignalFailed); updateErr != nil {
			uc.Logger.Error("failed to mark signal as failed", "signal_id", signal.ID, "error", updateErr)
		}
		return nil, &TechnicalError{Code: CodeIntegration, Message: "failed to queue signal for ingestion", Err: err}
	}

	uc.Logger.Info("signal queued", "signal_id", signal.ID, "workflow_id", signal.WorkflowID)
	return &CreateSignalOutput{
		SignalID:   signal.ID,
		WorkflowID: signal.WorkflowID,
		Status:     string(signal.WorkflowStatus),
		Message:    "Signal queued for ingestion",
	}, nil
}

func (uc *SignalUseCase) List(ctx context.Context, actor Actor, limit, offset int) (*ListSignalsOutput, error) {
	limit, offset = clampPage(limit, offset)
	signals, total, err := uc.Repo.List(ctx, actor.TenantID, limit, offset)
	if err != nil {
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to list signals", Err: err}
	}
	if signals == nil {
		signals = []*entity.Signal{}
	}
	return &ListSignalsOutput{Signals: signals, Total: total, Limit: limit, Offset: offset}, nil
}

// HandleSignalIngestion marks a queued signal as picked up. The pipeline
// that turns it into opportunities lives outside this service.
func (uc *SignalUseCase) HandleSignalIngestion(ctx context.Context, payload queue.SignalIngestionPayload) error {
	if err := uc.Repo.UpdateWorkflowStatus(ctx, payload.SignalID, entity.SignalIngested); err != nil {
		return err
	}
	uc.Logger.Debug("signal ingested", "signal_id", payload.SignalID)
	return nil
}
