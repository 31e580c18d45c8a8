package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/infra/queue"
	"github.com/xavierca1/clientpulse/internal/logging"
)

const (
	WorkspaceStatusProvisioning = "PROVISIONING"
	AccountStatusActive         = "active"
)

type CreateWorkspaceUseCase struct {
	Repo   entity.WorkspaceRepositoryInterface
	Queue  QueueProducerInterface
	Logger logging.Logger
	Now    Clock
	Random func(n int) int
}

func NewCreateWorkspaceUseCase(repo entity.WorkspaceRepositoryInterface, queue QueueProducerInterface, logger logging.Logger) *CreateWorkspaceUseCase {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &CreateWorkspaceUseCase{
		Repo:   repo,
		Queue:  queue,
		Logger: logger,
		Now:    time.Now,
		Random: randomIntN,
	}
}

// Create lets the wizard run against the service in-process.
func (uc *CreateWorkspaceUseCase) Create(ctx context.Context, data entity.WorkspaceData) (WorkspaceResult, error) {
	return uc.Execute(ctx, CreateWorkspaceInput{CompanyName: data.CompanyName, CompanyURL: data.CompanyURL})
}

// Execute persists the workspace and its seed account. Business failures
// (invalid input, a domain that is already taken) come back as a failed
// result; only infrastructure problems return an error.
func (uc *CreateWorkspaceUseCase) Execute(ctx context.Context, input CreateWorkspaceInput) (WorkspaceResult, error) {
	if errs := ValidateWorkspace(input.CompanyName, input.CompanyURL); len(errs) > 0 {
		return WorkspaceFailed(errs.First()), nil
	}

	name := strings.TrimSpace(input.CompanyName)
	website := NormalizeURL(strings.TrimSpace(input.CompanyURL))
	now := uc.Now().UTC()

	workspace := &entity.Workspace{
		ID:          NewWorkspaceID(name, uc.Random),
		OwnerID:     input.OwnerID,
		CompanyName: name,
		CompanyURL:  website,
		Domain:      ExtractDomain(website),
		Status:      WorkspaceStatusProvisioning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// without an owner the workspace is its own tenant
	workspace.TenantID = input.TenantID
	if workspace.TenantID == "" {
		workspace.TenantID = workspace.ID
	}

	account := &entity.Account{
		ID:        uuid.New().String(),
		TenantID:  workspace.TenantID,
		Name:      name,
		Website:   website,
		Status:    AccountStatusActive,
		CreatedAt: now,
	}

	txn := NewTransaction(uc.Logger)
	txn.AddOperation("create_workspace",
		func(ctx context.Context) error { return uc.Repo.Create(ctx, workspace) },
		func(ctx context.Context) error { return uc.Repo.Delete(ctx, workspace.ID) },
	)
	txn.AddOperation("create_account",
		func(ctx context.Context) error { return uc.Repo.CreateAccount(ctx, account) },
		nil,
	)

	if err := txn.Execute(ctx); err != nil {
		if errors.Is(err, entity.ErrDomainAlreadyRegistered) {
			uc.Logger.Warn("workspace domain already registered", "domain", workspace.Domain)
			return WorkspaceFailed(entity.ErrDomainAlreadyRegistered.Error()), nil
		}
		return WorkspaceResult{}, &TechnicalError{
			Code:    CodeDatabase,
			Message: "failed to persist workspace",
			Err:     err,
		}
	}

	payload := queue.WorkspaceAnalysisPayload{
		WorkspaceID: workspace.ID,
		TenantID:    workspace.TenantID,
		AccountID:   account.ID,
		CompanyName: workspace.CompanyName,
		CompanyURL:  workspace.CompanyURL,
		Domain:      workspace.Domain,
		RequestedAt: now,
	}
	if err := uc.Queue.PublishWorkspaceAnalysis(ctx, payload); err != nil {
		// the workspace exists; analysis can be re-triggered later
		uc.Logger.Error("workspace created but analysis was not queued", "workspace_id", workspace.ID, "error", err)
	}

	uc.Logger.Info("workspace created", "workspace_id", workspace.ID, "domain", workspace.Domain)
	return WorkspaceSucceeded(workspace.ID), nil
}
