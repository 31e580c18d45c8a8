package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/infra/queue"
)

func newActivationUseCase(repo *MockOpportunityRepository, crm *MockCRMClient) (*CompleteActivationUseCase, *[]time.Duration) {
	var slept []time.Duration
	uc := NewCompleteActivationUseCase(repo, crm, 3, time.Second, nil)
	uc.Now = fixedClock
	uc.Sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return uc, &slept
}

var activationPayload = queue.ActivationPayload{OpportunityID: "opp-1", WorkflowID: "wf-1", CRMSystem: "hubspot"}

func TestHandleActivationSuccessAfterRetry(t *testing.T) {
	repo := new(MockOpportunityRepository)
	crm := new(MockCRMClient)
	crm.On("CreateDeal", mock.Anything, activationPayload).Return("", errors.New("503")).Once()
	crm.On("CreateDeal", mock.Anything, activationPayload).Return("deal-42", nil).Once()
	repo.On("MarkActivated", mock.Anything, "opp-1", entity.CRMStatusActivated, fixedNow).Return(nil)
	repo.On("AppendHistory", mock.Anything, mock.MatchedBy(func(h *entity.HistoryEntry) bool {
		return h.Note == "deal-42" && h.ToStatus == entity.LifecycleActivated
	})).Return(nil)

	uc, slept := newActivationUseCase(repo, crm)
	var outcomes []string
	uc.OnOutcome = func(s string) { outcomes = append(outcomes, s) }
	require.NoError(t, uc.HandleActivation(context.Background(), activationPayload))

	assert.Equal(t, []string{entity.CRMStatusActivated}, outcomes)
	assert.Equal(t, []time.Duration{time.Second}, *slept)
	crm.AssertNumberOfCalls(t, "CreateDeal", 2)
	repo.AssertExpectations(t)
}

func TestHandleActivationFailsAfterRetries(t *testing.T) {
	repo := new(MockOpportunityRepository)
	crm := new(MockCRMClient)
	crm.On("CreateDeal", mock.Anything, mock.Anything).Return("", errors.New("invalid pipeline"))
	repo.On("SetCRMStatus", mock.Anything, "opp-1", entity.CRMStatusFailed).Return(nil)
	repo.On("UpdateStatus", mock.Anything, "opp-1", entity.LifecycleActivationRequested, entity.LifecycleActivationFailed).Return(nil)
	repo.On("AppendHistory", mock.Anything, mock.MatchedBy(func(h *entity.HistoryEntry) bool {
		return h.Note == "invalid pipeline"
	})).Return(nil)

	uc, slept := newActivationUseCase(repo, crm)
	var outcomes []string
	uc.OnOutcome = func(s string) { outcomes = append(outcomes, s) }
	require.NoError(t, uc.HandleActivation(context.Background(), activationPayload))

	assert.Equal(t, []string{entity.CRMStatusFailed}, outcomes)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
	crm.AssertNumberOfCalls(t, "CreateDeal", 3)
	repo.AssertNotCalled(t, "MarkActivated", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestHandleActivationFailureOnSentOpportunity(t *testing.T) {
	repo := new(MockOpportunityRepository)
	crm := new(MockCRMClient)
	crm.On("CreateDeal", mock.Anything, mock.Anything).Return("", errors.New("down"))
	repo.On("SetCRMStatus", mock.Anything, "opp-1", entity.CRMStatusFailed).Return(nil)
	repo.On("UpdateStatus", mock.Anything, "opp-1", mock.Anything, mock.Anything).Return(entity.ErrStatusConflict)

	uc, _ := newActivationUseCase(repo, crm)
	assert.NoError(t, uc.HandleActivation(context.Background(), activationPayload))
	repo.AssertNotCalled(t, "AppendHistory", mock.Anything, mock.Anything)
}

func TestHandleActivationSuccessAfterOpportunityMovedOn(t *testing.T) {
	repo := new(MockOpportunityRepository)
	crm := new(MockCRMClient)
	crm.On("CreateDeal", mock.Anything, activationPayload).Return("deal-7", nil)
	repo.On("MarkActivated", mock.Anything, "opp-1", entity.CRMStatusActivated, fixedNow).Return(entity.ErrStatusConflict)
	repo.On("AppendHistory", mock.Anything, mock.MatchedBy(func(h *entity.HistoryEntry) bool {
		return h.Action == "crm_activation_conflict" && h.Note == "deal-7"
	})).Return(nil)

	uc, _ := newActivationUseCase(repo, crm)
	var outcomes []string
	uc.OnOutcome = func(s string) { outcomes = append(outcomes, s) }

	assert.NoError(t, uc.HandleActivation(context.Background(), activationPayload), "acked so the deal is not created twice")
	assert.Equal(t, []string{"conflict"}, outcomes)
	crm.AssertNumberOfCalls(t, "CreateDeal", 1)
	repo.AssertExpectations(t)
}

func TestHandleActivationStopsWhenContextEnds(t *testing.T) {
	repo := new(MockOpportunityRepository)
	crm := new(MockCRMClient)
	crm.On("CreateDeal", mock.Anything, mock.Anything).Return("", errors.New("timeout"))

	uc, _ := newActivationUseCase(repo, crm)
	uc.Sleep = sleepContext
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, uc.HandleActivation(ctx, activationPayload), context.Canceled)
	crm.AssertNumberOfCalls(t, "CreateDeal", 1)
}

func TestExpireActivations(t *testing.T) {
	repo := new(MockOpportunityRepository)
	repo.On("ExpireActivations", mock.Anything, fixedNow.Add(-15*time.Minute)).Return([]string{"opp-1", "opp-2"}, nil)
	repo.On("AppendHistory", mock.Anything, mock.MatchedBy(func(h *entity.HistoryEntry) bool {
		return h.Action == "crm_activation_timeout"
	})).Return(nil)

	uc := NewExpireActivationsUseCase(repo, 0, nil)
	uc.Now = fixedClock

	n, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	repo.AssertNumberOfCalls(t, "AppendHistory", 2)
}

func TestExpireActivationsDatabaseError(t *testing.T) {
	repo := new(MockOpportunityRepository)
	repo.On("ExpireActivations", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, err := NewExpireActivationsUseCase(repo, time.Minute, nil).Execute(context.Background())
	assert.True(t, IsTechnicalError(err))
}
