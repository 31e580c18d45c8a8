package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/infra/queue"
)

var workspaceIDPattern = regexp.MustCompile(`^ws-[a-z0-9-]+-[0-9a-z]{5}$`)

func newWorkspaceUseCase(repo *MockWorkspaceRepository, q *MockQueueProducer) *CreateWorkspaceUseCase {
	uc := NewCreateWorkspaceUseCase(repo, q, nil)
	uc.Now = fixedClock
	return uc
}

func TestCreateWorkspaceSuccess(t *testing.T) {
	repo := new(MockWorkspaceRepository)
	q := new(MockQueueProducer)

	var saved *entity.Workspace
	repo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Workspace")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*entity.Workspace) }).
		Return(nil)
	repo.On("CreateAccount", mock.Anything, mock.AnythingOfType("*entity.Account")).Return(nil)
	q.On("PublishWorkspaceAnalysis", mock.Anything, mock.MatchedBy(func(p queue.WorkspaceAnalysisPayload) bool {
		return p.Domain == "acme.com" && p.CompanyURL == "https://acme.com"
	})).Return(nil)

	result, err := newWorkspaceUseCase(repo, q).Execute(context.Background(), CreateWorkspaceInput{
		CompanyName: " Acme Corp ",
		CompanyURL:  "acme.com",
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Regexp(t, workspaceIDPattern, result.WorkspaceID)
	assert.Contains(t, result.WorkspaceID, "ws-acme-corp-")
	require.NotNil(t, saved)
	assert.Equal(t, "Acme Corp", saved.CompanyName)
	assert.Equal(t, saved.ID, saved.TenantID)
	assert.Equal(t, WorkspaceStatusProvisioning, saved.Status)
	assert.Equal(t, fixedNow, saved.CreatedAt)
	repo.AssertExpectations(t)
	q.AssertExpectations(t)
}

func TestCreateWorkspaceUsesOwnerTenant(t *testing.T) {
	repo := new(MockWorkspaceRepository)
	q := new(MockQueueProducer)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(w *entity.Workspace) bool {
		return w.TenantID == "tenant-1" && w.OwnerID == "user-1"
	})).Return(nil)
	repo.On("CreateAccount", mock.Anything, mock.MatchedBy(func(a *entity.Account) bool {
		return a.TenantID == "tenant-1"
	})).Return(nil)
	q.On("PublishWorkspaceAnalysis", mock.Anything, mock.Anything).Return(nil)

	result, err := newWorkspaceUseCase(repo, q).Execute(context.Background(), CreateWorkspaceInput{
		CompanyName: "Acme",
		CompanyURL:  "https://acme.com",
		OwnerID:     "user-1",
		TenantID:    "tenant-1",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	repo.AssertExpectations(t)
}

func TestCreateWorkspaceValidationFailure(t *testing.T) {
	repo := new(MockWorkspaceRepository)
	q := new(MockQueueProducer)

	result, err := newWorkspaceUseCase(repo, q).Execute(context.Background(), CreateWorkspaceInput{CompanyName: "Acme", CompanyURL: "acme"})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, MsgURLInvalid, result.Error)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateWorkspaceDuplicateDomain(t *testing.T) {
	repo := new(MockWorkspaceRepository)
	q := new(MockQueueProducer)
	repo.On("Create", mock.Anything, mock.Anything).Return(entity.ErrDomainAlreadyRegistered)

	result, err := newWorkspaceUseCase(repo, q).Execute(context.Background(), CreateWorkspaceInput{CompanyName: "Acme", CompanyURL: "acme.com"})

	require.NoError(t, err)
	assert.Equal(t, WorkspaceFailed("This domain is already registered in our system."), result)
	q.AssertNotCalled(t, "PublishWorkspaceAnalysis", mock.Anything, mock.Anything)
}

func TestCreateWorkspaceCompensatesWhenAccountFails(t *testing.T) {
	repo := new(MockWorkspaceRepository)
	q := new(MockQueueProducer)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.On("CreateAccount", mock.Anything, mock.Anything).Return(errors.New("connection reset"))
	repo.On("Delete", mock.Anything, mock.MatchedBy(func(id string) bool {
		return workspaceIDPattern.MatchString(id)
	})).Return(nil)

	_, err := newWorkspaceUseCase(repo, q).Execute(context.Background(), CreateWorkspaceInput{CompanyName: "Acme", CompanyURL: "acme.com"})

	require.Error(t, err)
	assert.True(t, IsTechnicalError(err))
	repo.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
	q.AssertNotCalled(t, "PublishWorkspaceAnalysis", mock.Anything, mock.Anything)
}

func TestCreateWorkspaceQueueFailureStillSucceeds(t *testing.T) {
	repo := new(MockWorkspaceRepository)
	q := new(MockQueueProducer)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.On("CreateAccount", mock.Anything, mock.Anything).Return(nil)
	q.On("PublishWorkspaceAnalysis", mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	result, err := newWorkspaceUseCase(repo, q).Create(context.Background(), entity.WorkspaceData{CompanyName: "Acme", CompanyURL: "acme.com"})

	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestNewWorkspaceID(t *testing.T) {
	maxDigit := func(int) int { return 35 }

	assert.Equal(t, "ws-acme-zzzzz", NewWorkspaceID("Acme", maxDigit))
	assert.Equal(t, "ws-acme-corp-zzzzz", NewWorkspaceID("Acme Corp", maxDigit))
	assert.Equal(t, "ws-workspace-zzzzz", NewWorkspaceID("   ", maxDigit))
	assert.Regexp(t, workspaceIDPattern, NewWorkspaceID("Foo.Bar Holdings", randomIntN))
}

func TestMockWorkspaceCreator(t *testing.T) {
	m := NewMockWorkspaceCreator()
	m.Delay = time.Millisecond
	m.IntN = func(int) int { return 10 }

	m.Random = func() float64 { return 0.5 }
	result, err := m.Create(context.Background(), entity.WorkspaceData{CompanyName: "Acme Corp"})
	require.NoError(t, err)
	assert.Equal(t, WorkspaceSucceeded("ws-acme-corp-aaaaa"), result)

	m.Random = func() float64 { return 0.95 }
	result, err = m.Create(context.Background(), entity.WorkspaceData{CompanyName: "Acme"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "This domain is already registered in our system.", result.Error)
}

func TestMockWorkspaceCreatorHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockWorkspaceCreator().Create(ctx, entity.WorkspaceData{CompanyName: "Acme"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransactionRollsBackInReverse(t *testing.T) {
	var calls []string
	record := func(name string, err error) func(context.Context) error {
		return func(context.Context) error {
			calls = append(calls, name)
			return err
		}
	}

	txn := NewTransaction(nil)
	txn.AddOperation("one", record("one", nil), record("undo-one", nil))
	txn.AddOperation("two", record("two", nil), record("undo-two", errors.New("ignored")))
	txn.AddOperation("three", record("three", errors.New("boom")), record("undo-three", nil))

	err := txn.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"one", "two", "three", "undo-two", "undo-one"}, calls)
	assert.Contains(t, err.Error(), "operation 'three' failed")
	assert.Contains(t, err.Error(), fmt.Sprintf("rolled back %d operations", 2))
}

func TestWorkspaceResultValidate(t *testing.T) {
	r := WorkspaceResult{Success: true}
	assert.True(t, IsTechnicalError(r.Validate()))

	r = WorkspaceResult{Success: false}
	require.NoError(t, r.Validate())
	assert.Equal(t, MsgGeneralError, r.Error)

	r = WorkspaceResult{Success: true, WorkspaceID: "ws-a-12345", Error: "stale"}
	require.NoError(t, r.Validate())
	assert.Empty(t, r.Error)
}
