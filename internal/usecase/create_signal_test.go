package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/infra/queue"
)

func TestCreateSignalQueuesIngestion(t *testing.T) {
	repo := new(MockSignalRepository)
	q := new(MockQueueProducer)

	var saved *entity.Signal
	repo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Signal")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*entity.Signal) }).
		Return(nil)
	q.On("PublishSignalIngestion", mock.Anything, mock.MatchedBy(func(p queue.SignalIngestionPayload) bool {
		return p.SourceType == "news" && p.SourceURL == "https://acme.com/press/q3" && p.TenantID == "tenant-1"
	})).Return(nil)

	out, err := NewSignalUseCase(repo, q, nil).Create(context.Background(), testActor, CreateSignalInput{
		AccountID: "acc-1",
		Title:     "Acme opens Berlin office",
		SourceURL: "acme.com/press/q3",
	})

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, saved.ID, out.SignalID)
	assert.Equal(t, saved.WorkflowID, out.WorkflowID)
	assert.NotEmpty(t, out.WorkflowID)
	assert.Equal(t, "pending", out.Status)
	q.AssertExpectations(t)
}

func TestCreateSignalValidation(t *testing.T) {
	repo := new(MockSignalRepository)

	_, err := NewSignalUseCase(repo, new(MockQueueProducer), nil).Create(context.Background(), testActor, CreateSignalInput{
		Title:      "x",
		SourceURL:  "nope",
		SourceType: "tweet",
	})

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "account_id is required", de.Fields["account_id"])
	assert.Equal(t, MsgURLInvalid, de.Fields["source_url"])
	assert.Equal(t, "source_type is not supported", de.Fields["source_type"])
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateSignalQueueFailureMarksFailed(t *testing.T) {
	repo := new(MockSignalRepository)
	q := new(MockQueueProducer)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateWorkflowStatus", mock.Anything, mock.Anything, entity.SignalFailed).Return(nil)
	q.On("PublishSignalIngestion", mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	_, err := NewSignalUseCase(repo, q, nil).Create(context.Background(), testActor, CreateSignalInput{
		AccountID:  "acc-1",
		Title:      "Filing",
		SourceURL:  "https://sec.gov/x",
		SourceType: "filing",
	})

	assert.True(t, IsTechnicalError(err))
	repo.AssertExpectations(t)
}

func TestListSignals(t *testing.T) {
	repo := new(MockSignalRepository)
	signals := []*entity.Signal{{ID: "s-1"}}
	repo.On("List", mock.Anything, "tenant-1", 10, 20).Return(signals, 21, nil)

	out, err := NewSignalUseCase(repo, new(MockQueueProducer), nil).List(context.Background(), testActor, 0, 20)

	require.NoError(t, err)
	assert.Equal(t, 21, out.Total)
	assert.Equal(t, 10, out.Limit)
	assert.Equal(t, signals, out.Signals)
}

func TestHandleSignalIngestion(t *testing.T) {
	repo := new(MockSignalRepository)
	repo.On("UpdateWorkflowStatus", mock.Anything, "s-1", entity.SignalIngested).Return(nil)

	err := NewSignalUseCase(repo, nil, nil).HandleSignalIngestion(context.Background(), queue.SignalIngestionPayload{SignalID: "s-1"})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
