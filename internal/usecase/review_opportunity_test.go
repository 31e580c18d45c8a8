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

var testActor = Actor{UserID: "user-1", TenantID: "tenant-1"}

func newReviewUseCase(repo *MockOpportunityRepository, q *MockQueueProducer) *ReviewOpportunityUseCase {
	uc := NewReviewOpportunityUseCase(repo, q, nil)
	uc.Now = fixedClock
	uc.NewID = sequentialIDs("wf")
	return uc
}

func opportunityIn(status entity.LifecycleStatus) *entity.Opportunity {
	return &entity.Opportunity{ID: "opp-1", TenantID: "tenant-1", Title: "Expand to EMEA", Status: status, Score: 82}
}

func TestApproveMovesInReviewToApproved(t *testing.T) {
	repo := new(MockOpportunityRepository)
	q := new(MockQueueProducer)
	repo.On("FindByID", mock.Anything, "tenant-1", "opp-1").Return(opportunityIn(entity.LifecyclePendingReview), nil)
	repo.On("UpdateStatus", mock.Anything, "opp-1", entity.LifecyclePendingReview, entity.LifecycleApproved).Return(nil)
	repo.On("AppendHistory", mock.Anything, mock.MatchedBy(func(h *entity.HistoryEntry) bool {
		return h.Action == DecisionApprove && h.ActorID == "user-1" && h.WorkflowID == "wf-1"
	})).Return(nil)
	q.On("PublishReviewDecision", mock.Anything, mock.MatchedBy(func(p queue.ReviewDecisionPayload) bool {
		return p.Decision == DecisionApprove && p.Status == "approved" && p.Detail == "looks good" && p.WorkflowID == "wf-1"
	})).Return(nil)

	out, err := newReviewUseCase(repo, q).Approve(context.Background(), testActor, "opp-1", ApproveInput{Comment: "looks good"})

	require.NoError(t, err)
	assert.Equal(t, &ReviewDecisionOutput{
		Status:        "approved",
		OpportunityID: "opp-1",
		WorkflowID:    "wf-1",
		Message:       "Opportunity approved",
	}, out)
	repo.AssertExpectations(t)
	q.AssertExpectations(t)
}

func TestApproveRejectedByActionTable(t *testing.T) {
	repo := new(MockOpportunityRepository)
	q := new(MockQueueProducer)
	repo.On("FindByID", mock.Anything, "tenant-1", "opp-1").Return(opportunityIn(entity.LifecycleDraft), nil)

	_, err := newReviewUseCase(repo, q).Approve(context.Background(), testActor, "opp-1", ApproveInput{})

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeInvalidTransition, de.Code)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	q.AssertNotCalled(t, "PublishReviewDecision", mock.Anything, mock.Anything)
}

func TestRejectRequiresReasonWithoutTouchingRepo(t *testing.T) {
	repo := new(MockOpportunityRepository)
	q := new(MockQueueProducer)

	_, err := newReviewUseCase(repo, q).Reject(context.Background(), testActor, "opp-1", RejectInput{Reason: "  "})

	assert.ErrorIs(t, err, ErrReasonRequired)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefineRequiresFeedback(t *testing.T) {
	_, err := newReviewUseCase(new(MockOpportunityRepository), new(MockQueueProducer)).
		Refine(context.Background(), testActor, "opp-1", RefineInput{})
	assert.ErrorIs(t, err, ErrFeedbackRequired)
}

func TestNeedsMoreEvidenceRequiresQuestion(t *testing.T) {
	_, err := newReviewUseCase(new(MockOpportunityRepository), new(MockQueueProducer)).
		NeedsMoreEvidence(context.Background(), testActor, "opp-1", NeedsMoreEvidenceInput{Context: "pricing"})
	assert.ErrorIs(t, err, ErrQuestionRequired)
}

func TestRejectFromApproved(t *testing.T) {
	repo := new(MockOpportunityRepository)
	q := new(MockQueueProducer)
	repo.On("FindByID", mock.Anything, "tenant-1", "opp-1").Return(opportunityIn(entity.LifecycleApproved), nil)
	repo.On("UpdateStatus", mock.Anything, "opp-1", entity.LifecycleApproved, entity.LifecycleRejected).Return(nil)
	repo.On("AppendHistory", mock.Anything, mock.Anything).Return(nil)
	q.On("PublishReviewDecision", mock.Anything, mock.MatchedBy(func(p queue.ReviewDecisionPayload) bool {
		return p.Detail == "budget frozen" && p.Context == "call next quarter"
	})).Return(nil)

	out, err := newReviewUseCase(repo, q).Reject(context.Background(), testActor, "opp-1", RejectInput{Reason: "budget frozen", Comment: "call next quarter"})

	require.NoError(t, err)
	assert.Equal(t, "rejected", out.Status)
	q.AssertExpectations(t)
}

func TestRefineKeepsOpportunityInReview(t *testing.T) {
	repo := new(MockOpportunityRepository)
	q := new(MockQueueProducer)
	repo.On("FindByID", mock.Anything, "tenant-1", "opp-1").Return(opportunityIn(entity.LifecycleNeedsMoreEvidence), nil)
	repo.On("UpdateStatus", mock.Anything, "opp-1", entity.LifecycleNeedsMoreEvidence, entity.LifecyclePendingReview).Return(nil)
	repo.On("AppendHistory", mock.Anything, mock.Anything).Return(nil)
	q.On("PublishReviewDecision", mock.Anything, mock.MatchedBy(func(p queue.ReviewDecisionPayload) bool {
		return p.Refinements["tone"] == "formal"
	})).Return(nil)

	out, err := newReviewUseCase(repo, q).Refine(context.Background(), testActor, "opp-1", RefineInput{
		Feedback:    "focus on security",
		Refinements: map[string]any{"tone": "formal"},
	})

	require.NoError(t, err)
	assert.Equal(t, "pending_review", out.Status)
	assert.Equal(t, "Refinement requested", out.Message)
}

func TestNeedsMoreEvidence(t *testing.T) {
	repo := new(MockOpportunityRepository)
	q := new(MockQueueProducer)
	repo.On("FindByID", mock.Anything, "tenant-1", "opp-1").Return(opportunityIn(entity.LifecyclePendingReview), nil)
	repo.On("UpdateStatus", mock.Anything, "opp-1", entity.LifecyclePendingReview, entity.LifecycleNeedsMoreEvidence).Return(nil)
	repo.On("AppendHistory", mock.Anything, mock.Anything).Return(nil)
	q.On("PublishReviewDecision", mock.Anything, mock.Anything).Return(nil)

	out, err := newReviewUseCase(repo, q).NeedsMoreEvidence(context.Background(), testActor, "opp-1", NeedsMoreEvidenceInput{Question: "Who owns the budget?"})

	require.NoError(t, err)
	assert.Equal(t, "needs_more_evidence", out.Status)
}

func TestReviewStartsFromDraft(t *testing.T) {
	repo := new(MockOpportunityRepository)
	q := new(MockQueueProducer)
	repo.On("FindByID", mock.Anything, "tenant-1", "opp-1").Return(opportunityIn(entity.LifecycleDraft), nil)
	repo.On("UpdateStatus", mock.Anything, "opp-1", entity.LifecycleDraft, entity.LifecyclePendingReview).Return(nil)
	repo.On("AppendHistory", mock.Anything, mock.Anything).Return(nil)
	q.On("PublishReviewDecision", mock.Anything, mock.Anything).Return(nil)

	out, err := newReviewUseCase(repo, q).Review(context.Background(), testActor, "opp-1")
	require.NoError(t, err)
	assert.Equal(t, "pending_review", out.Status)
}

func TestDecisionConflictAndNotFound(t *testing.T) {
	repo := new(MockOpportunityRepository)
	q := new(MockQueueProducer)
	repo.On("FindByID", mock.Anything, "tenant-1", "missing").Return(nil, entity.ErrNotFound)
	repo.On("FindByID", mock.Anything, "tenant-1", "opp-1").Return(opportunityIn(entity.LifecyclePendingReview), nil)
	repo.On("UpdateStatus", mock.Anything, "opp-1", mock.Anything, mock.Anything).Return(entity.ErrStatusConflict)
	uc := newReviewUseCase(repo, q)

	var de *DomainError
	_, err := uc.Approve(context.Background(), testActor, "missing", ApproveInput{})
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeNotFound, de.Code)

	_, err = uc.Approve(context.Background(), testActor, "opp-1", ApproveInput{})
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeConflict, de.Code)
}

func TestDecisionSurvivesHistoryAndQueueFailures(t *testing.T) {
	repo := new(MockOpportunityRepository)
	q := new(MockQueueProducer)
	repo.On("FindByID", mock.Anything, "tenant-1", "opp-1").Return(opportunityIn(entity.LifecyclePendingReview), nil)
	repo.On("UpdateStatus", mock.Anything, "opp-1", mock.Anything, mock.Anything).Return(nil)
	repo.On("AppendHistory", mock.Anything, mock.Anything).Return(errors.New("history table locked"))
	q.On("PublishReviewDecision", mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	out, err := newReviewUseCase(repo, q).Approve(context.Background(), testActor, "opp-1", ApproveInput{})
	require.NoError(t, err)
	assert.Equal(t, "approved", out.Status)
}

func TestListClampsPage(t *testing.T) {
	repo := new(MockOpportunityRepository)
	repo.On("List", mock.Anything, "tenant-1", 100, 0).Return(nil, 0, nil)

	out, err := newReviewUseCase(repo, new(MockQueueProducer)).List(context.Background(), testActor, 500, -3)

	require.NoError(t, err)
	assert.NotNil(t, out.Opportunities)
	assert.Equal(t, 100, out.Limit)
	assert.Equal(t, 0, out.Offset)
}

func TestDeleteAllowedOnlyWhereTableSays(t *testing.T) {
	repo := new(MockOpportunityRepository)
	repo.On("FindByID", mock.Anything, "tenant-1", "opp-1").Return(opportunityIn(entity.LifecycleRejected), nil)
	repo.On("FindByID", mock.Anything, "tenant-1", "opp-2").Return(&entity.Opportunity{ID: "opp-2", Status: entity.LifecycleApproved}, nil)
	repo.On("Delete", mock.Anything, "tenant-1", "opp-1").Return(nil)
	uc := newReviewUseCase(repo, new(MockQueueProducer))

	require.NoError(t, uc.Delete(context.Background(), testActor, "opp-1"))
	assert.True(t, IsDomainError(uc.Delete(context.Background(), testActor, "opp-2")))
	repo.AssertNotCalled(t, "Delete", mock.Anything, "tenant-1", "opp-2")
}

func TestHistoryChecksTenant(t *testing.T) {
	repo := new(MockOpportunityRepository)
	repo.On("FindByID", mock.Anything, "tenant-1", "opp-1").Return(nil, entity.ErrNotFound)

	_, err := newReviewUseCase(repo, new(MockQueueProducer)).History(context.Background(), testActor, "opp-1")
	assert.True(t, IsDomainError(err))
	repo.AssertNotCalled(t, "History", mock.Anything, mock.Anything)
}
