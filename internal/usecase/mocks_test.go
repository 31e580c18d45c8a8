package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/infra/queue"
)

// MockWorkspaceRepository
type MockWorkspaceRepository struct {
	mock.Mock
}

func (m *MockWorkspaceRepository) Create(ctx context.Context, w *entity.Workspace) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockWorkspaceRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockWorkspaceRepository) FindByID(ctx context.Context, id string) (*entity.Workspace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Workspace), args.Error(1)
}

func (m *MockWorkspaceRepository) CreateAccount(ctx context.Context, a *entity.Account) error {
	return m.Called(ctx, a).Error(0)
}

// MockOpportunityRepository
type MockOpportunityRepository struct {
	mock.Mock
}

func (m *MockOpportunityRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Opportunity, int, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entity.Opportunity), args.Int(1), args.Error(2)
}

func (m *MockOpportunityRepository) FindByID(ctx context.Context, tenantID, id string) (*entity.Opportunity, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Opportunity), args.Error(1)
}

func (m *MockOpportunityRepository) UpdateStatus(ctx context.Context, id string, from, to entity.LifecycleStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *MockOpportunityRepository) MarkActivated(ctx context.Context, id, crmStatus string, at time.Time) error {
	return m.Called(ctx, id, crmStatus, at).Error(0)
}

func (m *MockOpportunityRepository) SetCRMStatus(ctx context.Context, id, crmStatus string) error {
	return m.Called(ctx, id, crmStatus).Error(0)
}

func (m *MockOpportunityRepository) SaveDraft(ctx context.Context, id string, draft entity.OutreachDraft) error {
	return m.Called(ctx, id, draft).Error(0)
}

func (m *MockOpportunityRepository) Delete(ctx context.Context, tenantID, id string) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockOpportunityRepository) ExpireActivations(ctx context.Context, olderThan time.Time) ([]string, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockOpportunityRepository) AppendHistory(ctx context.Context, entry *entity.HistoryEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockOpportunityRepository) History(ctx context.Context, id string) ([]*entity.HistoryEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.HistoryEntry), args.Error(1)
}

// MockSignalRepository
type MockSignalRepository struct {
	mock.Mock
}

func (m *MockSignalRepository) Create(ctx context.Context, s *entity.Signal) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSignalRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Signal, int, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entity.Signal), args.Int(1), args.Error(2)
}

func (m *MockSignalRepository) UpdateWorkflowStatus(ctx context.Context, id string, status entity.SignalWorkflowStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

// MockUserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *entity.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

// MockQueueProducer
type MockQueueProducer struct {
	mock.Mock
}

func (m *MockQueueProducer) PublishWorkspaceAnalysis(ctx context.Context, payload queue.WorkspaceAnalysisPayload) error {
	return m.Called(ctx, payload).Error(0)
}

func (m *MockQueueProducer) PublishSignalIngestion(ctx context.Context, payload queue.SignalIngestionPayload) error {
	return m.Called(ctx, payload).Error(0)
}

func (m *MockQueueProducer) PublishReviewDecision(ctx context.Context, payload queue.ReviewDecisionPayload) error {
	return m.Called(ctx, payload).Error(0)
}

func (m *MockQueueProducer) PublishActivation(ctx context.Context, payload queue.ActivationPayload) error {
	return m.Called(ctx, payload).Error(0)
}

// MockCRMClient
type MockCRMClient struct {
	mock.Mock
}

func (m *MockCRMClient) CreateDeal(ctx context.Context, payload queue.ActivationPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendOutreach(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

// MockExporter
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(opp *entity.Opportunity, w io.Writer) error {
	return m.Called(opp, w).Error(0)
}

// MockTokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(user *entity.User) (string, time.Time, error) {
	args := m.Called(user)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// MockLister
type MockLister struct {
	mock.Mock
}

func (m *MockLister) List(ctx context.Context, limit, offset int) (*ListOpportunitiesOutput, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ListOpportunitiesOutput), args.Error(1)
}

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
