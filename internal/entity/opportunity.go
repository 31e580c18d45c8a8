package entity

import (
	"context"
	"time"
)

type ScoreBreakdown struct {
	Impact         float64  `json:"impact"`
	Urgency        float64  `json:"urgency"`
	Fit            float64  `json:"fit"`
	Access         float64  `json:"access"`
	Feasibility    float64  `json:"feasibility"`
	Confidence     *float64 `json:"confidence,omitempty"`
	FeedbackFactor *float64 `json:"feedback_factor,omitempty"`
}

// EvidenceRef points at the source material behind an opportunity.
type EvidenceRef struct {
	ID             string   `json:"id,omitempty"`
	SignalID       string   `json:"signal_id,omitempty"`
	Title          string   `json:"title,omitempty"`
	Domain         string   `json:"domain,omitempty"`
	URL            string   `json:"url,omitempty"`
	SourceType     string   `json:"source_type,omitempty"` // article, pdf, site, news, research, filing
	Snippet        string   `json:"snippet,omitempty"`
	Excerpt        string   `json:"excerpt,omitempty"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

// OutreachDraft is the message prepared for the account contact.
type OutreachDraft struct {
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Recipient string    `json:"recipient"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CRM dispatch states stored in crm_status.
const (
	CRMStatusPending   = "pending"
	CRMStatusActivated = "activated"
	CRMStatusFailed    = "failed"
	CRMStatusTimeout   = "timeout"
)

type Opportunity struct {
	ID               string          `json:"id"`
	TenantID         string          `json:"tenant_id"`
	AccountID        string          `json:"account_id"`
	AccountName      string          `json:"account_name,omitempty"`
	SignalID         string          `json:"signal_id,omitempty"`
	Title            string          `json:"title"`
	Status           LifecycleStatus `json:"status"`
	ReviewWorkflowID string          `json:"review_workflow_id,omitempty"`
	Score            float64         `json:"score"`
	ScoreBreakdown   ScoreBreakdown  `json:"score_breakdown"`
	Theme            string          `json:"theme,omitempty"`
	Pains            []string        `json:"pains"`
	Offers           []string        `json:"offers"`
	NextSteps        []string        `json:"next_steps"`
	WhatHappened     string          `json:"what_happened,omitempty"`
	WhyItMatters     string          `json:"why_it_matters,omitempty"`
	SuggestedOffer   string          `json:"suggested_offer,omitempty"`
	Proof            string          `json:"proof,omitempty"`
	Summary          string          `json:"summary,omitempty"`
	EvidenceRefs     []EvidenceRef   `json:"evidence_refs"`
	StakeholderHints []string        `json:"stakeholder_hints"`
	DraftOutreach    *OutreachDraft  `json:"draft_outreach,omitempty"`
	CRMStatus        string          `json:"crm_status,omitempty"`
	CRMActivatedAt   *time.Time      `json:"crm_activated_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// DisplayStatus reduces the opportunity to its board status.
func (o *Opportunity) DisplayStatus(snoozed bool) DisplayStatus {
	return MapToDisplayStatus(string(o.Status), o.CRMActivatedAt, snoozed)
}

// HistoryEntry records one lifecycle change of an opportunity.
type HistoryEntry struct {
	ID            string          `json:"id"`
	OpportunityID string          `json:"opportunity_id"`
	Action        string          `json:"action"`
	FromStatus    LifecycleStatus `json:"from_status"`
	ToStatus      LifecycleStatus `json:"to_status"`
	WorkflowID    string          `json:"workflow_id,omitempty"`
	ActorID       string          `json:"actor_id,omitempty"`
	Note          string          `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type OpportunityRepositoryInterface interface {
	List(ctx context.Context, tenantID string, limit, offset int) ([]*Opportunity, int, error)
	FindByID(ctx context.Context, tenantID, id string) (*Opportunity, error)
	UpdateStatus(ctx context.Context, id string, from, to LifecycleStatus) error
	// MarkActivated moves activation_requested to activated and stamps
	// crm_activated_at. An activation the reconciler timed out is accepted
	// too, since the deal exists after all.
	MarkActivated(ctx context.Context, id, crmStatus string, at time.Time) error
	SetCRMStatus(ctx context.Context, id, crmStatus string) error
	SaveDraft(ctx context.Context, id string, draft OutreachDraft) error
	Delete(ctx context.Context, tenantID, id string) error
	// ExpireActivations fails dispatched activations last touched before
	// olderThan and returns their ids.
	ExpireActivations(ctx context.Context, olderThan time.Time) ([]string, error)
	AppendHistory(ctx context.Context, entry *HistoryEntry) error
	History(ctx context.Context, id string) ([]*HistoryEntry, error)
}
