package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/xavierca1/clientpulse/internal/entity"
)

type OpportunityRepository struct {
	DB *sql.DB
}

func NewOpportunityRepository(db *sql.DB) *OpportunityRepository {
	return &OpportunityRepository{DB: db}
}

const opportunityColumns = `
	id, tenant_id, account_id, account_name, COALESCE(signal_id, ''), title, status,
	COALESCE(review_workflow_id, ''), score, score_breakdown, theme,
	pains, offers, next_steps, what_happened, why_it_matters, suggested_offer,
	proof, summary, evidence_refs, stakeholder_hints, draft_outreach,
	crm_status, crm_activated_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOpportunity(row rowScanner) (*entity.Opportunity, error) {
	var (
		o                        entity.Opportunity
		status                   string
		breakdown, evidence      []byte
		draft                    []byte
		activatedAt              sql.NullTime
		pains, offers, nextSteps pq.StringArray
		hints                    pq.StringArray
	)
	err := row.Scan(
		&o.ID,
		&o.TenantID,
		&o.AccountID,
		&o.AccountName,
		&o.SignalID,
		&o.Title,
		&status,
		&o.ReviewWorkflowID,
		&o.Score,
		&breakdown,
		&o.Theme,
		&pains,
		&offers,
		&nextSteps,
		&o.WhatHappened,
		&o.WhyItMatters,
		&o.SuggestedOffer,
		&o.Proof,
		&o.Summary,
		&evidence,
		&hints,
		&draft,
		&o.CRMStatus,
		&activatedAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Status = entity.LifecycleStatus(status)
	o.Pains = []string(pains)
	o.Offers = []string(offers)
	o.NextSteps = []string(nextSteps)
	o.StakeholderHints = []string(hints)
	if activatedAt.Valid {
		t := activatedAt.Time
		o.CRMActivatedAt = &t
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &o.ScoreBreakdown); err != nil {
			return nil, err
		}
	}
	if len(evidence) > 0 {
		if err := json.Unmarshal(evidence, &o.EvidenceRefs); err != nil {
			return nil, err
		}
	}
	if o.EvidenceRefs == nil {
		o.EvidenceRefs = []entity.EvidenceRef{}
	}
	if len(draft) > 0 {
		var d entity.OutreachDraft
		if err := json.Unmarshal(draft, &d); err != nil {
			return nil, err
		}
		o.DraftOutreach = &d
	}
	return &o, nil
}

// List returns the tenant's opportunities, best score first.
func (r *OpportunityRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Opportunity, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM opportunities WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + opportunityColumns + `
		FROM opportunities
		WHERE tenant_id = $1
		ORDER BY score DESC, created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	opps := []*entity.Opportunity{}
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, 0, err
		}
		opps = append(opps, o)
	}
	return opps, total, rows.Err()
}

func (r *OpportunityRepository) FindByID(ctx context.Context, tenantID, id string) (*entity.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + `
		FROM opportunities
		WHERE id = $1 AND tenant_id = $2`
	o, err := scanOpportunity(r.DB.QueryRowContext(ctx, query, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	return o, err
}

// UpdateStatus is a compare-and-set on the lifecycle status.
func (r *OpportunityRepository) UpdateStatus(ctx context.Context, id string, from, to entity.LifecycleStatus) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE opportunities SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

func (r *OpportunityRepository) MarkActivated(ctx context.Context, id, crmStatus string, at time.Time) error {
	query := `
		UPDATE opportunities
		SET status = $2, crm_status = $3, crm_activated_at = $4, updated_at = now()
		WHERE id = $1 AND (status IN ($5, $2) OR (status = $6 AND crm_status = $7))
	`
	res, err := r.DB.ExecContext(ctx, query,
		id,
		string(entity.LifecycleActivated),
		crmStatus,
		at,
		string(entity.LifecycleActivationRequested),
		string(entity.LifecycleActivationFailed),
		entity.CRMStatusTimeout,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

func (r *OpportunityRepository) SetCRMStatus(ctx context.Context, id, crmStatus string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE opportunities SET crm_status = $2, updated_at = now() WHERE id = $1`, id, crmStatus)
	if err != nil {
		return err
	}
	return expectRows(res)
}

func (r *OpportunityRepository) SaveDraft(ctx context.Context, id string, draft entity.OutreachDraft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE opportunities SET draft_outreach = $2, updated_at = now() WHERE id = $1`, id, raw)
	if err != nil {
		return err
	}
	return expectRows(res)
}

func (r *OpportunityRepository) Delete(ctx context.Context, tenantID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM opportunities WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	return expectRows(res)
}

func (r *OpportunityRepository) ExpireActivations(ctx context.Context, olderThan time.Time) ([]string, error) {
	query := `
		UPDATE opportunities
		SET status = $1, crm_status = $2, updated_at = now()
		WHERE status = $3 AND crm_status = $4 AND updated_at < $5
		RETURNING id
	`
	rows, err := r.DB.QueryContext(ctx, query,
		string(entity.LifecycleActivationFailed),
		entity.CRMStatusTimeout,
		string(entity.LifecycleActivationRequested),
		entity.CRMStatusPending,
		olderThan,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *OpportunityRepository) AppendHistory(ctx context.Context, e *entity.HistoryEntry) error {
	query := `
		INSERT INTO opportunity_history (id, opportunity_id, action, from_status, to_status, workflow_id, actor_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)
	`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID,
		e.OpportunityID,
		e.Action,
		string(e.FromStatus),
		string(e.ToStatus),
		e.WorkflowID,
		e.ActorID,
		e.Note,
		e.CreatedAt,
	)
	return err
}

func (r *OpportunityRepository) History(ctx context.Context, id string) ([]*entity.HistoryEntry, error) {
	query := `
		SELECT id, opportunity_id, action, from_status, to_status,
		       COALESCE(workflow_id, ''), COALESCE(actor_id, ''), note, created_at
		FROM opportunity_history
		WHERE opportunity_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*entity.HistoryEntry{}
	for rows.Next() {
		var e entity.HistoryEntry
		var from, to string
		if err := rows.Scan(&e.ID, &e.OpportunityID, &e.Action, &from, &to, &e.WorkflowID, &e.ActorID, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.FromStatus = entity.LifecycleStatus(from)
		e.ToStatus = entity.LifecycleStatus(to)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// missingOrConflict tells a vanished row apart from a lost status race.
func (r *OpportunityRepository) missingOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM opportunities WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return entity.ErrNotFound
	}
	return entity.ErrStatusConflict
}
