package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/infra/http/middleware"
	"github.com/xavierca1/clientpulse/internal/logging"
	"github.com/xavierca1/clientpulse/internal/usecase"
)

type OpportunityReviewer interface {
	List(ctx context.Context, actor usecase.Actor, limit, offset int) (*usecase.ListOpportunitiesOutput, error)
	Get(ctx context.Context, actor usecase.Actor, id string) (*entity.Opportunity, error)
	History(ctx context.Context, actor usecase.Actor, id string) ([]*entity.HistoryEntry, error)
	Review(ctx context.Context, actor usecase.Actor, id string) (*usecase.ReviewDecisionOutput, error)
	Approve(ctx context.Context, actor usecase.Actor, id string, input usecase.ApproveInput) (*usecase.ReviewDecisionOutput, error)
	Reject(ctx context.Context, actor usecase.Actor, id string, input usecase.RejectInput) (*usecase.ReviewDecisionOutput, error)
	Refine(ctx context.Context, actor usecase.Actor, id string, input usecase.RefineInput) (*usecase.ReviewDecisionOutput, error)
	NeedsMoreEvidence(ctx context.Context, actor usecase.Actor, id string, input usecase.NeedsMoreEvidenceInput) (*usecase.ReviewDecisionOutput, error)
	Delete(ctx context.Context, actor usecase.Actor, id string) error
}

type OutreachService interface {
	DraftOutreach(ctx context.Context, actor usecase.Actor, id string, input usecase.DraftOutreachInput) (*usecase.ReviewDecisionOutput, error)
	Send(ctx context.Context, actor usecase.Actor, id string) (*usecase.ActivateCRMOutput, error)
	Resend(ctx context.Context, actor usecase.Actor, id string) (*usecase.ActivateCRMOutput, error)
	ActivateCRM(ctx context.Context, actor usecase.Actor, id, crmSystem string) (*usecase.ActivateCRMOutput, error)
}

type OpportunityExporter interface {
	Execute(ctx context.Context, actor usecase.Actor, id string, w io.Writer) error
}

type OpportunityHandler struct {
	Review   OpportunityReviewer
	Outreach OutreachService
	Export   OpportunityExporter
	Logger   logging.Logger
}

func NewOpportunityHandler(review OpportunityReviewer, outreach OutreachService, export OpportunityExporter, logger logging.Logger) *OpportunityHandler {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &OpportunityHandler{Review: review, Outreach: outreach, Export: export, Logger: logger}
}

// Routes mounts the opportunity endpoints on r.
func (h *OpportunityHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Get("/history", h.History)
		r.Get("/export", h.ExportPDF)
		r.Post("/review", h.SubmitForReview)
		r.Post("/approve", h.Approve)
		r.Post("/reject", h.Reject)
		r.Post("/refine", h.Refine)
		r.Post("/needs-more-evidence", h.NeedsMoreEvidence)
		r.Post("/draft-outreach", h.DraftOutreach)
		r.Post("/send", h.Send)
		r.Post("/resend", h.Resend)
		r.Post("/activate-crm", h.ActivateCRM)
	})
}

func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	out, err := h.Review.List(r.Context(), actor, limit, offset)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OpportunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	opp, err := h.Review.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, opp)
}

func (h *OpportunityHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	entries, err := h.Review.History(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (h *OpportunityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	if err := h.Review.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OpportunityHandler) SubmitForReview(w http.ResponseWriter, r *http.Request) {
	h.decision(w, r, usecase.DecisionReview, func(ctx context.Context, actor usecase.Actor, id string) (*usecase.ReviewDecisionOutput, error) {
		return h.Review.Review(ctx, actor, id)
	})
}

func (h *OpportunityHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var input usecase.ApproveInput
	if err := decodeJSON(r, &input, true); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	h.decision(w, r, usecase.DecisionApprove, func(ctx context.Context, actor usecase.Actor, id string) (*usecase.ReviewDecisionOutput, error) {
		return h.Review.Approve(ctx, actor, id, input)
	})
}

func (h *OpportunityHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var input usecase.RejectInput
	if err := decodeJSON(r, &input, true); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	h.decision(w, r, usecase.DecisionReject, func(ctx context.Context, actor usecase.Actor, id string) (*usecase.ReviewDecisionOutput, error) {
		return h.Review.Reject(ctx, actor, id, input)
	})
}

func (h *OpportunityHandler) Refine(w http.ResponseWriter, r *http.Request) {
	var input usecase.RefineInput
	if err := decodeJSON(r, &input, true); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	h.decision(w, r, usecase.DecisionRefine, func(ctx context.Context, actor usecase.Actor, id string) (*usecase.ReviewDecisionOutput, error) {
		return h.Review.Refine(ctx, actor, id, input)
	})
}

func (h *OpportunityHandler) NeedsMoreEvidence(w http.ResponseWriter, r *http.Request) {
	var input usecase.NeedsMoreEvidenceInput
	if err := decodeJSON(r, &input, true); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	h.decision(w, r, usecase.DecisionNeedsMoreEvidence, func(ctx context.Context, actor usecase.Actor, id string) (*usecase.ReviewDecisionOutput, error) {
		return h.Review.NeedsMoreEvidence(ctx, actor, id, input)
	})
}

func (h *OpportunityHandler) DraftOutreach(w http.ResponseWriter, r *http.Request) {
	var input usecase.DraftOutreachInput
	if err := decodeJSON(r, &input, false); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	h.decision(w, r, string(entity.ActionDraftOutreach), func(ctx context.Context, actor usecase.Actor, id string) (*usecase.ReviewDecisionOutput, error) {
		return h.Outreach.DraftOutreach(ctx, actor, id, input)
	})
}

func (h *OpportunityHandler) Send(w http.ResponseWriter, r *http.Request) {
	h.activation(w, r, func(ctx context.Context, actor usecase.Actor, id string) (*usecase.ActivateCRMOutput, error) {
		return h.Outreach.Send(ctx, actor, id)
	})
}

func (h *OpportunityHandler) Resend(w http.ResponseWriter, r *http.Request) {
	h.activation(w, r, func(ctx context.Context, actor usecase.Actor, id string) (*usecase.ActivateCRMOutput, error) {
		return h.Outreach.Resend(ctx, actor, id)
	})
}

// ActivateCRM (POST /opportunities/{id}/activate-crm?crm_system=hubspot)
func (h *OpportunityHandler) ActivateCRM(w http.ResponseWriter, r *http.Request) {
	crmSystem := r.URL.Query().Get("crm_system")
	h.activation(w, r, func(ctx context.Context, actor usecase.Actor, id string) (*usecase.ActivateCRMOutput, error) {
		return h.Outreach.ActivateCRM(ctx, actor, id, crmSystem)
	})
}

// ExportPDF renders into memory first so a failed render still gets a JSON
// error instead of a truncated PDF.
func (h *OpportunityHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var buf bytes.Buffer
	if err := h.Export.Execute(r.Context(), actor, id, &buf); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="opportunity-`+id+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *OpportunityHandler) decision(w http.ResponseWriter, r *http.Request, name string, run func(context.Context, usecase.Actor, string) (*usecase.ReviewDecisionOutput, error)) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	out, err := run(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	middleware.RecordReviewDecision(name)
	writeJSON(w, http.StatusOK, out)
}

func (h *OpportunityHandler) activation(w http.ResponseWriter, r *http.Request, run func(context.Context, usecase.Actor, string) (*usecase.ActivateCRMOutput, error)) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	out, err := run(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}
