package handlers

import (
	"context"
	"net/http"

	"github.com/xavierca1/clientpulse/internal/logging"
	"github.com/xavierca1/clientpulse/internal/usecase"
)

type SignalService interface {
	Create(ctx context.Context, actor usecase.Actor, input usecase.CreateSignalInput) (*usecase.CreateSignalOutput, error)
	List(ctx context.Context, actor usecase.Actor, limit, offset int) (*usecase.ListSignalsOutput, error)
}

type SignalHandler struct {
	Signals SignalService
	Logger  logging.Logger
}

func NewSignalHandler(signals SignalService, logger logging.Logger) *SignalHandler {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &SignalHandler{Signals: signals, Logger: logger}
}

// Create (POST /signals) queues the signal for ingestion and answers 202.
func (h *SignalHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	var input usecase.CreateSignalInput
	if err := decodeJSON(r, &input, false); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	out, err := h.Signals.Create(r.Context(), actor, input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}

func (h *SignalHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	out, err := h.Signals.List(r.Context(), actor, limit, offset)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
