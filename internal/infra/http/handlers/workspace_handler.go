package handlers

import (
	"context"
	"net/http"

	"github.com/xavierca1/clientpulse/internal/infra/http/middleware"
	"github.com/xavierca1/clientpulse/internal/logging"
	"github.com/xavierca1/clientpulse/internal/usecase"
)

type WorkspaceCreator interface {
	Execute(ctx context.Context, input usecase.CreateWorkspaceInput) (usecase.WorkspaceResult, error)
}

type WorkspaceHandler struct {
	CreateWorkspaceUC WorkspaceCreator
	Logger            logging.Logger
}

func NewWorkspaceHandler(uc WorkspaceCreator, logger logging.Logger) *WorkspaceHandler {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &WorkspaceHandler{CreateWorkspaceUC: uc, Logger: logger}
}

// Create (POST /workspaces) answers with the tagged result in every case so
// the wizard can show the message: 201 created, 422 rejected, 500 broken.
func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateWorkspaceInput
	if err := decodeJSON(r, &input, false); err != nil {
		writeJSON(w, http.StatusBadRequest, usecase.WorkspaceFailed("Invalid request body"))
		return
	}

	if actor, ok := middleware.ActorFrom(r.Context()); ok {
		input.OwnerID = actor.UserID
		input.TenantID = actor.TenantID
	}

	result, err := h.CreateWorkspaceUC.Execute(r.Context(), input)
	if err != nil {
		h.Logger.Error("workspace creation failed", "company", input.CompanyName, "error", err)
		middleware.RecordWorkspaceCreated(false)
		writeJSON(w, http.StatusInternalServerError, usecase.WorkspaceFailed(usecase.MsgGeneralError))
		return
	}

	middleware.RecordWorkspaceCreated(result.Success)
	if !result.Success {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
