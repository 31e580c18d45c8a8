package handlers

import (
	"context"
	"net/http"

	"github.com/xavierca1/clientpulse/internal/logging"
	"github.com/xavierca1/clientpulse/internal/usecase"
)

type Authenticator interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*usecase.AuthOutput, error)
	Login(ctx context.Context, input usecase.LoginInput) (*usecase.AuthOutput, error)
}

type AuthHandler struct {
	Auth   Authenticator
	Logger logging.Logger
}

func NewAuthHandler(auth Authenticator, logger logging.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &AuthHandler{Auth: auth, Logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input usecase.RegisterInput
	if err := decodeJSON(r, &input, false); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	out, err := h.Auth.Register(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input usecase.LoginInput
	if err := decodeJSON(r, &input, false); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	out, err := h.Auth.Login(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
