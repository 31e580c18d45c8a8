package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/xavierca1/clientpulse/internal/infra/http/middleware"
	"github.com/xavierca1/clientpulse/internal/logging"
	"github.com/xavierca1/clientpulse/internal/usecase"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeError maps usecase errors to a status code. Technical details stay in
// the log.
func writeError(w http.ResponseWriter, logger logging.Logger, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		writeJSON(w, domainStatus(de.Code), ErrorResponse{Error: de.Code, Message: de.Message, Fields: de.Fields})
		return
	}

	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		logger.Error("request failed", "code", te.Code, "error", err, "cause", te.Err)
		status := http.StatusInternalServerError
		if te.Code == usecase.CodeIntegration {
			status = http.StatusBadGateway
		}
		writeErrorResponse(w, status, te.Code, te.Message)
		return
	}

	logger.Error("unexpected error", "error", err)
	writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", usecase.MsgGeneralError)
}

func domainStatus(code string) int {
	switch code {
	case usecase.CodeValidation:
		return http.StatusBadRequest
	case usecase.CodeNotFound:
		return http.StatusNotFound
	case usecase.CodeInvalidTransition, usecase.CodeConflict:
		return http.StatusConflict
	case usecase.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusUnprocessableEntity
	}
}

// decodeJSON tolerates an empty body for endpoints whose payload is optional.
func decodeJSON(r *http.Request, dst any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

func actorOrUnauthorized(w http.ResponseWriter, r *http.Request) (usecase.Actor, bool) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "authentication required")
	}
	return actor, ok
}
