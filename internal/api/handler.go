// Package api exposes training sessions over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/alexanderramin/pistemind/internal/contract"
	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/intelligence"
	"github.com/alexanderramin/pistemind/internal/logging"
	"github.com/alexanderramin/pistemind/internal/repository"
	"github.com/alexanderramin/pistemind/internal/service"
)

const maxBodyBytes = 1 << 20

// Handler serves the session API.
type Handler struct {
	sessions service.SessionService
	log      *logging.Logger
}

func NewHandler(sessions service.SessionService, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.Nop()
	}
	return &Handler{sessions: sessions, log: log.With("component", "api")}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"code":"INTERNAL_ERROR","message":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, code contract.ErrorCode, message string) {
	JSON(w, status, contract.ErrorResponse{Code: code, Message: message})
}

// writeError maps service errors onto status codes. Gateway failures are
// checked before validation because they wrap validation errors.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stateErr *service.SessionStateError
		gwErr    *intelligence.GatewayError
		valErr   *domain.ValidationError
		bodyErr  *badRequestError
	)
	switch {
	case errors.As(err, &bodyErr):
		Error(w, http.StatusBadRequest, contract.ErrBadRequest, bodyErr.Error())
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, repository.ErrNotFound):
		Error(w, http.StatusNotFound, contract.ErrNotFound, err.Error())
	case errors.As(err, &stateErr):
		JSON(w, http.StatusConflict, contract.ErrorResponse{
			Code:    contract.ErrInvalidState,
			Message: err.Error(),
			Current: string(stateErr.Current),
		})
	case errors.Is(err, service.ErrMissingSessionData):
		Error(w, http.StatusConflict, contract.ErrInvalidState, err.Error())
	case errors.Is(err, repository.ErrConflict):
		Error(w, http.StatusConflict, contract.ErrConflict, err.Error())
	case errors.As(err, &gwErr):
		h.log.Warn("generation failed", "path", r.URL.Path, "kind", gwErr.Kind, "error", err)
		Error(w, http.StatusBadGateway, contract.ErrGeneration, err.Error())
	case errors.As(err, &valErr):
		JSON(w, http.StatusUnprocessableEntity, contract.ErrorResponse{
			Code:    contract.ErrValidation,
			Message: err.Error(),
			Field:   valErr.Field,
		})
	default:
		h.log.Error("request failed", "path", r.URL.Path, "error", err)
		Error(w, http.StatusInternalServerError, contract.ErrInternal, "internal error")
	}
}

type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return "invalid request body: " + e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

// decode reads an optional JSON body into v. An empty body leaves v as is.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &badRequestError{err: err}
	}
	if dec.More() {
		return &badRequestError{err: fmt.Errorf("trailing data after JSON object")}
	}
	return nil
}
