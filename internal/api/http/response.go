package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ecodefill-backend/internal/identity"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/repository"
	"ecodefill-backend/internal/roster"
	"ecodefill-backend/internal/security"
	"ecodefill-backend/internal/service"
)

type envelope struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Data: data}); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
		msg = "Something went wrong. Please try again."
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: &errorBody{Code: code, Message: msg}})
}

// classify maps domain errors onto an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, identity.ErrWeakPassword),
		errors.Is(err, roster.ErrInvalidStatus),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, security.ErrInvalidToken),
		errors.Is(err, security.ErrExpiredToken),
		errors.Is(err, security.ErrSessionRevoked),
		errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, service.ErrAdminPortalOnly),
		errors.Is(err, service.ErrAdminRequired),
		errors.Is(err, service.ErrAdminSetupDisabled),
		errors.Is(err, errForbidden):
		return http.StatusForbidden, "permission_denied"
	case errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, roster.ErrUnknownMember),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, identity.ErrEmailInUse),
		errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, roster.ErrBusy),
		errors.Is(err, roster.ErrInvalidTransition):
		return http.StatusConflict, "failed_precondition"
	case errors.Is(err, roster.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, "resource_exhausted"
	}
	return http.StatusInternalServerError, "internal"
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
