// Package httpapi exposes the system over HTTP: a thin chi-based layer that
// decodes requests, calls services, and maps sentinel errors to status codes.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Naimehossein77/gym-nfc/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service sentinels to HTTP status codes. Anything
// unrecognized is a 500 with a generic body so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrTokenNotFound),
		errors.Is(err, common.ErrMemberNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrTokenInvalid),
		errors.Is(err, common.ErrOwnershipMismatch),
		errors.Is(err, common.ErrMemberInactive),
		errors.Is(err, common.ErrNoPayloadKey):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrDuplicateToken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrConfigurationMissing):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrSigningFailed),
		errors.Is(err, common.ErrOperationFailed):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
