package httpapi

import (
	"net/http"
	"strconv"
	"time"
)

// NFCHandler serves the reader endpoints: card writes go through the
// provisioning workflow, reads and status hit the gateway directly.
type NFCHandler struct {
	provision ProvisionService
	gateway   Gateway
	tokens    TokenService
}

type nfcWriteRequest struct {
	Token          string `json:"token"`
	MemberID       int64  `json:"member_id"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func (h *NFCHandler) Write(w http.ResponseWriter, r *http.Request) {
	var req nfcWriteRequest
	if err := decodeBody(r, &req); err != nil || req.Token == "" || req.MemberID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "token and member_id are required"})
		return
	}

	timeout := time.Duration(req.TimeoutSeconds) * time.Second
	result, err := h.provision.Provision(r.Context(), req.Token, req.MemberID, timeout)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *NFCHandler) Read(w http.ResponseWriter, r *http.Request) {
	var timeout time.Duration
	if v := r.URL.Query().Get("timeout"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid timeout"})
			return
		}
		timeout = time.Duration(seconds) * time.Second
	}

	result := h.gateway.Read(r.Context(), timeout)
	writeJSON(w, http.StatusOK, result)
}

func (h *NFCHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gateway.Status(r.Context()))
}

type validatePayloadRequest struct {
	Payload string `json:"payload"`
}

func (h *NFCHandler) ValidatePayload(w http.ResponseWriter, r *http.Request) {
	var req validatePayloadRequest
	if err := decodeBody(r, &req); err != nil || req.Payload == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "payload is required"})
		return
	}

	result, err := h.tokens.ValidatePayload(r.Context(), req.Payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
