package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Naimehossein77/gym-nfc/internal/server/models"
)

// TokenHandler serves the token lifecycle endpoints.
type TokenHandler struct {
	tokens TokenService
}

type generateTokenRequest struct {
	MemberID int64 `json:"member_id"`
	TTLDays  *int  `json:"ttl_days"`
}

type tokenResponse struct {
	ID        int64      `json:"id"`
	Token     string     `json:"token"`
	MemberID  int64      `json:"member_id"`
	IsActive  bool       `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

type issuedTokenResponse struct {
	tokenResponse
	EncryptedPayload string `json:"encrypted_payload,omitempty"`
}

func toTokenResponse(t *models.Token) tokenResponse {
	return tokenResponse{
		ID:        t.ID,
		Token:     t.Token,
		MemberID:  t.MemberID,
		IsActive:  t.IsActive,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
	}
}

func (h *TokenHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateTokenRequest
	if err := decodeBody(r, &req); err != nil || req.MemberID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "member_id is required"})
		return
	}
	// ttl_days 0 is allowed: it issues an already-expired token, which is
	// useful for validation rehearsals at the front desk.
	if req.TTLDays != nil && *req.TTLDays < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "ttl_days must not be negative"})
		return
	}

	issued, err := h.tokens.Generate(r.Context(), req.MemberID, req.TTLDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, issuedTokenResponse{
		tokenResponse:    toTokenResponse(issued.Token),
		EncryptedPayload: issued.EncryptedPayload,
	})
}

type validateTokenResponse struct {
	Valid bool           `json:"valid"`
	Token *tokenResponse `json:"token,omitempty"`
}

func (h *TokenHandler) Validate(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	valid, err := h.tokens.IsValid(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := validateTokenResponse{Valid: valid}
	if valid {
		t, err := h.tokens.Get(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		tr := toTokenResponse(t)
		resp.Token = &tr
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TokenHandler) ListForMember(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid member id"})
		return
	}

	tokens, err := h.tokens.ListForMember(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]tokenResponse, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, toTokenResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"member_id": id, "tokens": out})
}

func (h *TokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	revoked, err := h.tokens.Revoke(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"revoked": revoked})
}

func (h *TokenHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	count, err := h.tokens.CleanupExpired(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deactivated": count})
}
