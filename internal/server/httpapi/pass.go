package httpapi

import (
	"net/http"
	"strconv"

	"github.com/Naimehossein77/gym-nfc/internal/passkit"
)

// PassHandler serves wallet pass signing and certificate readiness.
type PassHandler struct {
	pass PassService
}

type signPassRequest struct {
	SerialNumber       string `json:"serial_number"`
	Description        string `json:"description"`
	OrganizationName   string `json:"organization_name"`
	PassTypeIdentifier string `json:"pass_type_identifier"`
	TeamIdentifier     string `json:"team_identifier"`
	Message            string `json:"message"`
}

// Sign builds, signs, and streams the pass bundle. When the archive store
// is configured the presigned download URL travels in a response header so
// the body stays raw pkpass bytes either way.
func (h *PassHandler) Sign(w http.ResponseWriter, r *http.Request) {
	var req signPassRequest
	if err := decodeBody(r, &req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	issued, err := h.pass.Issue(r.Context(), &passkit.Declaration{
		SerialNumber:       req.SerialNumber,
		Description:        req.Description,
		OrganizationName:   req.OrganizationName,
		PassTypeIdentifier: req.PassTypeIdentifier,
		TeamIdentifier:     req.TeamIdentifier,
		Message:            req.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.apple.pkpass")
	w.Header().Set("Content-Length", strconv.Itoa(len(issued.Archive)))
	w.Header().Set("Content-Disposition", `attachment; filename="pass.pkpass"`)
	if issued.DownloadURL != "" {
		w.Header().Set("X-Pass-Download-Url", issued.DownloadURL)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(issued.Archive)
}

func (h *PassHandler) CertificateStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pass.CertificateStatus())
}
