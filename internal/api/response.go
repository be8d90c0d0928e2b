package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/anushankari123/docuchain/internal/qrcode"
	"github.com/anushankari123/docuchain/internal/registry"
)

// certificateResponse is the wire shape of a registry record. EverIssued
// distinguishes a revoked certificate from one that was never submitted;
// both report active=false.
type certificateResponse struct {
	Key            string `json:"key"`
	Active         bool   `json:"active"`
	EverIssued     bool   `json:"everIssued"`
	Owner          string `json:"owner,omitempty"`
	IssuedAt       int64  `json:"issuedAt,omitempty"`
	StorageLocator string `json:"storageLocator,omitempty"`
	StorageURL     string `json:"storageUrl,omitempty"`
	QRPayload      string `json:"qrPayload"`
}

type statsResponse struct {
	TotalIssued  uint64 `json:"totalIssued"`
	TotalRevoked uint64 `json:"totalRevoked"`
	ActiveCount  uint64 `json:"activeCount"`
}

// errorResponse is the wire shape of every failure. Retriable marks
// transient backend conditions; validation, conflict, and authorization
// failures are final for the given input.
type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retriable bool   `json:"retriable,omitempty"`
}

func (s *Server) certificateResponse(rec registry.Record, everIssued bool) certificateResponse {
	resp := certificateResponse{
		Key:            rec.Key.Hex(),
		Active:         rec.Active,
		EverIssued:     everIssued,
		Owner:          rec.Owner,
		IssuedAt:       rec.IssuedAt,
		StorageLocator: rec.StorageLocator,
		QRPayload:      qrcode.Payload(rec.Key),
	}
	if s.pinner != nil && rec.StorageLocator != "" {
		resp.StorageURL = s.pinner.GatewayURL(rec.StorageLocator)
	}
	return resp
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// respondError maps registry errors to HTTP statuses and stable error
// codes.
func respondError(w http.ResponseWriter, err error) {
	var (
		status    int
		code      string
		retriable bool
	)

	switch {
	case errors.Is(err, registry.ErrInvalidKey):
		status, code = http.StatusBadRequest, "invalid_key"
	case errors.Is(err, registry.ErrInvalidLocator):
		status, code = http.StatusBadRequest, "invalid_locator"
	case errors.Is(err, registry.ErrNotAuthorized):
		status, code = http.StatusForbidden, "not_authorized"
	case errors.Is(err, registry.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, registry.ErrAlreadyIssued):
		status, code = http.StatusConflict, "already_issued"
	case errors.Is(err, registry.ErrAlreadyRevoked):
		status, code = http.StatusConflict, "already_revoked"
	case errors.Is(err, registry.ErrUnavailable):
		status, code, retriable = http.StatusBadGateway, "backend_unavailable", true
	default:
		status, code = http.StatusInternalServerError, "internal"
	}

	respondJSON(w, status, errorResponse{
		Error:     code,
		Message:   err.Error(),
		Retriable: retriable,
	})
}

func respondBadRequest(w http.ResponseWriter, code, message string) {
	respondJSON(w, http.StatusBadRequest, errorResponse{Error: code, Message: message})
}
