package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dhiway/jobstack-bap/internal/apply"
	"github.com/dhiway/jobstack-bap/internal/errs"
)

type correlatedRequest struct {
	TransactionID string          `json:"transaction_id"`
	BppID         string          `json:"bpp_id"`
	BppURI        string          `json:"bpp_uri"`
	Message       json.RawMessage `json:"message"`
}

// handleSelect implements POST /api/v1/select: synchronous passthrough
// via the correlator (spec §4.6 / §6).
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req correlatedRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(s.d.Log, w, "select", errs.Validation("decode request", err))
		return
	}
	payload, err := s.d.Apply.Select(r.Context(), req.TransactionID, req.BppID, req.BppURI, req.Message)
	if err != nil {
		writeError(s.d.Log, w, "select", err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleStatus implements POST /api/v1/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var req correlatedRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(s.d.Log, w, "status", errs.Validation("decode request", err))
		return
	}
	payload, err := s.d.Apply.Status(r.Context(), req.TransactionID, req.BppID, req.BppURI, req.Message)
	if err != nil {
		writeError(s.d.Log, w, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

type applyRequest struct {
	UserID string          `json:"user_id"`
	JobID  string          `json:"job_id"`
	BppID  string          `json:"bpp_id"`
	BppURI string          `json:"bpp_uri"`
	Order  json.RawMessage `json:"order"`
}

// handleApply implements POST /api/v1/apply: the init→confirm chain with
// idempotent short-circuit (spec §4.6).
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(s.d.Log, w, "apply", errs.Validation("decode request", err))
		return
	}
	if req.UserID == "" || req.JobID == "" {
		writeError(s.d.Log, w, "apply", errs.Validation("user_id and job_id are required", nil))
		return
	}

	// Conflict (an existing application) maps to 200 with the existing
	// row per spec §7; both outcomes share the same status code, so the
	// coordinator's "existed" flag doesn't need to affect the response.
	payload, _, err := s.d.Apply.Apply(r.Context(), apply.Request{
		UserID: req.UserID,
		JobID:  req.JobID,
		BppID:  req.BppID,
		BppURI: req.BppURI,
		Order:  req.Order,
	})
	if err != nil {
		writeError(s.d.Log, w, "apply", err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleListApplications implements GET /api/v1/job-applications?user_id=.
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(s.d.Log, w, "list_applications", errs.Validation("user_id is required", nil))
		return
	}
	status := r.URL.Query().Get("status")

	apps, err := s.d.Store.ListApplications(r.Context(), userID, status)
	if err != nil {
		writeError(s.d.Log, w, "list_applications", errs.StoreUnavailable("list applications", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": apps})
}
