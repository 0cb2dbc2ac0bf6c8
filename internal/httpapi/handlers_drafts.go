package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dhiway/jobstack-bap/internal/errs"
)

type draftUpsertRequest struct {
	UserID   string          `json:"user_id"`
	JobID    string          `json:"job_id"`
	BppID    string          `json:"bpp_id"`
	BppURI   string          `json:"bpp_uri"`
	Metadata json.RawMessage `json:"metadata"`
}

// handleDraftUpsert implements POST /api/v1/job-applications/drafts
// (spec §4.6: upsert semantics over (user_id, job_id, bpp_id)).
func (s *Server) handleDraftUpsert(w http.ResponseWriter, r *http.Request) {
	var req draftUpsertRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(s.d.Log, w, "drafts_upsert", errs.Validation("decode request", err))
		return
	}
	if req.UserID == "" || req.JobID == "" {
		writeError(s.d.Log, w, "drafts_upsert", errs.Validation("user_id and job_id are required", nil))
		return
	}

	draft, err := s.d.Drafts.Upsert(r.Context(), req.UserID, req.JobID, req.BppID, req.BppURI, req.Metadata)
	if err != nil {
		writeError(s.d.Log, w, "drafts_upsert", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// handleDraftList implements GET /api/v1/job-applications/drafts?user_id=.
func (s *Server) handleDraftList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(s.d.Log, w, "drafts_list", errs.Validation("user_id is required", nil))
		return
	}
	drafts, err := s.d.Drafts.List(r.Context(), userID)
	if err != nil {
		writeError(s.d.Log, w, "drafts_list", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drafts": drafts})
}

func draftID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// handleDraftGet implements GET /api/v1/job-applications/drafts/{id}.
func (s *Server) handleDraftGet(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		writeError(s.d.Log, w, "drafts_get", errs.Validation("invalid id", err))
		return
	}
	draft, err := s.d.Drafts.Get(r.Context(), id)
	if err != nil {
		writeError(s.d.Log, w, "drafts_get", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// handleDraftPatch implements PATCH /api/v1/job-applications/drafts/{id}
// with RFC 7396 merge-patch semantics over metadata.
func (s *Server) handleDraftPatch(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		writeError(s.d.Log, w, "drafts_patch", errs.Validation("invalid id", err))
		return
	}
	patch, err := readBody(r)
	if err != nil {
		writeError(s.d.Log, w, "drafts_patch", errs.Validation("read body", err))
		return
	}
	draft, err := s.d.Drafts.Patch(r.Context(), id, patch)
	if err != nil {
		writeError(s.d.Log, w, "drafts_patch", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// handleDraftDelete implements DELETE /api/v1/job-applications/drafts/{id}.
func (s *Server) handleDraftDelete(w http.ResponseWriter, r *http.Request) {
	id, err := draftID(r)
	if err != nil {
		writeError(s.d.Log, w, "drafts_delete", errs.Validation("invalid id", err))
		return
	}
	if err := s.d.Drafts.Delete(r.Context(), id); err != nil {
		writeError(s.d.Log, w, "drafts_delete", err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
