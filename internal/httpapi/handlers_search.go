package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dhiway/jobstack-bap/internal/errs"
	"github.com/dhiway/jobstack-bap/internal/search"
)

type searchV1Response struct {
	TransactionID string            `json:"transaction_id"`
	Results       []json.RawMessage `json:"results"`
}

// handleSearchV1 implements POST /api/v1/search: the client-facing cached
// fan-in of spec §4.5. The request body is the raw intent/message
// document used verbatim for the query fingerprint.
func (s *Server) handleSearchV1(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(s.d.Log, w, "search_v1", errs.Validation("read body", err))
		return
	}

	results, txnID, err := s.d.Search.Search(r.Context(), body)
	if err != nil {
		writeError(s.d.Log, w, "search_v1", errs.ExternalService("search", err))
		return
	}
	writeJSON(w, http.StatusOK, searchV1Response{TransactionID: txnID, Results: results})
}

// filterRequest is the shared request shape for v2/v3 search: query
// filters plus, for v2, an optional inline profile document to rank
// against.
type filterRequest struct {
	Provider  string          `json:"provider"`
	Role      string          `json:"role"`
	Primary   string          `json:"primary"`
	Exclude   []string        `json:"exclude"`
	FreeText  string          `json:"free_text"`
	Limit     int             `json:"limit"`
	Offset    int             `json:"offset"`
	Profile   json.RawMessage `json:"profile,omitempty"`
	ProfileID string          `json:"profile_id,omitempty"`
}

func (fr filterRequest) toFilter() search.Filter {
	f := search.Filter{
		Provider: fr.Provider,
		Role:     fr.Role,
		Primary:  fr.Primary,
		Exclude:  fr.Exclude,
		FreeText: fr.FreeText,
		Limit:    fr.Limit,
		Offset:   fr.Offset,
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	return f
}

// handleSearchV2 implements POST /api/v2/search against the cron cache
// (spec §4.5.1's query endpoints).
func (s *Server) handleSearchV2(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(s.d.Log, w, "search_v2", errs.Validation("decode request", err))
		return
	}

	var profile map[string]any
	if len(req.Profile) > 0 {
		if err := json.Unmarshal(req.Profile, &profile); err != nil {
			writeError(s.d.Log, w, "search_v2", errs.Validation("decode inline profile", err))
			return
		}
	}

	items, total, err := s.d.Search.QueryCronCache(r.Context(), req.toFilter(), profile)
	if err != nil {
		writeError(s.d.Log, w, "search_v2", errs.StoreUnavailable("query cron cache", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": items, "total": total})
}

// handleSearchV3 implements POST /api/v3/search against the durable
// matches store (spec §4.5.2).
func (s *Server) handleSearchV3(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(s.d.Log, w, "search_v3", errs.Validation("decode request", err))
		return
	}
	if req.ProfileID == "" {
		writeError(s.d.Log, w, "search_v3", errs.Validation("profile_id is required", nil))
		return
	}

	jobs, total, err := search.QueryDurableStore(r.Context(), s.d.Store, req.ProfileID, req.toFilter())
	if err != nil {
		writeError(s.d.Log, w, "search_v3", errs.StoreUnavailable("query durable store", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": jobs, "total": total})
}

func readBody(r *http.Request) (json.RawMessage, error) {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
