package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Router builds the full route table of spec §6, mirroring the teacher's
// mux.NewRouter-plus-HandlerFunc wiring (go/ingest/apis.go) generalized
// from one ingest path to this service's whole HTTP surface.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", instrument("health", s.handleHealth)).Methods(http.MethodGet)
	r.Handle("/metrics", metricsHandler()).Methods(http.MethodGet)

	protected := r.NewRoute().Subrouter()
	protected.Use(requireAPIKey(s.d.XAPIKey, s.d.Log))

	protected.HandleFunc("/api/v1/search", instrument("search_v1", s.handleSearchV1)).Methods(http.MethodPost)
	protected.HandleFunc("/api/v2/search", instrument("search_v2", s.handleSearchV2)).Methods(http.MethodPost)
	protected.HandleFunc("/api/v3/search", instrument("search_v3", s.handleSearchV3)).Methods(http.MethodPost)

	protected.HandleFunc("/api/v1/select", instrument("select", s.handleSelect)).Methods(http.MethodPost)
	protected.HandleFunc("/api/v1/status", instrument("status", s.handleStatus)).Methods(http.MethodPost)
	protected.HandleFunc("/api/v1/apply", instrument("apply", s.handleApply)).Methods(http.MethodPost)

	protected.HandleFunc("/api/v1/job-applications", instrument("list_applications", s.handleListApplications)).Methods(http.MethodGet)

	protected.HandleFunc("/api/v1/job-applications/drafts", instrument("drafts_upsert", s.handleDraftUpsert)).Methods(http.MethodPost)
	protected.HandleFunc("/api/v1/job-applications/drafts", instrument("drafts_list", s.handleDraftList)).Methods(http.MethodGet)
	protected.HandleFunc("/api/v1/job-applications/drafts/{id}", instrument("drafts_get", s.handleDraftGet)).Methods(http.MethodGet)
	protected.HandleFunc("/api/v1/job-applications/drafts/{id}", instrument("drafts_patch", s.handleDraftPatch)).Methods(http.MethodPatch)
	protected.HandleFunc("/api/v1/job-applications/drafts/{id}", instrument("drafts_delete", s.handleDraftDelete)).Methods(http.MethodDelete)

	protected.HandleFunc("/api/v1/event", instrument("event", s.handleEvent)).Methods(http.MethodPost)

	// Webhooks are called by the network adapter, which does not carry
	// the client-facing shared secret, so they stay unauthenticated
	// (SPEC_FULL.md §14: webhook auth left unimplemented, matching the
	// source's framing of it as a production-only hardening step).
	r.HandleFunc("/webhook/{action}", instrument("webhook", s.handleWebhook)).Methods(http.MethodPost)
	r.HandleFunc("/webhook/profiles/{action}", instrument("webhook_profiles", s.handleWebhookProfiles)).Methods(http.MethodPost)

	var handler http.Handler = r
	handler = accessLog(s.d.Log)(handler)
	return handler
}
