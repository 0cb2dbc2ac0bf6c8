package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dhiway/jobstack-bap/internal/becknctx"
	"github.com/dhiway/jobstack-bap/internal/payload"
)

// handleWebhook implements POST /webhook/{action}: the network's callback
// path for on_search|on_select|on_init|on_confirm|on_status (spec §4.5,
// §4.6). on_search is handled by the search coordinator directly; every
// other action resolves a pending correlator waiter with the raw payload.
// Every decoded callback is ACKed regardless of how its handling turns
// out (spec §6/§7); a body that cannot be read or decoded as an envelope
// gets a NACK with status 400.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]

	body, err := readRawBody(r)
	if err != nil {
		s.d.Log.WithError(err).Warn("webhook: failed to read body")
		writeAck(w, false)
		return
	}

	var env becknctx.RawEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		s.d.Log.WithError(err).WithField("action", action).Warn("webhook: failed to decode envelope")
		writeAck(w, false)
		return
	}

	switch action {
	case "on_search":
		if err := s.d.Search.HandleOnSearch(r.Context(), env); err != nil {
			s.d.Log.WithError(err).Warn("webhook: on_search handling failed")
		}
	default:
		s.d.Correlator.Deliver(env.Context.TransactionID, env.Context.MessageID, json.RawMessage(body))
	}

	writeAck(w, true)
}

// handleWebhookProfiles implements POST /webhook/profiles/{action}: this
// process's own profiles-BPP mirror role. It ACKs the inbound action
// immediately, then asynchronously dispatches the mirrored on_{action}
// response back through the adapter, echoing the inbound message as
// payload_generator.rs's build_profile_beckn_response does for its BPP
// role (original_source/src/services/payload_generator.rs).
func (s *Server) handleWebhookProfiles(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]

	body, err := readRawBody(r)
	if err != nil {
		s.d.Log.WithError(err).Warn("webhook_profiles: failed to read body")
		writeAck(w, false)
		return
	}

	var env becknctx.RawEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		s.d.Log.WithError(err).WithField("action", action).Warn("webhook_profiles: failed to decode envelope")
		writeAck(w, false)
		return
	}

	writeAck(w, true)

	go func() {
		response := payload.BuildProfileResponse(s.d.ProfileIdentity, env.Context, env.Message)
		if err := s.d.Adapter.Dispatch(context.Background(), "on_"+action, response); err != nil {
			s.d.Log.WithError(err).WithField("action", action).Warn("webhook_profiles: mirror dispatch failed")
		}
	}()
}

func readRawBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}
