// Package payload builds outbound Beckn envelopes from internal state —
// supplementing spec §4.6's apply/select/status dispatch with the
// dedicated payload-construction step the original source keeps as its
// own module (services/payload_generator.rs), including the profiles-BPP
// mirror response that has no client-facing spec section of its own but
// is required by the /webhook/profiles/{action} endpoint of §6.
package payload

import (
	"time"

	"github.com/dhiway/jobstack-bap/internal/becknctx"
)

// Identity names the subscriber fields that go on every outbound context.
type Identity struct {
	ID      string
	URI     string
	Domain  string
	Version string
	TTL     string
}

// BuildRequest constructs the {context, message} envelope for an outbound
// action dispatched as this BAP.
func BuildRequest(id Identity, txnID, msgID, action, bppID, bppURI string, message any) becknctx.Envelope {
	return becknctx.Envelope{
		Context: becknctx.Context{
			TransactionID: txnID,
			MessageID:     msgID,
			Action:        action,
			BapID:         id.ID,
			BapURI:        id.URI,
			BppID:         bppID,
			BppURI:        bppURI,
			Domain:        id.Domain,
			Version:       id.Version,
			TTL:           id.TTL,
			Timestamp:     time.Now().UTC(),
		},
		Message: message,
	}
}

// BuildProfileResponse mirrors an inbound request's context back as an
// "on_{action}" response acting as the profiles-service BPP role, per the
// /webhook/profiles/{action} mirror endpoint of spec §6.
func BuildProfileResponse(bpp Identity, reqCtx becknctx.Context, message any) becknctx.Envelope {
	return becknctx.Envelope{
		Context: becknctx.Context{
			TransactionID: reqCtx.TransactionID,
			MessageID:     reqCtx.MessageID,
			Action:        "on_" + reqCtx.Action,
			BapID:         reqCtx.BapID,
			BapURI:        reqCtx.BapURI,
			BppID:         bpp.ID,
			BppURI:        bpp.URI,
			Domain:        bpp.Domain,
			Version:       bpp.Version,
			TTL:           bpp.TTL,
			Timestamp:     time.Now().UTC(),
		},
		Message: message,
	}
}
