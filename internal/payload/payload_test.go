package payload

import (
	"testing"

	"github.com/dhiway/jobstack-bap/internal/becknctx"
	"github.com/stretchr/testify/require"
)

func TestBuildRequestFillsContextFromIdentity(t *testing.T) {
	id := Identity{ID: "bap-1", URI: "https://bap.example", Domain: "onest:jobs", Version: "1.1.0", TTL: "PT30S"}

	env := BuildRequest(id, "txn-1", "msg-1", "select", "bpp-1", "https://bpp.example", map[string]any{"order": 1})

	require.Equal(t, "txn-1", env.Context.TransactionID)
	require.Equal(t, "msg-1", env.Context.MessageID)
	require.Equal(t, "select", env.Context.Action)
	require.Equal(t, "bap-1", env.Context.BapID)
	require.Equal(t, "https://bap.example", env.Context.BapURI)
	require.Equal(t, "bpp-1", env.Context.BppID)
	require.Equal(t, "https://bpp.example", env.Context.BppURI)
	require.Equal(t, "onest:jobs", env.Context.Domain)
	require.Equal(t, "1.1.0", env.Context.Version)
	require.Equal(t, "PT30S", env.Context.TTL)
	require.False(t, env.Context.Timestamp.IsZero())
	require.Equal(t, map[string]any{"order": 1}, env.Message)
}

func TestBuildProfileResponseMirrorsInboundContextAndPrefixesAction(t *testing.T) {
	bpp := Identity{ID: "bpp-seeker", URI: "https://profiles.example", Domain: "onest:jobs", Version: "1.1.0", TTL: "PT30S"}
	reqCtx := becknctx.Context{
		TransactionID: "txn-2",
		MessageID:     "msg-2",
		Action:        "search",
		BapID:         "bap-9",
		BapURI:        "https://bap9.example",
	}

	env := BuildProfileResponse(bpp, reqCtx, map[string]any{"ack": true})

	require.Equal(t, "txn-2", env.Context.TransactionID)
	require.Equal(t, "msg-2", env.Context.MessageID)
	require.Equal(t, "on_search", env.Context.Action)
	require.Equal(t, "bap-9", env.Context.BapID)
	require.Equal(t, "https://bap9.example", env.Context.BapURI)
	require.Equal(t, "bpp-seeker", env.Context.BppID)
	require.Equal(t, "https://profiles.example", env.Context.BppURI)
}
