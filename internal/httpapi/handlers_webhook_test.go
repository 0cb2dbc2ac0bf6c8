package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dhiway/jobstack-bap/internal/adapter"
	"github.com/dhiway/jobstack-bap/internal/correlator"
	"github.com/dhiway/jobstack-bap/internal/payload"
)

func TestHandleWebhookDeliversNonSearchActionToCorrelator(t *testing.T) {
	corr := correlator.New(testLog())
	srv := NewServer(Deps{Correlator: corr, Log: testLog()})

	waiter, err := corr.Begin("txn-1", "msg-1")
	require.NoError(t, err)

	body := []byte(`{"context":{"transaction_id":"txn-1","message_id":"msg-1","action":"on_status"},"message":{"order":{"status":"ACTIVE"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/on_status", bytes.NewReader(body))
	req = muxSetVars(req, map[string]string{"action": "on_status"})
	w := httptest.NewRecorder()

	srv.handleWebhook(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	payload, err := corr.Await(ctx, "txn-1", "msg-1", waiter)
	require.NoError(t, err)
	require.Contains(t, string(payload.(json.RawMessage)), "ACTIVE")
}

func TestHandleWebhookMalformedBodyNACKs(t *testing.T) {
	corr := correlator.New(testLog())
	srv := NewServer(Deps{Correlator: corr, Log: testLog()})

	req := httptest.NewRequest(http.MethodPost, "/webhook/on_status", bytes.NewReader([]byte("not json")))
	req = muxSetVars(req, map[string]string{"action": "on_status"})
	w := httptest.NewRecorder()

	srv.handleWebhook(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleWebhookProfilesAcksImmediatelyAndMirrorsAsync(t *testing.T) {
	var gotAction string
	dispatched := make(chan struct{})
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.URL.Path
		close(dispatched)
	}))
	defer remote.Close()

	ad := adapter.New(adapter.Config{BaseURL: remote.URL}, testLog())
	srv := NewServer(Deps{
		Adapter:         ad,
		ProfileIdentity: payload.Identity{ID: "bpp-seeker", URI: "https://profiles.example", Domain: "onest:jobs", Version: "1.1.0", TTL: "PT30S"},
		Log:             testLog(),
	})

	body := []byte(`{"context":{"transaction_id":"txn-2","message_id":"msg-2","action":"search"},"message":{"q":"driver"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/profiles/search", bytes.NewReader(body))
	req = muxSetVars(req, map[string]string{"action": "search"})
	w := httptest.NewRecorder()

	srv.handleWebhookProfiles(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case <-dispatched:
		require.Equal(t, "/on_search", gotAction)
	case <-time.After(time.Second):
		t.Fatal("mirror dispatch was not sent")
	}
}
