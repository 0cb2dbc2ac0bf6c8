package apply

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/dhiway/jobstack-bap/internal/adapter"
	"github.com/dhiway/jobstack-bap/internal/becknctx"
	"github.com/dhiway/jobstack-bap/internal/catalogue"
	"github.com/dhiway/jobstack-bap/internal/correlator"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// network simulates the BPP/adapter side: every outbound dispatch is
// captured, and a goroutine can later "deliver" the matching webhook
// callback via the correlator, the way httpapi.handleWebhook would.
type network struct {
	corr *correlator.Correlator
	seen chan becknctx.Envelope
}

func newNetwork(t *testing.T) (*network, *adapter.Client) {
	n := &network{seen: make(chan becknctx.Envelope, 8)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env becknctx.Envelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
		n.seen <- env
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return n, adapter.New(adapter.Config{BaseURL: srv.URL}, testLog())
}

func confirmResponse(txnID, msgID, bppID, bppURI, orderID, userID, jobID string) json.RawMessage {
	env := map[string]any{
		"context": map[string]any{
			"transaction_id": txnID, "message_id": msgID, "action": "on_confirm",
			"bap_id": "bap-1", "bpp_id": bppID, "bpp_uri": bppURI,
		},
		"message": map[string]any{
			"order": map[string]any{
				"id":    orderID,
				"items": []map[string]any{{"id": jobID}},
				"fulfillments": []map[string]any{{
					"id":       "f1",
					"customer": map[string]any{"id": userID},
				}},
			},
		},
	}
	b, _ := json.Marshal(env)
	return b
}

func TestApplyHappyPathPersistsApplication(t *testing.T) {
	store, err := catalogue.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	n, ad := newNetwork(t)
	corr := correlator.New(testLog())
	coord := New(Config{BapID: "bap-1", BapURI: "https://bap", Domain: "onest:jobs", Version: "1.1.0", TTL: "PT30S"}, store, corr, ad, testLog())

	go func() {
		initEnv := <-n.seen
		require.Equal(t, "init", initEnv.Context.Action)
		corr.Deliver(initEnv.Context.TransactionID, initEnv.Context.MessageID, json.RawMessage(`{"message":{"order":{}}}`))

		confirmEnv := <-n.seen
		require.Equal(t, "confirm", confirmEnv.Context.Action)
		corr.Deliver(confirmEnv.Context.TransactionID, confirmEnv.Context.MessageID,
			confirmResponse(confirmEnv.Context.TransactionID, confirmEnv.Context.MessageID, "bpp-1", "https://bpp", "order-1", "u1", "j1"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	payload, existed, err := coord.Apply(ctx, Request{UserID: "u1", JobID: "j1", BppID: "bpp-1", BppURI: "https://bpp", Order: json.RawMessage(`{}`)})
	require.NoError(t, err)
	require.False(t, existed)
	require.Contains(t, string(payload), "order-1")

	stored, err := store.GetApplication(context.Background(), "u1", "j1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "order-1", stored.OrderID)
	require.Equal(t, "APPLIED", stored.Status)
}

func TestApplyIsIdempotentOnSecondCall(t *testing.T) {
	store, err := catalogue.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.InsertApplication(context.Background(), catalogue.Application{
		UserID: "u1", JobID: "j1", OrderID: "order-1", TransactionID: "t0",
		BppID: "bpp-1", BppURI: "https://bpp", Status: "APPLIED", Metadata: json.RawMessage(`{}`),
	}))

	n, ad := newNetwork(t)
	corr := correlator.New(testLog())
	coord := New(Config{BapID: "bap-1"}, store, corr, ad, testLog())

	payload, existed, err := coord.Apply(context.Background(), Request{UserID: "u1", JobID: "j1", BppID: "bpp-1", BppURI: "https://bpp", Order: json.RawMessage(`{}`)})
	require.NoError(t, err)
	require.True(t, existed)
	require.Contains(t, string(payload), "order-1")

	select {
	case <-n.seen:
		t.Fatal("idempotent apply should not dispatch init/confirm")
	default:
	}
}

func TestApplyTimesOutWhenNoCallbackArrives(t *testing.T) {
	store, err := catalogue.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, ad := newNetwork(t)
	corr := correlator.New(testLog())
	coord := New(Config{BapID: "bap-1"}, store, corr, ad, testLog())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err = coord.Apply(ctx, Request{UserID: "u2", JobID: "j2", BppID: "bpp-1", BppURI: "https://bpp", Order: json.RawMessage(`{}`)})
	require.Error(t, err)
}

func TestExtractApplicationFallsBackToCustomerIDWithoutPerson(t *testing.T) {
	payload := confirmResponse("t1", "m1", "bpp-1", "https://bpp", "order-9", "customer-id", "job-9")
	app, err := extractApplication(payload)
	require.NoError(t, err)
	require.Equal(t, "customer-id", app.UserID)
	require.Equal(t, "job-9", app.JobID)
	require.Equal(t, "order-9", app.OrderID)
	require.Equal(t, "bpp-1", app.BppID)
}

func TestExtractApplicationPrefersPersonIDOverCustomerID(t *testing.T) {
	env := map[string]any{
		"context": map[string]any{
			"transaction_id": "t2", "message_id": "m2", "action": "on_confirm",
			"bap_id": "bap-1", "bpp_id": "bpp-1", "bpp_uri": "https://bpp",
		},
		"message": map[string]any{
			"order": map[string]any{
				"id":    "order-10",
				"items": []map[string]any{{"id": "job-10"}},
				"fulfillments": []map[string]any{{
					"id": "f1",
					"customer": map[string]any{
						"id":     "customer-id",
						"person": map[string]any{"id": "person-id"},
					},
				}},
			},
		},
	}
	b, err := json.Marshal(env)
	require.NoError(t, err)

	app, err := extractApplication(b)
	require.NoError(t, err)
	require.Equal(t, "person-id", app.UserID)
}
