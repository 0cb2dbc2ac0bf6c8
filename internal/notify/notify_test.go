package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/dhiway/jobstack-bap/internal/catalogue"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func seedMatches(t *testing.T, store *catalogue.SQLiteStore, n int, score int16) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		jobID := fmt.Sprintf("j%d", i)
		require.NoError(t, store.UpsertJob(ctx, catalogue.Job{
			JobID: jobID, ProviderID: "p1", BecknStructure: json.RawMessage(`{}`),
			Metadata: json.RawMessage(`{}`), Hash: "h", TransactionID: "t", BppID: "bpp", BppURI: "u", LastSyncedAt: time.Now().UTC(),
		}))
		require.NoError(t, store.UpsertMatch(ctx, catalogue.Match{
			JobID: jobID, ProfileID: fmt.Sprintf("pr%d", i), JobHash: "h", ProfileHash: "ph",
			MatchScore: score, ScoreBreakdown: json.RawMessage(`{}`),
		}))
	}
}

func TestRunSendsOneNotificationPerMatchAboveThreshold(t *testing.T) {
	store, err := catalogue.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	seedMatches(t, store, 3, 90)

	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/notify", r.URL.Path)
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := New(Config{BaseURL: srv.URL, MinScore: 80, BatchSize: 2, BatchInterval: time.Millisecond, NsSecret: "s", NsKeyID: "k"}, store, testLog())
	require.NoError(t, d.Run(context.Background()))
	require.EqualValues(t, 3, received.Load())
}

func TestRunSkipsMatchesBelowThreshold(t *testing.T) {
	store, err := catalogue.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	seedMatches(t, store, 2, 50)

	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := New(Config{BaseURL: srv.URL, MinScore: 80, NsSecret: "s", NsKeyID: "k"}, store, testLog())
	require.NoError(t, d.Run(context.Background()))
	require.EqualValues(t, 0, received.Load())
}

func TestRunContinuesPastIndividualSendFailures(t *testing.T) {
	store, err := catalogue.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	seedMatches(t, store, 2, 90)

	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := New(Config{BaseURL: srv.URL, MinScore: 80, NsSecret: "s", NsKeyID: "k"}, store, testLog())
	require.NoError(t, d.Run(context.Background()))
	require.EqualValues(t, 2, received.Load())
}

func TestSendSignsRequestWithValidHMAC(t *testing.T) {
	store, err := catalogue.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	var gotSig, gotTS, gotNonce string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature")
		gotTS = r.Header.Get("X-Timestamp")
		gotNonce = r.Header.Get("X-Nonce")
		require.Equal(t, "key-1", r.Header.Get("X-Ns-Key-Id"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := New(Config{BaseURL: srv.URL, NsSecret: "top-secret", NsKeyID: "key-1"}, store, testLog())
	err = d.send(context.Background(), catalogue.MatchWithJob{JobID: "j1", ProfileID: "pr1", MatchScore: 95})
	require.NoError(t, err)

	ts, err := strconv.ParseInt(gotTS, 10, 64)
	require.NoError(t, err)
	message := fmt.Sprintf("%s\n%s\n%d\n%s", http.MethodPost, notifyPath, ts, gotNonce)
	mac := hmac.New(sha256.New, []byte("top-secret"))
	mac.Write([]byte(message))
	want := "v1=" + hex.EncodeToString(mac.Sum(nil))
	require.Equal(t, want, gotSig)
}

func TestSendReturnsErrorOnNonSuccessStatus(t *testing.T) {
	store, err := catalogue.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := New(Config{BaseURL: srv.URL, NsSecret: "s", NsKeyID: "k"}, store, testLog())
	err = d.send(context.Background(), catalogue.MatchWithJob{JobID: "j1", ProfileID: "pr1"})
	require.Error(t, err)
}

func TestNewAppliesDefaults(t *testing.T) {
	store, err := catalogue.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	d := New(Config{}, store, testLog())
	require.Equal(t, 25, d.cfg.BatchSize)
	require.Equal(t, 5*time.Second, d.cfg.BatchInterval)
	require.Equal(t, 30*time.Second, d.cfg.Timeout)
}
