package matchengine

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

	"github.com/dhiway/jobstack-bap/internal/catalogue"
	"github.com/dhiway/jobstack-bap/internal/embedclient"
	"github.com/dhiway/jobstack-bap/internal/scoring"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// memCache is a minimal in-memory stand-in for the Redis-backed transient
// store embedclient.Client needs as its second cache tier.
type memCache struct{ m map[string][]byte }

func newMemCache() *memCache { return &memCache{m: make(map[string][]byte)} }

func (c *memCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *memCache) SetBytes(_ context.Context, key string, val []byte) error {
	c.m[key] = val
	return nil
}

func newEmbedClient(t *testing.T) *embedclient.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embedding":{"values":[1,0,0]}}`))
	}))
	t.Cleanup(srv.Close)
	c, err := embedclient.New(embedclient.Config{Endpoint: srv.URL, Model: "m"}, newMemCache(), 16, testLog())
	require.NoError(t, err)
	return c
}

func seedJobAndProfile(t *testing.T, store *catalogue.SQLiteStore, jobID, profileID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.UpsertJob(ctx, catalogue.Job{
		JobID: jobID, ProviderID: "p1", BecknStructure: json.RawMessage(`{"tags":{"role":"driver"}}`),
		Metadata: json.RawMessage(`{}`), Hash: "jh", TransactionID: "t", BppID: "bpp", BppURI: "u", LastSyncedAt: time.Now().UTC(),
	}))
	require.NoError(t, store.UpsertProfile(ctx, catalogue.Profile{
		ProfileID: profileID, UserID: "u1", Type: "seeker", Metadata: json.RawMessage(`{"role":"driver"}`),
		BecknStructure: json.RawMessage(`{}`), Hash: "ph", LastSyncedAt: time.Now().UTC(),
	}, time.Now().UTC()))
}

func hasMatch(t *testing.T, store *catalogue.SQLiteStore, jobID, profileID string) bool {
	t.Helper()
	matches, err := store.MatchesAboveThreshold(context.Background(), 0, 100, 0)
	require.NoError(t, err)
	for _, m := range matches {
		if m.JobID == jobID && m.ProfileID == profileID {
			return true
		}
	}
	return false
}

func TestTriggerScoresNewJobAgainstExistingProfile(t *testing.T) {
	store, err := catalogue.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	seedJobAndProfile(t, store, "j1", "pr1")

	e := New(Config{BatchSize: 10}, store, newEmbedClient(t), scoring.RuleSet{}, testLog())
	e.Trigger(context.Background())

	require.Eventually(t, func() bool {
		return hasMatch(t, store, "j1", "pr1")
	}, time.Second, 5*time.Millisecond)
}

func TestTriggerCollapsesConcurrentCallsIntoOneFollowUpPass(t *testing.T) {
	store, err := catalogue.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	seedJobAndProfile(t, store, "j1", "pr1")

	e := New(Config{BatchSize: 10}, store, newEmbedClient(t), scoring.RuleSet{}, testLog())
	e.Trigger(context.Background())
	e.Trigger(context.Background())
	e.Trigger(context.Background())

	require.Eventually(t, func() bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		return !e.running && !e.queued
	}, time.Second, 5*time.Millisecond)

	require.True(t, hasMatch(t, store, "j1", "pr1"))
}

func TestNewDefaultsBatchSizeToOne(t *testing.T) {
	store, err := catalogue.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	e := New(Config{}, store, newEmbedClient(t), scoring.RuleSet{}, testLog())
	require.Equal(t, 1, e.cfg.BatchSize)
}
