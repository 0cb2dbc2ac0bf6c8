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

	"github.com/dhiway/jobstack-bap/internal/catalogue"
)

func TestFilterRequestToFilterDefaultsLimit(t *testing.T) {
	fr := filterRequest{}
	f := fr.toFilter()
	require.Equal(t, 20, f.Limit)
}

func TestFilterRequestToFilterPreservesPositiveLimit(t *testing.T) {
	fr := filterRequest{Limit: 5}
	f := fr.toFilter()
	require.Equal(t, 5, f.Limit)
}

func TestHandleSearchV3RequiresProfileID(t *testing.T) {
	srv := NewServer(Deps{Log: testLog()})

	req := httptest.NewRequest(http.MethodPost, "/api/v3/search", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()

	srv.handleSearchV3(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSearchV3ReturnsStoredMatches(t *testing.T) {
	store, err := catalogue.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.UpsertJob(ctx, catalogue.Job{
		JobID: "j1", ProviderID: "p1", BecknStructure: json.RawMessage(`{"tags":{"role":"driver"}}`),
		Metadata: json.RawMessage(`{}`), Hash: "h1", TransactionID: "t1", BppID: "bpp1", BppURI: "u", LastSyncedAt: time.Now().UTC(),
	}))
	require.NoError(t, store.UpsertMatch(ctx, catalogue.Match{JobID: "j1", ProfileID: "pr1", JobHash: "h1", ProfileHash: "ph1", MatchScore: 90, ScoreBreakdown: json.RawMessage(`{}`)}))

	srv := NewServer(Deps{Store: store, Log: testLog()})

	body, _ := json.Marshal(map[string]any{"profile_id": "pr1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v3/search", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.handleSearchV3(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Results []catalogue.JobWithScore `json:"results"`
		Total   int64                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, int64(1), out.Total)
	require.Len(t, out.Results, 1)
	require.Equal(t, int16(90), out.Results[0].MatchScore)
}
