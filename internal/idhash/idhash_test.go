package idhash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryHashStableUnderKeyOrder(t *testing.T) {
	a := SearchMessage{
		Intent:     map[string]any{"item": map[string]any{"descriptor": map[string]any{"name": "driver"}}},
		Pagination: map[string]any{"limit": 20, "offset": 0},
	}
	b := SearchMessage{
		Intent:     map[string]any{"item": map[string]any{"descriptor": map[string]any{"name": "driver"}}},
		Pagination: map[string]any{"offset": 0, "limit": 20},
	}

	ha, err := QueryHash(a)
	require.NoError(t, err)
	hb, err := QueryHash(b)
	require.NoError(t, err)
	require.Equal(t, ha, hb)
}

func TestQueryHashDiffersOnIntent(t *testing.T) {
	a := SearchMessage{Intent: map[string]any{"item": map[string]any{"descriptor": map[string]any{"name": "driver"}}}}
	b := SearchMessage{Intent: map[string]any{"item": map[string]any{"descriptor": map[string]any{"name": "chef"}}}}

	ha, err := QueryHash(a)
	require.NoError(t, err)
	hb, err := QueryHash(b)
	require.NoError(t, err)
	require.NotEqual(t, ha, hb)
}

func TestJobHashIgnoresFieldOrder(t *testing.T) {
	h1, err := JobHash(map[string]any{"id": "1", "descriptor": map[string]any{"name": "x"}})
	require.NoError(t, err)
	h2, err := JobHash(map[string]any{"descriptor": map[string]any{"name": "x"}, "id": "1"})
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestProfileHashDiffersOnUpdatedAt(t *testing.T) {
	base := ProfileFields{ID: "p1", UserID: "u1", Type: "seeker", Metadata: map[string]any{"a": 1}, CreatedAt: "t0", UpdatedAt: "t0"}
	changed := base
	changed.UpdatedAt = "t1"

	h1, err := ProfileHash(base)
	require.NoError(t, err)
	h2, err := ProfileHash(changed)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestProfileHashStableOnMetadataKeyOrder(t *testing.T) {
	a := ProfileFields{ID: "p1", UserID: "u1", Type: "seeker", Metadata: map[string]any{"a": 1, "b": 2}, CreatedAt: "t0", UpdatedAt: "t0"}
	b := ProfileFields{ID: "p1", UserID: "u1", Type: "seeker", Metadata: map[string]any{"b": 2, "a": 1}, CreatedAt: "t0", UpdatedAt: "t0"}

	h1, err := ProfileHash(a)
	require.NoError(t, err)
	h2, err := ProfileHash(b)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}
