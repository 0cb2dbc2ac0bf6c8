package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleItem() map[string]any {
	return map[string]any{
		"descriptor": map[string]any{"name": "Delivery Job"},
		"tags": map[string]any{
			"industry": "Logistics",
			"role":     "Driver",
			"jobDetails": map[string]any{
				"title": "Delivery Driver",
			},
			"jobProviderLocation": "Bengaluru",
			"basicInfo":           map[string]any{"jobProviderName": "Acme Logistics"},
		},
		"locations": []any{"Bengaluru", "Chennai"},
		"embedding": []any{0.1, 0.2},
	}
}

func sampleProvider() map[string]any {
	return map[string]any{"jobProviderName": "Acme Logistics"}
}

func TestMatchesFreeTextEmptyQueryMatchesEverything(t *testing.T) {
	require.True(t, matchesFreeText(sampleItem(), sampleProvider(), ""))
}

func TestMatchesFreeTextMatchesAnyCommaToken(t *testing.T) {
	require.True(t, matchesFreeText(sampleItem(), sampleProvider(), "nursing, driver"))
}

func TestMatchesFreeTextMatchesLocation(t *testing.T) {
	require.True(t, matchesFreeText(sampleItem(), sampleProvider(), "chennai"))
}

func TestMatchesFreeTextNoMatch(t *testing.T) {
	require.False(t, matchesFreeText(sampleItem(), sampleProvider(), "accounting"))
}

func TestMatchesExcludeRejectsOnRoleOrIndustry(t *testing.T) {
	require.False(t, matchesExclude(sampleItem(), []string{"driver"}))
	require.False(t, matchesExclude(sampleItem(), []string{"logistics"}))
	require.True(t, matchesExclude(sampleItem(), []string{"nursing"}))
	require.True(t, matchesExclude(sampleItem(), nil))
}

func TestMatchesProviderCaseInsensitive(t *testing.T) {
	require.True(t, matchesProvider(sampleProvider(), "acme logistics"))
	require.False(t, matchesProvider(sampleProvider(), "other co"))
	require.True(t, matchesProvider(sampleProvider(), ""))
}

func TestMatchesRoleAndPrimary(t *testing.T) {
	require.True(t, matchesRole(sampleItem(), "driver"))
	require.False(t, matchesRole(sampleItem(), "chef"))
	require.True(t, matchesPrimary(sampleItem(), "acme logistics"))
}

func TestStripEmbeddingRemovesOnlyEmbeddingKey(t *testing.T) {
	out := stripEmbedding(sampleItem())
	_, hasEmbedding := out["embedding"]
	require.False(t, hasEmbedding)
	require.Contains(t, out, "tags")
	require.Contains(t, out, "locations")
}

func TestProviderNameMissingFieldIsEmpty(t *testing.T) {
	require.Equal(t, "", providerName(map[string]any{}))
	require.Equal(t, "Acme Logistics", providerName(sampleProvider()))
}
