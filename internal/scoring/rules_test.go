package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRulesParsesSampleFile(t *testing.T) {
	rs, err := LoadRules(filepath.Join("..", "..", "configs", "match_score_rules.json"))
	require.NoError(t, err)
	require.NotEmpty(t, rs.MatchScore)

	var sawEmbed, sawManual bool
	for _, r := range rs.MatchScore {
		require.NotEmpty(t, r.Name)
		require.NotEmpty(t, r.ProfilePath)
		require.NotEmpty(t, r.JobPath)
		switch r.Mode {
		case ModeEmbed:
			sawEmbed = true
		case ModeManual:
			sawManual = true
			require.NotEmpty(t, r.JobPathMin)
			require.NotEmpty(t, r.JobPathMax)
		}
	}
	require.True(t, sawEmbed, "sample rules file should exercise embed mode")
	require.True(t, sawManual, "sample rules file should exercise manual mode")
}

func TestLoadRulesMissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadRulesInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := LoadRules(path)
	require.Error(t, err)
}

func TestIsProperNounField(t *testing.T) {
	require.True(t, IsProperNounField("role"))
	require.True(t, IsProperNounField("industry"))
	require.False(t, IsProperNounField("skills"))
}
