package scoring

import (
	"encoding/json"
	"fmt"
	"os"
)

// MatchMode is how a field rule compares profile and job values.
type MatchMode string

const (
	ModeEmbed  MatchMode = "embed"
	ModeManual MatchMode = "manual"
)

// FieldRule is one entry of the declarative field map loaded from the
// scoring rules file (spec §6: "Scoring rules file").
type FieldRule struct {
	Name        string    `json:"name"`
	ProfilePath string    `json:"profile_path"`
	JobPath     string    `json:"job_path"`
	JobPathMin  string    `json:"job_path_min,omitempty"`
	JobPathMax  string    `json:"job_path_max,omitempty"`
	Weight      float64   `json:"weight,omitempty"`
	IsArray     bool      `json:"is_array,omitempty"`
	Mode        MatchMode `json:"match_mode"`
	Penalty     float64   `json:"penalty"`
	Bonus       float64   `json:"bonus,omitempty"`
}

// RuleSet is the top-level shape of the rules file: {"match_score": [...]}.
type RuleSet struct {
	MatchScore []FieldRule `json:"match_score"`
}

// LoadRules reads and parses the scoring rules file named by
// config's match_score_path. The rules are data, not code (spec §9): this
// is the only place field paths are named. cmd/bap-server calls it once at
// startup; the file is not re-read while the process runs.
func LoadRules(path string) (RuleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("scoring: read rules file %q: %w", path, err)
	}
	var rs RuleSet
	if err := json.Unmarshal(raw, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("scoring: parse rules file %q: %w", path, err)
	}
	return rs, nil
}

// properNounFields are the field names treated as proper-noun-like for the
// embed-mode Jaro-Winkler comparison (spec §4.3 step 2: "a proper-noun-like
// field (configurable, e.g., 'role', 'industry')").
var properNounFields = map[string]bool{
	"role":     true,
	"industry": true,
}

// IsProperNounField reports whether an embed-mode rule's field should use
// Jaro-Winkler string comparison rather than pure embedding similarity.
func IsProperNounField(name string) bool {
	return properNounFields[name]
}
