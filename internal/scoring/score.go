// Package scoring implements the match-score kernel of spec §4.3: cosine
// similarity over embeddings combined with rule-based penalties and
// bonuses driven by a declarative field map.
package scoring

import (
	"math"
	"sync"

	"github.com/xrash/smetrics"
)

// Breakdown is the structured detail stored alongside a match score
// (spec §3: "score_breakdown (opaque structured detail)"). The original
// Rust implementation (src/db/match_score.rs) stores exactly this shape,
// so SPEC_FULL.md §12 carries it over as a concrete type.
type Breakdown struct {
	BaseScore      float64        `json:"base_score"`
	Mismatches     int            `json:"mismatches"`
	PenaltyApplied float64        `json:"penalty_applied"`
	PerField       []FieldOutcome `json:"per_field"`
}

// FieldOutcome records what one rule decided for one pair.
type FieldOutcome struct {
	Name      string  `json:"name"`
	Mismatch  bool    `json:"mismatch"`
	Penalty   float64 `json:"penalty,omitempty"`
	Bonus     float64 `json:"bonus,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

// SimilarityCache memoizes Jaro-Winkler comparisons for the lifetime of one
// scoring batch (spec §4.3 step 2: "String-similarity results must be
// memoised for the duration of a scoring batch"). It is not safe to reuse
// across batches where the underlying strings might have changed meaning,
// so callers construct one per batch.
type SimilarityCache struct {
	mu    sync.Mutex
	cache map[[2]string]float64
}

// NewSimilarityCache returns an empty, ready-to-use cache.
func NewSimilarityCache() *SimilarityCache {
	return &SimilarityCache{cache: make(map[[2]string]float64)}
}

func (c *SimilarityCache) jaroWinkler(a, b string) float64 {
	key := [2]string{a, b}
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.cache[key]; ok {
		return v
	}
	v := smetrics.JaroWinkler(a, b, 0.7, 4)
	c.cache[key] = v
	return v
}

// Cosine computes cosine similarity between two vectors given their
// precomputed L2 norms. Returns 0 if either norm is 0 or the vectors have
// different lengths (spec §4.3 step 1).
func Cosine(a, b []float32, normA, normB float64) float64 {
	if len(a) != len(b) || normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	v := dot / (normA * normB)
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// Norm computes the L2 norm of a vector, for callers that want to
// precompute it once and reuse it across many Cosine calls.
func Norm(v []float32) float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	return math.Sqrt(sumSq)
}

// Input bundles the two embeddings (with precomputed norms), the two
// decoded JSON blobs, and the field map that Score operates over.
type Input struct {
	ProfileEmbedding []float32
	ProfileNorm      float64
	JobEmbedding     []float32
	JobNorm          float64
	Profile          any // decoded profile JSON
	Job              any // decoded job JSON
	Rules            []FieldRule
	Similarity       *SimilarityCache
}

// Score runs the full algorithm of spec §4.3 and returns a value in
// [0, 1] plus the structured breakdown.
func Score(in Input) (float64, Breakdown) {
	score := Cosine(in.ProfileEmbedding, in.JobEmbedding, in.ProfileNorm, in.JobNorm)
	breakdown := Breakdown{BaseScore: score}

	sim := in.Similarity
	if sim == nil {
		sim = NewSimilarityCache()
	}

	mismatches := 0
	for _, r := range in.Rules {
		profileVal, profileOK := Pointer(in.Profile, r.ProfilePath)
		jobVal, jobOK := Pointer(in.Job, r.JobPath)

		outcome := FieldOutcome{Name: r.Name}

		switch {
		case jobOK && !profileOK:
			score *= r.Penalty
			mismatches++
			outcome.Mismatch = true
			outcome.Penalty = r.Penalty
			outcome.Reason = "profile missing field present on job"

		case r.Mode == ModeEmbed && IsProperNounField(r.Name):
			profileStr, pok := AsString(profileVal)
			jobStr, jok := AsString(jobVal)
			if pok && jok {
				similarity := sim.jaroWinkler(profileStr, jobStr)
				if similarity < 0.8 {
					score *= r.Penalty
					mismatches++
					outcome.Mismatch = true
					outcome.Penalty = r.Penalty
					outcome.Reason = "jaro-winkler below threshold"
				}
			}

		case r.Mode == ModeManual:
			minVal, minOK := Pointer(in.Job, r.JobPathMin)
			maxVal, maxOK := Pointer(in.Job, r.JobPathMax)
			profileNum, pok := AsFloat64(profileVal)
			minNum, mok := AsFloat64(minVal)
			maxNum, xok := AsFloat64(maxVal)
			if pok && minOK && mok && maxOK && xok {
				if profileNum < minNum || profileNum > maxNum {
					score *= r.Penalty
					mismatches++
					outcome.Mismatch = true
					outcome.Penalty = r.Penalty
					outcome.Reason = "profile value outside job bounds"
				} else if r.Bonus != 0 {
					score *= r.Bonus
					outcome.Bonus = r.Bonus
					outcome.Reason = "profile value within bounds"
				}
			}
		}

		breakdown.PerField = append(breakdown.PerField, outcome)
	}

	// Aggregate penalty on mismatch count (spec §4.3 step 3).
	var aggregatePenalty float64 = 1
	switch {
	case mismatches == 2:
		aggregatePenalty = 0.85
	case mismatches >= 3:
		aggregatePenalty = 0.7
	}
	score *= aggregatePenalty
	breakdown.PenaltyApplied = aggregatePenalty
	breakdown.Mismatches = mismatches

	if math.IsNaN(score) {
		score = 0
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, breakdown
}

// PublicScore converts a [0,1] score to the stored integer percentage,
// round(score * 100), per spec §4.3 step 5 and the Open Question
// resolution in SPEC_FULL.md §14. The result always fits int16.
func PublicScore(score float64) int16 {
	v := math.Round(score * 100)
	if v > 100 {
		v = 100
	}
	if v < 0 {
		v = 0
	}
	return int16(v)
}
