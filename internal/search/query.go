package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dhiway/jobstack-bap/internal/scoring"
	"github.com/dhiway/jobstack-bap/internal/transient"
)

// RankedItem is one result of a cron-cache query: the item itself plus its
// cosine rank against a supplied profile, if any.
type RankedItem struct {
	Item  map[string]any `json:"item"`
	Score float64        `json:"score,omitempty"`
}

// QueryCronCache implements the /api/v2/search query path of spec §4.5.1's
// last paragraph: fan out to the latest completed sweep's per-BPP merge
// state, filter, optionally rank against an inline profile, dedupe by id
// across BPPs, sort, and paginate. Embedding fields are stripped from
// every returned item.
func (c *Coordinator) QueryCronCache(ctx context.Context, f Filter, profile map[string]any) ([]RankedItem, int, error) {
	latest, found, err := c.transient.GetBytes(ctx, transient.CronLatestKey())
	if err != nil {
		return nil, 0, fmt.Errorf("search: read cron_txn:latest: %w", err)
	}
	if !found {
		return nil, 0, nil
	}

	keys, err := c.transient.Keys(ctx, transient.CronJobsPattern(string(latest)))
	if err != nil {
		return nil, 0, fmt.Errorf("search: list cron merge keys: %w", err)
	}
	vals, err := c.transient.MGet(ctx, keys)
	if err != nil {
		return nil, 0, fmt.Errorf("search: fetch cron merge state: %w", err)
	}

	var profileVec []float32
	var profileNorm float64
	rank := profile != nil
	if rank {
		text := scoring.ProfileEmbedText(profile, c.rules)
		if text != "" {
			vec, err := c.embed.Embed(ctx, text)
			if err != nil {
				c.log.WithError(err).Warn("profile embedding failed, ranking disabled for this query")
				rank = false
			} else {
				profileVec = vec
				profileNorm = scoring.Norm(vec)
			}
		} else {
			rank = false
		}
	}

	seen := make(map[string]bool)
	var all []RankedItem
	for _, raw := range vals {
		payload, err := decodeCronPayload(raw)
		if err != nil {
			continue
		}
		for _, provider := range payload.Providers {
			if !matchesProvider(provider, f.Provider) {
				continue
			}
			for _, item := range itemsOf(provider) {
				if !matchesRole(item, f.Role) || !matchesPrimary(item, f.Primary) {
					continue
				}
				if !matchesExclude(item, f.Exclude) {
					continue
				}
				if !matchesFreeText(item, provider, f.FreeText) {
					continue
				}
				id := itemID(item)
				if id != "" {
					if seen[id] {
						continue
					}
					seen[id] = true
				}

				ranked := RankedItem{Item: stripEmbedding(item)}
				if rank {
					ranked.Score = itemCosine(item, profileVec, profileNorm)
				}
				all = append(all, ranked)
			}
		}
	}

	if rank {
		sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	}

	total := len(all)
	limit := f.Limit
	if limit <= 0 {
		limit = 30
	}
	start := f.Offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func itemCosine(item map[string]any, profileVec []float32, profileNorm float64) float64 {
	raw, ok := item["embedding"].([]any)
	if !ok {
		return 0
	}
	vec := make([]float32, len(raw))
	for i, v := range raw {
		if f, ok := v.(float64); ok {
			vec[i] = float32(f)
		}
	}
	return scoring.Cosine(profileVec, vec, profileNorm, scoring.Norm(vec))
}

// MarshalResults is a convenience for handlers that need the ranked items
// as raw JSON without the score wrapper when no ranking was requested.
func MarshalResults(items []RankedItem) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		b, err := json.Marshal(it.Item)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
