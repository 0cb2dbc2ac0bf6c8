package search

import (
	"strings"
)

// Filter narrows a job listing query the way both the cron-cache and
// durable-store query paths accept it (spec §4.5.1/§4.5.2).
type Filter struct {
	Provider string
	Role     string
	Primary  string
	Exclude  []string
	FreeText string
	Limit    int
	Offset   int
}

func stringAt(doc map[string]any, path ...string) string {
	var cur any = doc
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[p]
	}
	s, _ := cur.(string)
	return s
}

func locationsContain(doc map[string]any, token string) bool {
	raw, ok := doc["locations"].([]any)
	if !ok {
		return false
	}
	for _, l := range raw {
		if s, ok := l.(string); ok && strings.Contains(strings.ToLower(s), token) {
			return true
		}
	}
	return false
}

// matchesFreeText OR-splits query by commas; an item matches if any token
// appears (case-insensitively) in any of the searched fields (spec §4.5.1:
// "Free-text matching").
func matchesFreeText(item map[string]any, provider map[string]any, query string) bool {
	if strings.TrimSpace(query) == "" {
		return true
	}
	tokens := strings.Split(query, ",")
	haystacks := []string{
		providerName(provider),
		stringAt(item, "descriptor", "name"),
		stringAt(item, "tags", "industry"),
		stringAt(item, "tags", "role"),
		stringAt(item, "tags", "jobDetails", "title"),
		stringAt(item, "tags", "jobProviderLocation"),
		stringAt(item, "tags", "basicInfo", "jobProviderName"),
	}
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		for _, h := range haystacks {
			if strings.Contains(strings.ToLower(h), tok) {
				return true
			}
		}
		if locationsContain(item, tok) {
			return true
		}
	}
	return false
}

// matchesExclude rejects an item if any exclude token appears in
// tags.role or tags.industry (spec §4.5.1: "Exclude").
func matchesExclude(item map[string]any, exclude []string) bool {
	if len(exclude) == 0 {
		return true
	}
	role := strings.ToLower(stringAt(item, "tags", "role"))
	industry := strings.ToLower(stringAt(item, "tags", "industry"))
	for _, tok := range exclude {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if strings.Contains(role, tok) || strings.Contains(industry, tok) {
			return false
		}
	}
	return true
}

func matchesProvider(provider map[string]any, want string) bool {
	if want == "" {
		return true
	}
	return strings.EqualFold(providerName(provider), want)
}

func matchesRole(item map[string]any, want string) bool {
	if want == "" {
		return true
	}
	return strings.EqualFold(stringAt(item, "tags", "role"), want)
}

func matchesPrimary(item map[string]any, want string) bool {
	if want == "" {
		return true
	}
	return strings.EqualFold(stringAt(item, "tags", "basicInfo", "jobProviderName"), want)
}

// stripEmbedding removes a stored embedding field before the item is
// emitted on any query response (spec §4.5.1: "Results must strip stored
// embedding fields").
func stripEmbedding(item map[string]any) map[string]any {
	out := make(map[string]any, len(item))
	for k, v := range item {
		if k == "embedding" {
			continue
		}
		out[k] = v
	}
	return out
}
