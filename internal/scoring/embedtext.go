package scoring

import (
	"fmt"
	"strings"
)

// JobEmbedText builds the text handed to the embedding client for a single
// catalogue item, following the embed-mode entries of the rule list (spec
// §4.5.1 step 3 / §6: "the rule list also drives embedding-text
// construction"). Each embed-mode rule contributes its resolved string
// value, repeated r.Weight times (minimum 1) to bias the embedding toward
// heavier-weighted fields; array-valued fields contribute each element.
func JobEmbedText(doc any, rules RuleSet) string {
	var tokens []string
	for _, r := range rules.MatchScore {
		if r.Mode != ModeEmbed {
			continue
		}
		weight := int(r.Weight)
		if weight <= 0 {
			weight = 1
		}
		for _, tok := range resolveTokens(doc, r.JobPath, r.IsArray) {
			for i := 0; i < weight; i++ {
				tokens = append(tokens, tok)
			}
		}
	}
	return strings.TrimSpace(strings.Join(tokens, " "))
}

// ProfileEmbedText mirrors JobEmbedText but reads the profile side of each
// embed-mode rule, for ranking cron-cache query results against an
// inline-supplied profile (spec §4.5.1: "compute its embedding once").
func ProfileEmbedText(doc any, rules RuleSet) string {
	var tokens []string
	for _, r := range rules.MatchScore {
		if r.Mode != ModeEmbed {
			continue
		}
		weight := int(r.Weight)
		if weight <= 0 {
			weight = 1
		}
		for _, tok := range resolveTokens(doc, r.ProfilePath, r.IsArray) {
			for i := 0; i < weight; i++ {
				tokens = append(tokens, tok)
			}
		}
	}
	return strings.TrimSpace(strings.Join(tokens, " "))
}

func resolveTokens(doc any, path string, isArray bool) []string {
	v, ok := Pointer(doc, path)
	if !ok || v == nil {
		return nil
	}
	if isArray {
		arr, ok := v.([]any)
		if !ok {
			if s, ok := AsString(v); ok {
				return []string{s}
			}
			return nil
		}
		var out []string
		for _, el := range arr {
			if s, ok := AsString(el); ok && s != "" {
				out = append(out, s)
			} else if el != nil {
				out = append(out, fmt.Sprintf("%v", el))
			}
		}
		return out
	}
	if s, ok := AsString(v); ok {
		return []string{s}
	}
	if f, ok := AsFloat64(v); ok {
		return []string{fmt.Sprintf("%v", f)}
	}
	return nil
}
