// Package idhash computes the stable content hashes spec §4.1 requires:
// queryHash over a search message, jobHash over an item blob, and
// profileHash over a fixed concatenation of profile fields. All three are
// SHA-256 per spec's explicit prescription (§9 rules out substituting a
// different hash family, since the equality invariant is defined in terms
// of it).
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// canonicalJSON re-marshals v through a map so that key order is
// alphabetical and therefore stable regardless of struct field order or
// how the caller built the value. encoding/json already sorts map keys;
// round-tripping through map[string]any/[]any is enough to normalize
// both object key order and any whitespace differences in the input.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

func sum(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// SearchMessage is the subset of a search request that participates in the
// queryHash fingerprint: intent, pagination, and options. Anything else on
// the wire (context identifiers) must never be included, or two logically
// identical searches would fail to coalesce.
type SearchMessage struct {
	Intent     any `json:"intent"`
	Pagination any `json:"pagination,omitempty"`
	Options    any `json:"options,omitempty"`
}

// QueryHash fingerprints a search message. Equal after canonicalization
// implies equal hash (spec §8 property 1) and, empirically, the converse:
// a SHA-256 collision between distinct canonical forms is not a case this
// system needs to defend against.
func QueryHash(msg SearchMessage) (string, error) {
	canon, err := canonicalJSON(msg)
	if err != nil {
		return "", fmt.Errorf("idhash: canonicalize search message: %w", err)
	}
	return sum(canon), nil
}

// JobHash hashes the full item blob (beckn_structure) as delivered by the
// BPP. Spec §4.1: "depends only on the normalised item blob."
func JobHash(itemBlob any) (string, error) {
	canon, err := canonicalJSON(itemBlob)
	if err != nil {
		return "", fmt.Errorf("idhash: canonicalize job blob: %w", err)
	}
	return sum(canon), nil
}

// ProfileFields is the fixed concatenation spec §4.1 names for profileHash:
// id, user_id, type, serialize(metadata), created_at, updated_at.
type ProfileFields struct {
	ID        string
	UserID    string
	Type      string
	Metadata  any
	CreatedAt string
	UpdatedAt string
}

// ProfileHash hashes the fixed field concatenation for a profile.
func ProfileHash(p ProfileFields) (string, error) {
	metaCanon, err := canonicalJSON(p.Metadata)
	if err != nil {
		return "", fmt.Errorf("idhash: canonicalize profile metadata: %w", err)
	}
	concat := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		p.ID, p.UserID, p.Type, string(metaCanon), p.CreatedAt, p.UpdatedAt)
	return sum([]byte(concat)), nil
}
