// Package embedclient implements the embed(text) operation of spec §4.2:
// text to vector, content-addressed and cached. The remote embedding
// provider itself is an explicit external collaborator (spec §1); this
// package only needs a thin authenticated HTTP POST plus the two cache
// layers (in-process LRU, then the transient store).
package embedclient

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// TransientCache is the subset of the transient store this package needs:
// a byte-addressed get/set with no TTL constraint (spec §4.2: "cached
// without TTL constraint (best-effort)").
type TransientCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, val []byte) error
}

// Config names the remote provider endpoint and model, per spec §6's
// gcp.{project_id, model, auth_token} options. The provider's exact wire
// shape (GCP Vertex, OpenAI-compatible, etc.) is out of this module's
// scope; Endpoint must already point at something that accepts
// {"model":..., "input":...} and returns {"embedding":{"values":[...]}}.
type Config struct {
	Endpoint  string
	Model     string
	AuthToken string
	Timeout   time.Duration
}

// Client implements embed(text) with the two-tier cache of spec §4.2.
type Client struct {
	cfg    Config
	http   *http.Client
	cache  TransientCache
	local  *lru.Cache[string, []float32]
	log    *logrus.Entry
}

// New constructs a Client. localCacheSize bounds the in-process LRU that
// fronts the transient store (SPEC_FULL.md §11: grounded in
// go/network/frontend.go's lru.Cache[parsedSNI,resolvedSNI]).
func New(cfg Config, cache TransientCache, localCacheSize int, log *logrus.Entry) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	local, err := lru.New[string, []float32](localCacheSize)
	if err != nil {
		return nil, fmt.Errorf("embedclient: create local cache: %w", err)
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: cache,
		local: local,
		log:   log,
	}, nil
}

type remoteRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type remoteResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// cacheKey builds the embedding cache key of spec §4.2:
// embedding:{model}:{sha256(text)}.
func (c *Client) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embedding:%s:%s", c.cfg.Model, hex.EncodeToString(h[:]))
}

// Embed returns the embedding vector for text. Empty or whitespace-only
// input returns an empty vector with no network call (spec §4.2).
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	key := c.cacheKey(text)

	if v, ok := c.local.Get(key); ok {
		return v, nil
	}

	if raw, found, err := c.cache.GetBytes(ctx, key); err == nil && found {
		var vec []float32
		if err := json.Unmarshal(raw, &vec); err == nil {
			c.local.Add(key, vec)
			return vec, nil
		}
	}

	vec, err := c.fetch(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedclient: remote call failed: %w", err)
	}

	if raw, err := json.Marshal(vec); err == nil {
		if err := c.cache.SetBytes(ctx, key, raw); err != nil {
			c.log.WithError(err).Warn("failed to cache embedding, continuing without it")
		}
	}
	c.local.Add(key, vec)
	return vec, nil
}

func (c *Client) fetch(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(remoteRequest{Model: c.cfg.Model, Input: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding provider returned status %d", resp.StatusCode)
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Embedding.Values, nil
}
