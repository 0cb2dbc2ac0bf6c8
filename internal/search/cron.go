package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dhiway/jobstack-bap/internal/becknctx"
	"github.com/dhiway/jobstack-bap/internal/scoring"
	"github.com/dhiway/jobstack-bap/internal/transient"
)

// StartSweep kicks off a scheduler-driven open-jobs sweep (spec §4.5.1
// step 1-3): a fresh cron-prefixed txn, an "open jobs" intent at page 1,
// sweep metadata stashed for bookkeeping, and a fire-and-forget dispatch.
func (c *Coordinator) StartSweep(ctx context.Context, source string, pageSize int) error {
	if pageSize <= 0 {
		pageSize = defaultCronPageSize
	}
	txnID := fmt.Sprintf("%s%s-%s", CronTxnPrefix, source, uuid.New().String())
	msgID := uuid.New().String()

	message := map[string]any{
		"intent": map[string]any{
			"tags": []map[string]any{
				{"code": "status", "value": "open"},
			},
		},
		"pagination": map[string]any{"page": 1, "limit": pageSize},
	}
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("search: marshal sweep intent: %w", err)
	}

	if err := c.transient.SetBytesTTL(ctx, cronTxnMetaKey(txnID), body, c.cfg.TxnTTL); err != nil {
		return fmt.Errorf("search: store sweep metadata: %w", err)
	}

	envelope := becknctx.Envelope{
		Context: c.buildContext("search", txnID, msgID, "", ""),
		Message: json.RawMessage(body),
	}
	c.adapter.DispatchAsync(context.Background(), "search", envelope)
	return nil
}

func cronTxnMetaKey(txnID string) string {
	return "cron_txn:" + txnID
}

// cronPayload is the merge shape of spec §4.5.1 step 2: providers
// identified by jobProviderName, items identified by id, plus the
// pagination counters.
type cronPayload struct {
	Providers  []map[string]any `json:"providers"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalCount int              `json:"totalCount"`
}

func decodeCronPayload(raw []byte) (cronPayload, error) {
	var p cronPayload
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, err
	}
	return p, nil
}

// handleCronOnSearch implements spec §4.5.1's per-BPP merge, embedding
// enrichment, and pagination-continuation logic.
func (c *Coordinator) handleCronOnSearch(ctx context.Context, env becknctx.RawEnvelope) error {
	txnID := env.Context.TransactionID
	bppID := env.Context.BppID
	key := transient.CronJobsKey(txnID, bppID)

	release, acquired, err := c.acquireMergeLock(ctx, txnID, bppID)
	if err != nil {
		return fmt.Errorf("search: acquire cron merge lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("search: could not acquire cron merge lock for %s/%s", txnID, bppID)
	}
	defer release()

	incoming, err := decodeCronPayload(env.Message)
	if err != nil {
		return fmt.Errorf("search: decode cron callback payload: %w", err)
	}

	existingRaw, found, err := c.transient.GetBytes(ctx, key)
	if err != nil {
		return fmt.Errorf("search: load cron merge state: %w", err)
	}

	var merged cronPayload
	var newItems []map[string]any
	if !found {
		merged = incoming
		for _, p := range merged.Providers {
			newItems = append(newItems, itemsOf(p)...)
		}
	} else {
		merged, err = decodeCronPayload(existingRaw)
		if err != nil {
			return fmt.Errorf("search: decode stored cron merge state: %w", err)
		}
		newItems = mergeProviders(&merged, incoming.Providers)
		merged.Page = incoming.Page
		merged.Limit = incoming.Limit
		merged.TotalCount = incoming.TotalCount
	}

	c.enrichEmbeddings(ctx, newItems)

	page, limit, total := merged.Page, merged.Limit, merged.TotalCount
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultCronPageSize
	}

	if page*limit < total {
		merged.Page = page + 1
		if err := c.storeCronPayload(ctx, key, merged); err != nil {
			return err
		}
		c.requestNextPage(ctx, env.Context, txnID, bppID, merged.Page, limit)
		return nil
	}

	if err := c.storeCronPayload(ctx, key, merged); err != nil {
		return err
	}
	if err := c.transient.SetBytes(ctx, transient.CronLatestKey(), []byte(txnID)); err != nil {
		return fmt.Errorf("search: mark sweep completion: %w", err)
	}
	if c.OnSweepComplete != nil {
		go c.OnSweepComplete(context.Background())
	}
	return nil
}

func (c *Coordinator) storeCronPayload(ctx context.Context, key string, p cronPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("search: marshal cron merge state: %w", err)
	}
	if err := c.transient.SetBytesTTL(ctx, key, body, c.cfg.TxnTTL); err != nil {
		return fmt.Errorf("search: store cron merge state: %w", err)
	}
	return nil
}

func (c *Coordinator) requestNextPage(ctx context.Context, prevCtx becknctx.Context, txnID, bppID string, page, limit int) {
	message := map[string]any{
		"intent": map[string]any{
			"tags": []map[string]any{{"code": "status", "value": "open"}},
		},
		"pagination": map[string]any{"page": page, "limit": limit},
	}
	envelope := becknctx.Envelope{
		Context: c.buildContext("search", txnID, uuid.New().String(), bppID, prevCtx.BppURI),
		Message: message,
	}
	c.adapter.DispatchAsync(context.Background(), "search", envelope)
}

func itemsOf(provider map[string]any) []map[string]any {
	raw, ok := provider["items"].([]any)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, it := range raw {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func providerName(p map[string]any) string {
	if n, ok := p["jobProviderName"].(string); ok {
		return n
	}
	return ""
}

func itemID(it map[string]any) string {
	if id, ok := it["id"].(string); ok {
		return id
	}
	return ""
}

// mergeProviders folds incoming providers into merged.Providers in place,
// returning the items that are genuinely new (not previously present by
// id) so the caller can enrich only those with embeddings.
func mergeProviders(merged *cronPayload, incoming []map[string]any) []map[string]any {
	byName := make(map[string]int, len(merged.Providers))
	for i, p := range merged.Providers {
		byName[strings.ToLower(providerName(p))] = i
	}

	var fresh []map[string]any
	for _, inProvider := range incoming {
		name := strings.ToLower(providerName(inProvider))
		idx, known := byName[name]
		if !known {
			merged.Providers = append(merged.Providers, inProvider)
			fresh = append(fresh, itemsOf(inProvider)...)
			continue
		}

		existing := merged.Providers[idx]
		existingItems := itemsOf(existing)
		byID := make(map[string]int, len(existingItems))
		for i, it := range existingItems {
			byID[itemID(it)] = i
		}

		for _, inItem := range itemsOf(inProvider) {
			id := itemID(inItem)
			if pos, already := byID[id]; already {
				if emb, ok := inItem["embedding"]; ok {
					existingItems[pos]["embedding"] = emb
				}
				continue
			}
			existingItems = append(existingItems, inItem)
			fresh = append(fresh, inItem)
		}
		existing["items"] = toAnySlice(existingItems)
		merged.Providers[idx] = existing
	}
	return fresh
}

func toAnySlice(items []map[string]any) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

func (c *Coordinator) acquireMergeLock(ctx context.Context, txnID, bppID string) (release func(), acquired bool, err error) {
	lockKey := txnID + ":" + bppID
	for attempt := 0; attempt < 20; attempt++ {
		release, acquired, err = c.transient.Lock(ctx, lockKey, 5*time.Second)
		if err != nil || acquired {
			return release, acquired, err
		}
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil, false, nil
}

// enrichEmbeddings builds each new item's embedding text from the scoring
// rule list and requests its vector, stashing it on the item (spec §4.5.1
// step 3). Items whose embedding text is empty are left untouched.
func (c *Coordinator) enrichEmbeddings(ctx context.Context, items []map[string]any) {
	for _, it := range items {
		text := scoring.JobEmbedText(it, c.rules)
		if strings.TrimSpace(text) == "" {
			continue
		}
		vec, err := c.embed.Embed(ctx, text)
		if err != nil {
			c.log.WithError(err).Warn("embedding request failed during cron enrichment")
			continue
		}
		floats := make([]any, len(vec))
		for i, v := range vec {
			floats[i] = v
		}
		it["embedding"] = floats
	}
}
