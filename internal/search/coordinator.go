// Package search implements the cached-fanout search coordinator of spec
// §4.5: client-facing search against a short-lived cache, the webhook
// merge path, and the cron pagination pipeline that keeps the durable
// catalogue current (§4.5.1/§4.5.2).
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dhiway/jobstack-bap/internal/adapter"
	"github.com/dhiway/jobstack-bap/internal/becknctx"
	"github.com/dhiway/jobstack-bap/internal/embedclient"
	"github.com/dhiway/jobstack-bap/internal/idhash"
	"github.com/dhiway/jobstack-bap/internal/scoring"
	"github.com/dhiway/jobstack-bap/internal/transient"
)

// CronTxnPrefix marks transaction ids belonging to the scheduler-driven
// open-jobs sweep rather than a synchronous client search.
const CronTxnPrefix = "cron-"

const defaultCronPageSize = 30

// Config names the Bap identity used on every dispatched envelope and the
// cache lifetimes of spec §6.
type Config struct {
	BapID     string
	BapURI    string
	Domain    string
	Version   string
	TTL       string
	ResultTTL time.Duration
	TxnTTL    time.Duration
	Throttle  time.Duration
}

// Coordinator is the search component. It owns no in-process cache; the
// transient store is the single source of truth (spec §5).
type Coordinator struct {
	cfg       Config
	transient *transient.Store
	adapter   *adapter.Client
	embed     *embedclient.Client
	rules     scoring.RuleSet
	log       *logrus.Entry

	// OnSweepComplete, when set, is invoked (in a new goroutine) every time
	// a per-BPP cron pagination finishes, so the wiring layer can trigger a
	// match-score pass without this package importing the match engine.
	OnSweepComplete func(context.Context)
}

func New(cfg Config, ts *transient.Store, ad *adapter.Client, embed *embedclient.Client, rules scoring.RuleSet, log *logrus.Entry) *Coordinator {
	return &Coordinator{cfg: cfg, transient: ts, adapter: ad, embed: embed, rules: rules, log: log}
}

func (c *Coordinator) buildContext(action, txnID, msgID, bppID, bppURI string) becknctx.Context {
	return becknctx.Context{
		TransactionID: txnID,
		MessageID:     msgID,
		Action:        action,
		BapID:         c.cfg.BapID,
		BapURI:        c.cfg.BapURI,
		BppID:         bppID,
		BppURI:        bppURI,
		Domain:        c.cfg.Domain,
		Version:       c.cfg.Version,
		TTL:           c.cfg.TTL,
		Timestamp:     time.Now().UTC(),
	}
}

// Search implements the client-facing /api/v1/search handler of spec §4.5:
// compute the query fingerprint, read whatever is already cached, register
// the txn for the webhook to find, throttle the outbound dispatch, and
// return immediately without waiting on any callback.
func (c *Coordinator) Search(ctx context.Context, rawMessage json.RawMessage) (results []json.RawMessage, txnID string, err error) {
	var msg idhash.SearchMessage
	if err := json.Unmarshal(rawMessage, &msg); err != nil {
		return nil, "", fmt.Errorf("search: decode message: %w", err)
	}
	q, err := idhash.QueryHash(msg)
	if err != nil {
		return nil, "", fmt.Errorf("search: query hash: %w", err)
	}

	txnID = uuid.New().String()
	msgID := uuid.New().String()

	results, err = c.readCache(ctx, q)
	if err != nil {
		return nil, "", fmt.Errorf("search: read cache: %w", err)
	}

	if err := c.transient.SetBytesTTL(ctx, transient.TxnToQueryKey(txnID), []byte(q), c.cfg.TxnTTL); err != nil {
		return nil, "", fmt.Errorf("search: register txn_to_query: %w", err)
	}

	setByUs, err := c.transient.SetNXTTL(ctx, transient.ThrottleKey(q), []byte("1"), c.cfg.Throttle)
	if err != nil {
		return nil, "", fmt.Errorf("search: throttle check: %w", err)
	}
	if setByUs {
		envelope := becknctx.Envelope{
			Context: c.buildContext("search", txnID, msgID, "", ""),
			Message: rawMessage,
		}
		c.adapter.DispatchAsync(context.Background(), "search", envelope)
	}

	return results, txnID, nil
}

func (c *Coordinator) readCache(ctx context.Context, queryHash string) ([]json.RawMessage, error) {
	keys, err := c.transient.Keys(ctx, transient.SearchResultPattern(queryHash))
	if err != nil {
		return nil, err
	}
	vals, err := c.transient.MGet(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		out = append(out, json.RawMessage(v))
	}
	return out, nil
}

// HandleOnSearch implements the /webhook/on_search callback of spec §4.5:
// cron-prefixed transactions are handed to the pagination pipeline,
// everything else is merged into the per-query cache keyed by bpp_id.
func (c *Coordinator) HandleOnSearch(ctx context.Context, env becknctx.RawEnvelope) error {
	if strings.HasPrefix(env.Context.TransactionID, CronTxnPrefix) {
		return c.handleCronOnSearch(ctx, env)
	}

	q, found, err := c.transient.GetBytes(ctx, transient.TxnToQueryKey(env.Context.TransactionID))
	if err != nil {
		return fmt.Errorf("search: lookup txn_to_query: %w", err)
	}
	if !found {
		c.log.WithField("transaction_id", env.Context.TransactionID).Warn("on_search for unknown txn, dropping")
		return nil
	}

	key := transient.SearchResultKey(string(q), env.Context.BppID)
	if err := c.transient.SetBytesTTL(ctx, key, env.Message, c.cfg.ResultTTL); err != nil {
		return fmt.Errorf("search: write cache entry: %w", err)
	}
	return nil
}
