// Package syncjobs extracts completed cron-sweep payloads into durable
// storage and prunes stale job rows, implementing the jobs half of spec
// §4.7: "Jobs are not pulled directly; they are extracted from on_search
// callbacks (cron path) and written to durable storage when the sweep
// closes."
package syncjobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dhiway/jobstack-bap/internal/catalogue"
	"github.com/dhiway/jobstack-bap/internal/idhash"
	"github.com/dhiway/jobstack-bap/internal/transient"
)

type cronPayload struct {
	Providers []map[string]any `json:"providers"`
}

// Syncer writes a completed sweep's merged per-BPP payloads into the
// durable jobs table and prunes rows left over from a previous sweep.
type Syncer struct {
	transient *transient.Store
	store     catalogue.Store
	log       *logrus.Entry
}

func New(ts *transient.Store, store catalogue.Store, log *logrus.Entry) *Syncer {
	return &Syncer{transient: ts, store: store, log: log}
}

// SyncSweep writes every BPP's merged payload for txnID into the durable
// jobs table, then deletes job rows for each seen bpp_id whose
// transaction_id is not txnID (spec §4.7, §3 invariant on stale removal).
func (s *Syncer) SyncSweep(ctx context.Context, txnID string) error {
	keys, err := s.transient.Keys(ctx, transient.CronJobsPattern(txnID))
	if err != nil {
		return fmt.Errorf("syncjobs: list cron merge keys: %w", err)
	}

	now := time.Now().UTC()
	seenBpp := make(map[string]bool)

	for _, key := range keys {
		bppID := bppIDFromKey(key, txnID)
		if bppID == "" {
			continue
		}
		raw, found, err := s.transient.GetBytes(ctx, key)
		if err != nil {
			s.log.WithError(err).WithField("bpp_id", bppID).Warn("syncjobs: failed to read cron merge state")
			continue
		}
		if !found {
			continue
		}
		var payload cronPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			s.log.WithError(err).WithField("bpp_id", bppID).Warn("syncjobs: failed to decode cron merge state")
			continue
		}

		for _, provider := range payload.Providers {
			providerID := stringField(provider, "id")
			if providerID == "" {
				providerID = stringField(provider, "jobProviderName")
			}
			items, _ := provider["items"].([]any)
			for _, raw := range items {
				item, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				if err := s.upsertJob(ctx, bppID, providerID, txnID, now, item); err != nil {
					s.log.WithError(err).WithField("bpp_id", bppID).Warn("syncjobs: failed to upsert job")
				}
			}
		}
		seenBpp[bppID] = true
	}

	for bppID := range seenBpp {
		n, err := s.store.DeleteStaleJobs(ctx, bppID, txnID)
		if err != nil {
			s.log.WithError(err).WithField("bpp_id", bppID).Warn("syncjobs: failed to prune stale jobs")
			continue
		}
		if n > 0 {
			s.log.WithFields(logrus.Fields{"bpp_id": bppID, "deleted": n}).Info("syncjobs: pruned stale jobs")
		}
	}
	return nil
}

func (s *Syncer) upsertJob(ctx context.Context, bppID, providerID, txnID string, now time.Time, item map[string]any) error {
	jobID := stringField(item, "id")
	if jobID == "" {
		return fmt.Errorf("syncjobs: item missing id")
	}
	// embedding is stored transiently for ranking but never persisted in
	// the durable blob; strip it here the same way query responses do.
	clean := make(map[string]any, len(item))
	for k, v := range item {
		if k == "embedding" {
			continue
		}
		clean[k] = v
	}
	blob, err := json.Marshal(clean)
	if err != nil {
		return fmt.Errorf("syncjobs: marshal job blob: %w", err)
	}
	hash, err := idhash.JobHash(clean)
	if err != nil {
		return fmt.Errorf("syncjobs: hash job blob: %w", err)
	}

	return s.store.UpsertJob(ctx, catalogue.Job{
		BppID:          bppID,
		ProviderID:     providerID,
		JobID:          jobID,
		BecknStructure: blob,
		Metadata:       json.RawMessage("{}"),
		Hash:           hash,
		TransactionID:  txnID,
		LastSyncedAt:   now,
	})
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func bppIDFromKey(key, txnID string) string {
	prefix := "cron_jobs:" + txnID + ":"
	if !strings.HasPrefix(key, prefix) {
		return ""
	}
	return strings.TrimPrefix(key, prefix)
}
