// Package events consumes profile lifecycle events from the transient
// store's stream under consumer-group semantics, implementing spec §4.10.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dhiway/jobstack-bap/internal/transient"
)

// AppEvent is the payload of a single stream entry (spec §3: "Event").
type AppEvent struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

const (
	EventProfileCreated = "profile.created"
	EventProfileUpdated = "profile.updated"
)

const reconnectBackoff = 3 * time.Second

// Worker reads app_events under the bap_group consumer group and
// dispatches each entry by event_type.
type Worker struct {
	transient *transient.Store
	log       *logrus.Entry

	// SyncProfile is invoked with a single profile id for
	// profile.created/profile.updated events (spec §4.10 step 3).
	SyncProfile func(ctx context.Context, profileID string) error
	// TriggerMatchScore is invoked after a successful single-profile sync.
	TriggerMatchScore func(ctx context.Context)
}

func New(ts *transient.Store, log *logrus.Entry) *Worker {
	return &Worker{transient: ts, log: log}
}

// Run blocks, consuming entries until ctx is cancelled. Connection
// failures back off and retry (spec §4.10 step 5).
func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.transient.EnsureGroup(ctx, transient.EventStream, transient.EventGroup); err != nil {
			w.log.WithError(err).Warn("events: failed to ensure consumer group, retrying")
			if !sleepOrDone(ctx, reconnectBackoff) {
				return ctx.Err()
			}
			continue
		}
		break
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		entries, err := w.transient.ReadGroup(ctx, transient.EventStream, transient.EventGroup, transient.EventConsumer, 10, 5*time.Second)
		if err != nil {
			w.log.WithError(err).Warn("events: read failed, backing off")
			if !sleepOrDone(ctx, reconnectBackoff) {
				return ctx.Err()
			}
			continue
		}

		for _, entry := range entries {
			w.handle(ctx, entry)
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (w *Worker) handle(ctx context.Context, entry transient.StreamEntry) {
	if err := w.dispatch(ctx, entry); err != nil {
		w.log.WithError(err).WithField("entry_id", entry.ID).Warn("events: handler failed, leaving entry pending")
		return
	}
	if err := w.transient.Ack(ctx, transient.EventStream, transient.EventGroup, entry.ID); err != nil {
		w.log.WithError(err).WithField("entry_id", entry.ID).Warn("events: ack failed")
	}
}

func (w *Worker) dispatch(ctx context.Context, entry transient.StreamEntry) error {
	raw, ok := entry.Fields["event"]
	if !ok {
		return fmt.Errorf("events: entry %s missing event field", entry.ID)
	}
	s, ok := raw.(string)
	if !ok {
		return fmt.Errorf("events: entry %s event field is not a string", entry.ID)
	}

	var evt AppEvent
	if err := json.Unmarshal([]byte(s), &evt); err != nil {
		return fmt.Errorf("events: decode entry %s: %w", entry.ID, err)
	}

	switch evt.EventType {
	case EventProfileCreated, EventProfileUpdated:
		var profile struct {
			ProfileID string `json:"profileId"`
		}
		if err := json.Unmarshal(evt.Payload, &profile); err != nil {
			return fmt.Errorf("events: decode %s payload: %w", evt.EventType, err)
		}
		if w.SyncProfile == nil {
			return nil
		}
		if err := w.SyncProfile(ctx, profile.ProfileID); err != nil {
			return fmt.Errorf("events: sync profile %s: %w", profile.ProfileID, err)
		}
		if w.TriggerMatchScore != nil {
			w.TriggerMatchScore(ctx)
		}
		return nil
	default:
		w.log.WithField("event_type", evt.EventType).Debug("events: no handler for event type, acking")
		return nil
	}
}
