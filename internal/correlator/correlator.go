// Package correlator implements the pending-call registry of spec §4.4:
// a process-wide map from (transaction_id, message_id) to a single-shot
// waiter, used by select/init/confirm/status to turn the network's
// asynchronous callback into a synchronous response.
package correlator

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Correlator holds the pending-call registry. The zero value is not
// usable; construct with New.
type Correlator struct {
	mu      sync.Mutex
	pending map[string]chan any
	log     *logrus.Entry
}

// New returns an empty Correlator.
func New(log *logrus.Entry) *Correlator {
	return &Correlator{
		pending: make(map[string]chan any),
		log:     log,
	}
}

func key(txnID, msgID string) string {
	return txnID + "|" + msgID
}

// ErrAlreadyPending is returned by Begin when the (txn, msg) key is already
// registered.
var ErrAlreadyPending = fmt.Errorf("correlator: key already pending")

// Begin registers a fresh waiter for (txnID, msgID) and returns the channel
// a caller should receive on. Fails with ErrAlreadyPending if the key
// already exists — correlator keys are insert-or-fail (spec §5).
func (c *Correlator) Begin(txnID, msgID string) (<-chan any, error) {
	k := key(txnID, msgID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.pending[k]; exists {
		return nil, ErrAlreadyPending
	}
	ch := make(chan any, 1)
	c.pending[k] = ch
	return ch, nil
}

// Deliver resolves the waiter for (txnID, msgID) with payload, removing it
// from the registry. If no waiter is registered — the callback arrived
// late, or for an action no blocking caller is awaiting — it logs and
// discards (spec §4.4: "If absent, log and discard").
func (c *Correlator) Deliver(txnID, msgID string, payload any) {
	k := key(txnID, msgID)
	c.mu.Lock()
	ch, exists := c.pending[k]
	if exists {
		delete(c.pending, k)
	}
	c.mu.Unlock()

	if !exists {
		c.log.WithFields(logrus.Fields{
			"transaction_id": txnID,
			"message_id":     msgID,
		}).Debug("callback arrived with no pending waiter, discarding")
		return
	}
	// Buffered with capacity 1; this never blocks. A Deliver that races a
	// timed-out Await's cleanup still lands in the buffer harmlessly since
	// nothing reads from a channel whose key has already been removed.
	ch <- payload
}

// Await blocks on receiver up to timeout. On timeout it removes the
// pending entry if still present (so a later-arriving callback finds
// nothing to deliver to) and returns a context.DeadlineExceeded error.
func (c *Correlator) Await(ctx context.Context, txnID, msgID string, receiver <-chan any) (any, error) {
	select {
	case payload := <-receiver:
		return payload, nil
	case <-ctx.Done():
		k := key(txnID, msgID)
		c.mu.Lock()
		delete(c.pending, k)
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}
