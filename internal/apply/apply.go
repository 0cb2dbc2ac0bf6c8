// Package apply implements the two-step init→confirm application chain of
// spec §4.6, synchronous select/status passthrough, and drafts CRUD.
package apply

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dhiway/jobstack-bap/internal/adapter"
	"github.com/dhiway/jobstack-bap/internal/becknctx"
	"github.com/dhiway/jobstack-bap/internal/catalogue"
	"github.com/dhiway/jobstack-bap/internal/correlator"
	"github.com/dhiway/jobstack-bap/internal/errs"
)

const synchronousTimeout = 10 * time.Second

// Config names the Bap identity used to build outbound envelopes.
type Config struct {
	BapID   string
	BapURI  string
	Domain  string
	Version string
	TTL     string
}

// Coordinator drives the synchronous request/callback endpoints: select,
// status, and the apply (init→confirm) chain.
type Coordinator struct {
	cfg   Config
	store catalogue.Store
	corr  *correlator.Correlator
	ad    *adapter.Client
	log   *logrus.Entry
}

func New(cfg Config, store catalogue.Store, corr *correlator.Correlator, ad *adapter.Client, log *logrus.Entry) *Coordinator {
	return &Coordinator{cfg: cfg, store: store, corr: corr, ad: ad, log: log}
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

// dispatchAndAwait sends action with message under the supplied
// transaction id and a fresh message id and blocks for the matching webhook callback,
// honouring the 10s synchronous cap of spec §5.
func (c *Coordinator) dispatchAndAwait(ctx context.Context, action, txnID, bppID, bppURI string, message any) (json.RawMessage, error) {
	msgID := uuid.New().String()
	receiver, err := c.corr.Begin(txnID, msgID)
	if err != nil {
		return nil, errs.Conflict(fmt.Sprintf("apply: %s", action), err)
	}

	envelope := becknctx.Envelope{
		Context: c.buildContext(action, txnID, msgID, bppID, bppURI),
		Message: message,
	}
	c.ad.DispatchAsync(context.Background(), action, envelope)

	waitCtx, cancel := context.WithTimeout(ctx, synchronousTimeout)
	defer cancel()

	payload, err := c.corr.Await(waitCtx, txnID, msgID, receiver)
	if err != nil {
		return nil, errs.Timeout(fmt.Sprintf("apply: %s", action), err)
	}
	raw, ok := payload.(json.RawMessage)
	if !ok {
		b, merr := json.Marshal(payload)
		if merr != nil {
			return nil, errs.ExternalService(fmt.Sprintf("apply: %s", action), merr)
		}
		raw = b
	}
	return raw, nil
}

// Select dispatches a select action and waits for on_select.
func (c *Coordinator) Select(ctx context.Context, txnID, bppID, bppURI string, message any) (json.RawMessage, error) {
	return c.dispatchAndAwait(ctx, "select", txnID, bppID, bppURI, message)
}

// Status dispatches a status action and waits for on_status.
func (c *Coordinator) Status(ctx context.Context, txnID, bppID, bppURI string, message any) (json.RawMessage, error) {
	return c.dispatchAndAwait(ctx, "status", txnID, bppID, bppURI, message)
}

// Request is the client-facing apply request: enough to check idempotency
// and build the init/confirm order payloads.
type Request struct {
	UserID string
	JobID  string
	BppID  string
	BppURI string
	Order  json.RawMessage
}

// Apply implements spec §4.6's apply(req): idempotent short-circuit, then
// init→confirm through the correlator, then persistence of the resulting
// application.
func (c *Coordinator) Apply(ctx context.Context, req Request) (json.RawMessage, bool, error) {
	existing, err := c.store.GetApplication(ctx, req.UserID, req.JobID)
	if err != nil {
		return nil, false, errs.StoreUnavailable("apply: check existing application", err)
	}
	if existing != nil {
		body, err := json.Marshal(existing)
		if err != nil {
			return nil, false, errs.ExternalService("apply: marshal existing application", err)
		}
		return body, true, nil
	}

	txnID := uuid.New().String()

	if _, err := c.dispatchAndAwait(ctx, "init", txnID, req.BppID, req.BppURI, req.Order); err != nil {
		return nil, false, err
	}

	confirmPayload, err := c.dispatchAndAwait(ctx, "confirm", txnID, req.BppID, req.BppURI, req.Order)
	if err != nil {
		return nil, false, err
	}

	app, err := extractApplication(confirmPayload)
	if err != nil {
		return nil, false, errs.Validation("apply: parse on_confirm payload", err)
	}
	if app.UserID == "" {
		app.UserID = req.UserID
	}
	if app.JobID == "" {
		app.JobID = req.JobID
	}
	app.Metadata = confirmPayload

	if err := c.store.InsertApplication(ctx, app); err != nil {
		return nil, false, errs.StoreUnavailable("apply: insert application", err)
	}

	return confirmPayload, false, nil
}

// extractApplication pulls transaction_id, bpp_id, bpp_uri, user_id
// (first fulfillment's customer, falling back to its id), job_id (first
// item), and order_id out of an on_confirm payload (spec §4.6 step 4).
func extractApplication(payload json.RawMessage) (catalogue.Application, error) {
	var doc struct {
		Context becknctx.Context `json:"context"`
		Order   struct {
			ID           string `json:"id"`
			Items        []struct {
				ID string `json:"id"`
			} `json:"items"`
			Fulfillments []struct {
				ID       string `json:"id"`
				Customer struct {
					ID     string `json:"id"`
					Person struct {
						ID string `json:"id"`
					} `json:"person"`
				} `json:"customer"`
			} `json:"fulfillments"`
		} `json:"order"`
	}
	var envelope struct {
		Context becknctx.Context `json:"context"`
		Message struct {
			Order json.RawMessage `json:"order"`
		} `json:"message"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return catalogue.Application{}, fmt.Errorf("apply: decode confirm envelope: %w", err)
	}
	if err := json.Unmarshal(envelope.Message.Order, &doc.Order); err != nil {
		return catalogue.Application{}, fmt.Errorf("apply: decode confirm order: %w", err)
	}

	var userID, jobID string
	if len(doc.Order.Fulfillments) > 0 {
		cust := doc.Order.Fulfillments[0].Customer
		if cust.Person.ID != "" {
			userID = cust.Person.ID
		} else {
			userID = cust.ID
		}
	}
	if len(doc.Order.Items) > 0 {
		jobID = doc.Order.Items[0].ID
	}

	return catalogue.Application{
		UserID:        userID,
		JobID:         jobID,
		OrderID:       doc.Order.ID,
		TransactionID: envelope.Context.TransactionID,
		BppID:         envelope.Context.BppID,
		BppURI:        envelope.Context.BppURI,
		Status:        "APPLIED",
	}, nil
}
