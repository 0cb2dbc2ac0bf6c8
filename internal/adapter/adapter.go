// Package adapter dispatches outbound requests to the network adapter —
// an explicit external collaborator (spec §1: "the outbound HTTP ...
// drivers"). This package only needs the thin POST-and-forget shape the
// teacher's own ingest handlers use (go/ingest/http_api.go).
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dhiway/jobstack-bap/internal/becknctx"
)

// Config names the network adapter base URL and the process-global
// outbound timeout (spec §5: "sensible default 30 s").
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client dispatches Beckn actions to the configured adapter.
type Client struct {
	cfg  Config
	http *http.Client
	log  *logrus.Entry
}

func New(cfg Config, log *logrus.Entry) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: dialer.DialContext,
			},
		},
		log: log,
	}
}

// Dispatch POSTs {context, message} to the adapter's /{action} endpoint.
// Errors are wrapped as ExternalServiceError by the caller; Dispatch itself
// just reports success or failure of the HTTP round trip.
func (c *Client) Dispatch(ctx context.Context, action string, envelope becknctx.Envelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("adapter: marshal envelope: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.cfg.BaseURL, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("adapter: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("adapter: dispatch %s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("adapter: %s returned status %d", action, resp.StatusCode)
	}
	return nil
}

// DispatchAsync fires Dispatch in a new goroutine and logs any failure,
// for the fire-and-forget search fan-out of spec §4.5 step 4.
func (c *Client) DispatchAsync(ctx context.Context, action string, envelope becknctx.Envelope) {
	go func() {
		if err := c.Dispatch(ctx, action, envelope); err != nil {
			c.log.WithError(err).WithField("action", action).Warn("outbound dispatch failed")
		}
	}()
}
