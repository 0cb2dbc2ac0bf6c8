// Package notify sends templated notifications for high-scoring matches
// to a downstream provider, implementing spec §4.9.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dhiway/jobstack-bap/internal/catalogue"
)

// Config names the downstream notification endpoint, its signing secret,
// and the batching/threshold knobs of spec §6's cron.notification group.
type Config struct {
	BaseURL        string
	ContentSID     string
	NsKeyID        string
	NsSecret       string
	MinScore       int16
	BatchSize      int
	BatchInterval  time.Duration
	Timeout        time.Duration
}

const notifyPath = "/notify"

// Dispatcher selects eligible matches and sends a signed notification for
// each, in rate-limited batches.
type Dispatcher struct {
	cfg   Config
	store catalogue.Store
	http  *http.Client
	log   *logrus.Entry
}

func New(cfg Config, store catalogue.Store, log *logrus.Entry) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if cfg.BatchInterval == 0 {
		cfg.BatchInterval = 5 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Dispatcher{cfg: cfg, store: store, http: &http.Client{Timeout: cfg.Timeout}, log: log}
}

// Run selects every match at or above the configured threshold, chunked
// by the configured batch size, sleeping between batches to respect
// downstream rate limits (spec §4.9).
func (d *Dispatcher) Run(ctx context.Context) error {
	offset := 0
	first := true
	for {
		batch, err := d.store.MatchesAboveThreshold(ctx, d.cfg.MinScore, d.cfg.BatchSize, offset)
		if err != nil {
			return fmt.Errorf("notify: fetch match batch: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}

		if !first {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.cfg.BatchInterval):
			}
		}
		first = false

		for _, m := range batch {
			if err := d.send(ctx, m); err != nil {
				d.log.WithError(err).WithFields(logrus.Fields{
					"job_id":     m.JobID,
					"profile_id": m.ProfileID,
				}).Warn("notify: send failed")
			}
		}

		offset += len(batch)
		if len(batch) < d.cfg.BatchSize {
			return nil
		}
	}
}

type notificationBody struct {
	ProfileID  string `json:"profile_id"`
	JobID      string `json:"job_id"`
	MatchScore int16  `json:"match_score"`
	ContentSID string `json:"content_sid"`
}

func (d *Dispatcher) send(ctx context.Context, m catalogue.MatchWithJob) error {
	body, err := json.Marshal(notificationBody{
		ProfileID:  m.ProfileID,
		JobID:      m.JobID,
		MatchScore: m.MatchScore,
		ContentSID: d.cfg.ContentSID,
	})
	if err != nil {
		return fmt.Errorf("marshal notification body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.BaseURL+notifyPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	sig, ts, nonce, err := d.sign(http.MethodPost, notifyPath)
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	req.Header.Set("X-Signature", sig)
	req.Header.Set("X-Timestamp", fmt.Sprintf("%d", ts))
	req.Header.Set("X-Nonce", nonce)
	req.Header.Set("X-Ns-Key-Id", d.cfg.NsKeyID)

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// sign computes the HMAC-SHA256 signature of spec §4.9:
// "{METHOD}\n{PATH}\n{UNIX_TS}\n{HEX_NONCE}", signature header
// "v1={hex(mac)}".
func (d *Dispatcher) sign(method, path string) (sig string, ts int64, hexNonce string, err error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", 0, "", fmt.Errorf("generate nonce: %w", err)
	}
	hexNonce = hex.EncodeToString(nonce)
	ts = time.Now().Unix()

	message := fmt.Sprintf("%s\n%s\n%d\n%s", method, path, ts, hexNonce)
	mac := hmac.New(sha256.New, []byte(d.cfg.NsSecret))
	mac.Write([]byte(message))

	return fmt.Sprintf("v1=%s", hex.EncodeToString(mac.Sum(nil))), ts, hexNonce, nil
}
