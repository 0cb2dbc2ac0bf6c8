// Package syncprofiles pulls candidate profiles from the seeker service
// and diffs them into durable storage, implementing the profiles half of
// spec §4.7.
package syncprofiles

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dhiway/jobstack-bap/internal/catalogue"
	"github.com/dhiway/jobstack-bap/internal/idhash"
)

// Config names the seeker-service HTTP endpoint and the page size used to
// walk it.
type Config struct {
	BaseURL  string
	APIKey   string
	PageSize int
	Timeout  time.Duration
}

// seekerRow is one page row returned by /profile/all.
type seekerRow struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Type      string          `json:"type"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type seekerPage struct {
	Data       []seekerRow `json:"data"`
	TotalCount int         `json:"totalCount"`
}

// Syncer pulls and diffs profiles.
type Syncer struct {
	cfg   Config
	http  *http.Client
	store catalogue.Store
	log   *logrus.Entry

	// OnComplete, when set, is invoked (in a new goroutine) after a
	// successful sweep, so the wiring layer can trigger a match-score pass
	// without this package importing the match engine.
	OnComplete func(context.Context)
}

func New(cfg Config, store catalogue.Store, log *logrus.Entry) *Syncer {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Syncer{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		store: store,
		log:   log,
	}
}

// SyncOne pulls and upserts a single profile by id, for the event worker's
// targeted re-sync of spec §4.10 step 3 ("sync that single profile by
// id"). It does not touch the stale-delete pass or last_synced_at
// cleanup, which only run on a full sweep.
func (s *Syncer) SyncOne(ctx context.Context, profileID string) error {
	row, err := s.fetchByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("syncprofiles: fetch profile %s: %w", profileID, err)
	}
	if err := s.upsertProfile(ctx, *row, time.Now().UTC()); err != nil {
		return fmt.Errorf("syncprofiles: upsert profile %s: %w", profileID, err)
	}
	return nil
}

// fetchByID asks the seeker's own listing endpoint for a single profile,
// the same /profile/all shape the full sweep uses, filtered by profileId
// (spec §8 S6: "calls seeker /profile/all?profileId=p-9&page=1&limit=30").
func (s *Syncer) fetchByID(ctx context.Context, profileID string) (*seekerRow, error) {
	reqURL := fmt.Sprintf("%s/profile/all?profileId=%s&page=1&limit=30", s.cfg.BaseURL, url.QueryEscape(profileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", s.cfg.APIKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("seeker returned status %d", resp.StatusCode)
	}

	var page seekerPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(page.Data) == 0 {
		return nil, fmt.Errorf("seeker returned no profile for id %s", profileID)
	}
	return &page.Data[0], nil
}

// Run executes one full pull-and-diff sweep (spec §4.7 steps 1-5).
func (s *Syncer) Run(ctx context.Context) error {
	syncStarted := time.Now().UTC()
	page := 1
	fetched := 0
	var sweepErr error

	for {
		resp, err := s.fetchPage(ctx, page)
		if err != nil {
			sweepErr = err
			s.log.WithError(err).WithField("page", page).Warn("syncprofiles: page fetch failed, aborting sweep")
			break
		}
		if len(resp.Data) == 0 {
			break
		}
		for _, row := range resp.Data {
			if err := s.upsertProfile(ctx, row, syncStarted); err != nil {
				s.log.WithError(err).WithField("profile_id", row.ID).Warn("syncprofiles: failed to upsert profile")
			}
		}
		fetched += len(resp.Data)
		if resp.TotalCount > 0 && fetched >= resp.TotalCount {
			break
		}
		page++
	}

	if sweepErr != nil {
		return fmt.Errorf("syncprofiles: sweep aborted: %w", sweepErr)
	}

	n, err := s.store.DeleteStaleProfiles(ctx, syncStarted)
	if err != nil {
		return fmt.Errorf("syncprofiles: prune stale profiles: %w", err)
	}
	if n > 0 {
		s.log.WithField("deleted", n).Info("syncprofiles: pruned stale profiles")
	}

	if s.OnComplete != nil {
		go s.OnComplete(context.Background())
	}
	return nil
}

func (s *Syncer) fetchPage(ctx context.Context, page int) (*seekerPage, error) {
	url := fmt.Sprintf("%s/profile/all?page=%d&limit=%d", s.cfg.BaseURL, page, s.cfg.PageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", s.cfg.APIKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("seeker returned status %d", resp.StatusCode)
	}

	var page_ seekerPage
	if err := json.NewDecoder(resp.Body).Decode(&page_); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &page_, nil
}

// upsertProfile maps one seeker row to a Profile, computing its hash and
// a derived beckn_structure, and conditionally updates storage (spec
// §4.7 step 2-3). The store's own upsert only touches changed columns
// when the hash differs, so this call always refreshes last_synced_at.
func (s *Syncer) upsertProfile(ctx context.Context, row seekerRow, syncStarted time.Time) error {
	hash, err := idhash.ProfileHash(idhash.ProfileFields{
		ID:        row.ID,
		UserID:    row.UserID,
		Type:      row.Type,
		Metadata:  row.Metadata,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("hash profile: %w", err)
	}

	beckn, err := json.Marshal(map[string]any{
		"id":         row.ID,
		"descriptor": map[string]any{"name": row.Type},
	})
	if err != nil {
		return fmt.Errorf("derive beckn structure: %w", err)
	}

	return s.store.UpsertProfile(ctx, catalogue.Profile{
		ProfileID:      row.ID,
		UserID:         row.UserID,
		Type:           row.Type,
		Metadata:       row.Metadata,
		BecknStructure: beckn,
		Hash:           hash,
	}, syncStarted)
}
