// Package matchengine computes job/profile match scores incrementally,
// implementing spec §4.8: new/stale/missing pair discovery in one pass
// over durable storage, then batched (re)scoring and upsert.
package matchengine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dhiway/jobstack-bap/internal/catalogue"
	"github.com/dhiway/jobstack-bap/internal/embedclient"
	"github.com/dhiway/jobstack-bap/internal/scoring"
)

// Config names the batch size used for every work list (spec §4.8:
// "each in batches of configured size (minimum 1)").
type Config struct {
	BatchSize int
}

// Engine computes and persists match scores.
type Engine struct {
	cfg   Config
	store catalogue.Store
	embed *embedclient.Client
	rules scoring.RuleSet
	log   *logrus.Entry

	mu      sync.Mutex
	running bool
	queued  bool
}

func New(cfg Config, store catalogue.Store, embed *embedclient.Client, rules scoring.RuleSet, log *logrus.Entry) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	return &Engine{cfg: cfg, store: store, embed: embed, rules: rules, log: log}
}

// Trigger requests a scoring pass. If one is already in flight, it marks a
// single follow-up pass to run immediately after, collapsing any further
// concurrent triggers (spec §5: "at most one in-flight pass plus at most
// one queued pass").
func (e *Engine) Trigger(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.queued = true
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	go e.runLoop(ctx)
}

func (e *Engine) runLoop(ctx context.Context) {
	for {
		if err := e.runOnce(ctx); err != nil {
			e.log.WithError(err).Error("matchengine: pass failed")
		}

		e.mu.Lock()
		if e.queued {
			e.queued = false
			e.mu.Unlock()
			continue
		}
		e.running = false
		e.mu.Unlock()
		return
	}
}

func (e *Engine) runOnce(ctx context.Context) error {
	sim := scoring.NewSimilarityCache()
	batch := e.cfg.BatchSize

	stale, err := e.store.ListStaleMatches(ctx, batch)
	if err != nil {
		return fmt.Errorf("matchengine: list stale matches: %w", err)
	}
	for _, m := range stale {
		e.rescorePair(ctx, m.JobID, m.ProfileID, sim)
	}

	newJobs, err := e.store.ListJobsWithoutMatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("matchengine: list new jobs: %w", err)
	}
	if len(newJobs) > 0 {
		profiles, err := e.store.AllProfiles(ctx)
		if err != nil {
			return fmt.Errorf("matchengine: list all profiles: %w", err)
		}
		for _, j := range newJobs {
			for _, p := range profiles {
				e.scoreAndUpsert(ctx, j, p, sim)
			}
		}
	}

	newProfiles, err := e.store.ListProfilesWithoutMatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("matchengine: list new profiles: %w", err)
	}
	if len(newProfiles) > 0 {
		jobs, err := e.store.AllJobs(ctx)
		if err != nil {
			return fmt.Errorf("matchengine: list all jobs: %w", err)
		}
		for _, p := range newProfiles {
			for _, j := range jobs {
				e.scoreAndUpsert(ctx, j, p, sim)
			}
		}
	}

	missing, err := e.store.ListMissingPairs(ctx, batch)
	if err != nil {
		return fmt.Errorf("matchengine: list missing pairs: %w", err)
	}
	for _, pair := range missing {
		e.rescorePair(ctx, pair.JobID, pair.ProfileID, sim)
	}

	return nil
}

func (e *Engine) rescorePair(ctx context.Context, jobID, profileID string, sim *scoring.SimilarityCache) {
	job, err := e.store.GetJobByID(ctx, jobID)
	if err != nil || job == nil {
		e.log.WithError(err).WithField("job_id", jobID).Warn("matchengine: job lookup failed for pair rescore")
		return
	}
	profile, err := e.store.GetProfile(ctx, profileID)
	if err != nil || profile == nil {
		e.log.WithError(err).WithField("profile_id", profileID).Warn("matchengine: profile lookup failed for pair rescore")
		return
	}
	e.scoreAndUpsert(ctx, *job, *profile, sim)
}

func (e *Engine) scoreAndUpsert(ctx context.Context, job catalogue.Job, profile catalogue.Profile, sim *scoring.SimilarityCache) {
	var jobDoc, profileDoc any
	if err := json.Unmarshal(job.BecknStructure, &jobDoc); err != nil {
		e.log.WithError(err).WithField("job_id", job.JobID).Warn("matchengine: failed to decode job blob")
		return
	}
	if err := json.Unmarshal(profile.Metadata, &profileDoc); err != nil {
		e.log.WithError(err).WithField("profile_id", profile.ProfileID).Warn("matchengine: failed to decode profile metadata")
		return
	}

	jobText := scoring.JobEmbedText(jobDoc, e.rules)
	profileText := scoring.ProfileEmbedText(profileDoc, e.rules)

	var jobVec, profileVec []float32
	if jobText != "" {
		if v, err := e.embed.Embed(ctx, jobText); err == nil {
			jobVec = v
		}
	}
	if profileText != "" {
		if v, err := e.embed.Embed(ctx, profileText); err == nil {
			profileVec = v
		}
	}

	score, breakdown := scoring.Score(scoring.Input{
		ProfileEmbedding: profileVec,
		ProfileNorm:      scoring.Norm(profileVec),
		JobEmbedding:      jobVec,
		JobNorm:           scoring.Norm(jobVec),
		Profile:           profileDoc,
		Job:               jobDoc,
		Rules:             e.rules.MatchScore,
		Similarity:        sim,
	})

	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		e.log.WithError(err).Warn("matchengine: failed to marshal score breakdown")
		breakdownJSON = json.RawMessage("{}")
	}

	err = e.store.UpsertMatch(ctx, catalogue.Match{
		JobID:          job.JobID,
		ProfileID:      profile.ProfileID,
		JobHash:        job.Hash,
		ProfileHash:    profile.Hash,
		MatchScore:     scoring.PublicScore(score),
		ScoreBreakdown: breakdownJSON,
	})
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"job_id":     job.JobID,
			"profile_id": profile.ProfileID,
		}).Warn("matchengine: failed to upsert match")
	}
}
