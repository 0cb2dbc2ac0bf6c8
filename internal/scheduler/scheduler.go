// Package scheduler is the process-local periodic trigger registry of
// spec §4.11: per-job configurable period, a one-shot delayed first run,
// then a recurring schedule until shutdown.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultInitialDelay = 5 * time.Second

// Job is one periodic trigger: open-jobs fetch, profile fetch,
// match-score pass, or notification dispatch (spec §4.11).
type Job struct {
	Name         string
	InitialDelay time.Duration
	Interval     time.Duration
	// NextDelay, when set, overrides Interval for scheduling every run
	// after the first: it's called with the current time and returns the
	// delay until the next run. Used for clock-aligned weekly/monthly
	// schedules (spec §4.11), where a fixed period would drift the
	// schedule's type after the first occurrence (e.g. "monthly" firing
	// every 7 days instead of on the same day next month).
	NextDelay func(now time.Time) time.Duration
	Run       func(ctx context.Context)
}

// Scheduler runs a fixed set of Jobs concurrently until its context is
// cancelled. No in-flight sweep state survives a restart (spec §4.11's
// state machine: "Terminal on process shutdown; no persistence of
// in-flight sweeps").
type Scheduler struct {
	jobs []Job
	log  *logrus.Entry
}

func New(log *logrus.Entry, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, log: log}
}

// Start launches every job's loop in its own goroutine and returns
// immediately; callers should hold ctx open for the process lifetime and
// cancel it to stop all jobs, then optionally wait on the returned
// WaitGroup for graceful drain.
func (s *Scheduler) Start(ctx context.Context) *sync.WaitGroup {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(j Job) {
			defer wg.Done()
			s.runJob(ctx, j)
		}(job)
	}
	return &wg
}

func (s *Scheduler) runJob(ctx context.Context, j Job) {
	delay := j.InitialDelay
	if delay == 0 {
		delay = defaultInitialDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	s.safeRun(ctx, j)

	if j.NextDelay != nil {
		s.runClockAligned(ctx, j)
		return
	}

	if j.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.safeRun(ctx, j)
		}
	}
}

// runClockAligned recomputes the delay until the next run from the
// current time after every run, so a monthly schedule keeps landing on
// the same day of the following month instead of drifting onto a fixed
// period after its first occurrence.
func (s *Scheduler) runClockAligned(ctx context.Context, j Job) {
	for {
		timer := time.NewTimer(j.NextDelay(time.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.safeRun(ctx, j)
		}
	}
}

func (s *Scheduler) safeRun(ctx context.Context, j Job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("job", j.Name).WithField("panic", r).Error("scheduler: job panicked")
		}
	}()
	j.Run(ctx)
}
