// Command bap-server runs the buyer-side (BAP) adapter: HTTP boundary,
// scheduler-driven sweeps, and the event worker, wired the way the
// teacher's command binaries wire theirs (go/sql-driver/main.go's
// flags-then-signal-then-task-group shape, generalized from gazette's
// task.Group to a plain context+WaitGroup since this service has no
// broker/consumer-shard lifecycle to host).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/dhiway/jobstack-bap/internal/adapter"
	"github.com/dhiway/jobstack-bap/internal/apply"
	"github.com/dhiway/jobstack-bap/internal/catalogue"
	"github.com/dhiway/jobstack-bap/internal/config"
	"github.com/dhiway/jobstack-bap/internal/correlator"
	"github.com/dhiway/jobstack-bap/internal/embedclient"
	"github.com/dhiway/jobstack-bap/internal/events"
	"github.com/dhiway/jobstack-bap/internal/httpapi"
	"github.com/dhiway/jobstack-bap/internal/logging"
	"github.com/dhiway/jobstack-bap/internal/matchengine"
	"github.com/dhiway/jobstack-bap/internal/notify"
	"github.com/dhiway/jobstack-bap/internal/payload"
	"github.com/dhiway/jobstack-bap/internal/scheduler"
	"github.com/dhiway/jobstack-bap/internal/scoring"
	"github.com/dhiway/jobstack-bap/internal/search"
	"github.com/dhiway/jobstack-bap/internal/syncjobs"
	"github.com/dhiway/jobstack-bap/internal/syncprofiles"
	"github.com/dhiway/jobstack-bap/internal/transient"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
)

func main() {
	if err := run(); err != nil {
		fmt.Println(red("fatal: " + err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	log := logging.For(logger, "main")

	rules, err := scoring.LoadRules(cfg.MatchScorePath)
	if err != nil {
		return fmt.Errorf("scoring rules: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg.DBURL, log)
	if err != nil {
		return fmt.Errorf("catalogue store: %w", err)
	}
	defer store.Close()

	ts, err := transient.New(transient.Config{URL: cfg.RedisURL}, logging.For(logger, "transient"))
	if err != nil {
		return fmt.Errorf("transient store: %w", err)
	}
	defer ts.Close()
	if err := ts.Ping(ctx); err != nil {
		return fmt.Errorf("transient store: ping: %w", err)
	}

	embed, err := embedclient.New(embedclient.Config{
		Endpoint:  vertexEndpoint(cfg.GCP.ProjectID, cfg.GCP.Model),
		Model:     cfg.GCP.Model,
		AuthToken: cfg.GCP.AuthToken,
	}, ts, 4096, logging.For(logger, "embedclient"))
	if err != nil {
		return fmt.Errorf("embedding client: %w", err)
	}

	ad := adapter.New(adapter.Config{BaseURL: cfg.Services.Adapter.BaseURL}, logging.For(logger, "adapter"))
	corr := correlator.New(logging.For(logger, "correlator"))

	searchCoord := search.New(search.Config{
		BapID:     cfg.Bap.ID,
		BapURI:    cfg.Bap.BapURI,
		Domain:    cfg.Bap.Domain,
		Version:   cfg.Bap.Version,
		TTL:       cfg.Bap.TTL,
		ResultTTL: time.Duration(cfg.Cache.ResultTTLSecs) * time.Second,
		TxnTTL:    time.Duration(cfg.Cache.TxnTTLSecs) * time.Second,
		Throttle:  time.Duration(cfg.Cache.ThrottleSecs) * time.Second,
	}, ts, ad, embed, rules, logging.For(logger, "search"))

	applyCoord := apply.New(apply.Config{
		BapID:   cfg.Bap.ID,
		BapURI:  cfg.Bap.BapURI,
		Domain:  cfg.Bap.Domain,
		Version: cfg.Bap.Version,
		TTL:     cfg.Bap.TTL,
	}, store, corr, ad, logging.For(logger, "apply"))
	drafts := apply.NewDrafts(store)

	jobsSyncer := syncjobs.New(ts, store, logging.For(logger, "syncjobs"))

	profilesSyncer := syncprofiles.New(syncprofiles.Config{
		BaseURL: cfg.Services.Seeker.BaseURL,
		APIKey:  cfg.Services.Seeker.APIKey,
	}, store, logging.For(logger, "syncprofiles"))

	matchEngine := matchengine.New(matchengine.Config{
		BatchSize: cfg.Cron.ComputeMatchScores.Batch,
	}, store, embed, rules, logging.For(logger, "matchengine"))

	notifier := notify.New(notify.Config{
		BaseURL:    cfg.Services.Notification.BaseURL,
		ContentSID: cfg.Services.Notification.ContentSID,
		NsKeyID:    cfg.Services.Notification.NsKeyID,
		NsSecret:   cfg.Services.Notification.NsSecret,
		MinScore:   int16(cfg.Cron.Notification.MinScore),
		BatchSize:  cfg.Cron.Notification.Batch,
	}, store, logging.For(logger, "notify"))

	// Wire the callback-injection points that avoid import cycles: a
	// completed cron sweep
	// syncs the cron cache into durable storage and then rescoring, and
	// a completed profile sync triggers rescoring too.
	searchCoord.OnSweepComplete = func(ctx context.Context) {
		latest, found, err := ts.GetBytes(ctx, transient.CronLatestKey())
		if err != nil || !found {
			return
		}
		if err := jobsSyncer.SyncSweep(ctx, string(latest)); err != nil {
			log.WithError(err).Warn("syncjobs: sweep sync failed")
			return
		}
		matchEngine.Trigger(ctx)
	}
	profilesSyncer.OnComplete = func(ctx context.Context) {
		matchEngine.Trigger(ctx)
	}

	eventWorker := events.New(ts, logging.For(logger, "events"))
	eventWorker.SyncProfile = profilesSyncer.SyncOne
	eventWorker.TriggerMatchScore = func(ctx context.Context) {
		matchEngine.Trigger(ctx)
	}

	srv := httpapi.NewServer(httpapi.Deps{
		Search:     searchCoord,
		Apply:      applyCoord,
		Drafts:     drafts,
		Store:      store,
		Transient:  ts,
		Correlator: corr,
		Adapter:    ad,
		ProfileIdentity: payload.Identity{
			ID:      cfg.Bpp.ID,
			URI:     cfg.Bpp.BapURI,
			Domain:  cfg.Bpp.Domain,
			Version: cfg.Bpp.Version,
			TTL:     cfg.Bpp.TTL,
		},
		XAPIKey: cfg.Auth.XAPIKey,
		Log:     logging.For(logger, "httpapi"),
	})

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port),
		Handler: srv.Router(),
	}

	notificationSchedule := scheduler.ClockSchedule{
		Type:    cfg.Cron.Notification.Schedule.Type,
		Weekday: cfg.Cron.Notification.Schedule.Weekday,
		Day:     cfg.Cron.Notification.Schedule.Day,
		Hour:    cfg.Cron.Notification.Schedule.Hour,
		Minute:  cfg.Cron.Notification.Schedule.Minute,
		Second:  cfg.Cron.Notification.Schedule.Seconds,
	}

	jobs := []scheduler.Job{
		{
			Name:     "fetch-jobs",
			Interval: time.Duration(cfg.Cron.FetchJobsSeconds) * time.Second,
			Run: func(ctx context.Context) {
				if err := searchCoord.StartSweep(ctx, "cron", 30); err != nil {
					log.WithError(err).Warn("scheduler: open-jobs sweep failed to start")
				}
			},
		},
		{
			Name:     "fetch-profiles",
			Interval: time.Duration(cfg.Cron.FetchProfilesSeconds) * time.Second,
			Run: func(ctx context.Context) {
				if err := profilesSyncer.Run(ctx); err != nil {
					log.WithError(err).Warn("scheduler: profile sync failed")
				}
			},
		},
		{
			Name:         "notify",
			InitialDelay: notificationSchedule.NextRun(time.Now()),
			NextDelay:    notificationSchedule.NextRun,
			Run: func(ctx context.Context) {
				if err := notifier.Run(ctx); err != nil {
					log.WithError(err).Warn("scheduler: notification dispatch failed")
				}
			},
		},
	}
	// cron.compute_match_scores.source selects what drives rescoring:
	// "scheduler" adds a periodic safety-net pass (reusing the fetch-jobs
	// cadence, since match scores only need to be as fresh as the jobs/
	// profiles they're computed from); any other value means rescoring is
	// driven solely by the OnSweepComplete/OnComplete/event callbacks
	// already wired above.
	if cfg.Cron.ComputeMatchScores.Source == "scheduler" {
		jobs = append(jobs, scheduler.Job{
			Name:     "compute-match-scores",
			Interval: time.Duration(cfg.Cron.FetchJobsSeconds) * time.Second,
			Run:      matchEngine.Trigger,
		})
	}

	sched := scheduler.New(logging.For(logger, "scheduler"), jobs...)

	schedWG := sched.Start(ctx)

	eventsDone := make(chan struct{})
	go func() {
		defer close(eventsDone)
		if err := eventWorker.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("event worker exited unexpectedly")
		}
	}()

	httpErrCh := make(chan error, 1)
	go func() {
		log.WithField("addr", httpSrv.Addr).Info(green("bap-server listening"))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			httpErrCh <- err
			return
		}
		httpErrCh <- nil
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-signalCh:
		log.WithField("signal", sig).Info("caught signal, shutting down")
	case err := <-httpErrCh:
		if err != nil {
			cancel()
			return fmt.Errorf("http server: %w", err)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server did not shut down cleanly")
	}

	schedWG.Wait()
	<-eventsDone

	log.Info("goodbye")
	return nil
}

// openStore picks the durable store implementation from the db.url
// scheme: "sqlite://<path>" for local dev/CI, anything else goes to
// Postgres (driver-choice pattern generalized from go/sql-driver/main.go's
// positional `driver` argument to a URL scheme, since this service has a
// single configured store rather than a pluggable-per-request driver).
func openStore(ctx context.Context, dbURL string, log *logrus.Entry) (catalogue.Store, error) {
	if path, ok := strings.CutPrefix(dbURL, "sqlite://"); ok {
		return catalogue.NewSQLiteStore(path)
	}
	return catalogue.NewPostgresStore(ctx, dbURL, log)
}

// vertexEndpoint builds the Vertex AI publisher-model predict URL from
// gcp.project_id and gcp.model (spec §6's gcp.{project_id, model,
// auth_token} options), since SPEC_FULL.md leaves the provider's exact
// wire target unspecified and embedclient.Config only takes a plain URL.
func vertexEndpoint(projectID, model string) string {
	return fmt.Sprintf(
		"https://us-central1-aiplatform.googleapis.com/v1/projects/%s/locations/us-central1/publishers/google/models/%s:predict",
		projectID, model,
	)
}
