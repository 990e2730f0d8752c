// Package app builds the long-lived services of a scrape run from
// configuration and owns their shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	gpubsub "cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/JakeFAU/about-harvester/internal/browser"
	"github.com/JakeFAU/about-harvester/internal/config"
	"github.com/JakeFAU/about-harvester/internal/metrics"
	"github.com/JakeFAU/about-harvester/internal/observability"
	memorypublisher "github.com/JakeFAU/about-harvester/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/about-harvester/internal/publisher/pubsub"
	"github.com/JakeFAU/about-harvester/internal/scraper"
	"github.com/JakeFAU/about-harvester/internal/server"
	"github.com/JakeFAU/about-harvester/internal/sink"
	"github.com/JakeFAU/about-harvester/internal/storage"
	gcsstorage "github.com/JakeFAU/about-harvester/internal/storage/gcs"
	localstorage "github.com/JakeFAU/about-harvester/internal/storage/local"
	memorystorage "github.com/JakeFAU/about-harvester/internal/storage/memory"
	pgstore "github.com/JakeFAU/about-harvester/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

// App holds the services shared by every browser session of a run.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	runID     string
	recorder  *metrics.Recorder
	observer  *observability.Observer
	launcher  scraper.Launcher
	sink      scraper.RecordSink
	publisher scraper.Publisher
	dryRun    *memorypublisher.Publisher
	server    *server.Server
	running   atomic.Bool
	closers   []func() error
	optErr    error
}

// Option customizes App construction.
type Option func(*App)

// WithLauncher replaces the chromedp launcher.
func WithLauncher(l scraper.Launcher) Option {
	return func(a *App) { a.launcher = l }
}

// WithBlobStore bypasses storage.backend and writes through store. A nil
// store makes New fail.
func WithBlobStore(store storage.BlobStore) Option {
	return func(a *App) {
		s, err := sink.NewBlobSink(store)
		if err != nil {
			a.optErr = errors.Join(a.optErr, fmt.Errorf("blob store option: %w", err))
			return
		}
		a.sink = s
	}
}

// WithPublisher replaces the publisher selected from pubsub.* keys.
func WithPublisher(p scraper.Publisher) Option {
	return func(a *App) { a.publisher = p }
}

// New builds every service. Services that hold connections are closed by
// Close, including when New fails halfway.
func New(ctx context.Context, cfg config.Config, runID string, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		cfg:      cfg,
		logger:   logger,
		runID:    runID,
		recorder: metrics.New(nil),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.optErr != nil {
		return nil, a.optErr
	}
	a.observer = observability.New(
		cfg.Observability.LogResources,
		logger.Named("resources"),
		observability.WithGauge(a.recorder),
	)
	if a.launcher == nil {
		a.launcher = browser.NewLauncher(
			browser.Config{NavigationTimeout: cfg.Scraper.NavigationTimeout},
			logger.Named("chromedp"),
		)
	}
	if a.sink == nil {
		s, err := a.buildSink(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.sink = s
	}
	if a.publisher == nil && cfg.PubSub.TopicName != "" {
		p, err := a.buildPublisher(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.publisher = p
	}
	logger.Info("Application services initialized",
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.Bool("publish", a.publisher != nil),
		zap.Bool("log_resources", a.observer.Enabled()),
	)
	return a, nil
}

func (a *App) buildSink(ctx context.Context) (scraper.RecordSink, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendMemory:
		return sink.NewBlobSink(memorystorage.NewBlobStore())
	case config.BackendGCS:
		store, err := gcsstorage.Open(ctx, gcsstorage.Config{
			Bucket: a.cfg.Storage.GCSBucket,
			Prefix: a.cfg.Storage.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("init gcs storage: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return sink.NewBlobSink(store)
	case config.BackendPostgres:
		store, err := pgstore.NewRecordStore(ctx, pgstore.Config{DSN: a.cfg.DB.DSN, Table: a.cfg.DB.Table})
		if err != nil {
			return nil, fmt.Errorf("init postgres storage: %w", err)
		}
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := localstorage.New(localstorage.Config{BaseDir: a.cfg.Storage.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		return sink.NewBlobSink(store)
	}
}

func (a *App) buildPublisher(ctx context.Context) (scraper.Publisher, error) {
	if a.cfg.PubSub.ProjectID == "" {
		a.logger.Warn("pubsub.project_id not set; notifications are recorded in memory only",
			zap.String("topic", a.cfg.PubSub.TopicName))
		a.dryRun = memorypublisher.New()
		return a.dryRun, nil
	}
	client, err := gpubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("init pubsub client: %w", err)
	}
	p := gcppublisher.New(client, map[string]string{"run_id": a.runID})
	a.closers = append(a.closers, p.Close)
	return p, nil
}

// Run scrapes targets, serving metrics for the duration when
// observability.metrics_addr is set.
func (a *App) Run(ctx context.Context, targets []string) (scraper.Summary, error) {
	if addr := a.cfg.Observability.MetricsAddr; addr != "" {
		a.server = server.New(a.recorder.Handler(), a.recorder, a.running.Load, a.logger.Named("http"))
		if _, err := a.server.Start(addr); err != nil {
			return scraper.Summary{}, fmt.Errorf("start metrics server: %w", err)
		}
	}

	orch, err := scraper.NewOrchestrator(a.cfg.ScraperSettings(), scraper.Dependencies{
		Launcher:  a.launcher,
		Sink:      a.sink,
		Publisher: a.publisher,
		Resources: a.observer,
		Metrics:   a.recorder,
	}, a.logger)
	if err != nil {
		return scraper.Summary{}, err
	}

	a.running.Store(true)
	defer a.running.Store(false)
	summary, err := orch.Run(ctx, targets)
	if a.dryRun != nil {
		a.logger.Info("Dry-run notifications recorded",
			zap.String("topic", a.cfg.PubSub.TopicName),
			zap.Int("count", a.dryRun.Count(a.cfg.PubSub.TopicName)),
		)
	}
	return summary, err
}

// DryRunNotifications returns the notifications kept in memory when
// pubsub.topic_name is set without pubsub.project_id.
func (a *App) DryRunNotifications() []memorypublisher.PublishedMessage {
	if a.dryRun == nil {
		return nil
	}
	return a.dryRun.Messages()
}

// Recorder exposes the run's metrics.
func (a *App) Recorder() *metrics.Recorder {
	return a.recorder
}

// Close stops the metrics server and releases storage and publisher
// connections. It is safe to call more than once.
func (a *App) Close() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Warn("metrics server shutdown failed", zap.Error(err))
		}
		cancel()
		a.server = nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("closing services failed", zap.Error(err))
	}
}
