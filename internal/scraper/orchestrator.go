package scraper

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dependencies are the collaborators shared by every session of a run.
type Dependencies struct {
	Launcher  Launcher
	Sink      RecordSink
	Publisher Publisher
	Resources ResourceLogger
	Metrics   Metrics
	Clock     Clock
}

// Orchestrator partitions targets across parallel browser sessions and
// aggregates their outcomes.
type Orchestrator struct {
	cfg  Config
	deps Dependencies
	log  *zap.Logger
}

// NewOrchestrator validates cfg and fills optional dependencies.
func NewOrchestrator(cfg Config, deps Dependencies, logger *zap.Logger) (*Orchestrator, error) {
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, cfg.Workers)
	}
	if deps.Launcher == nil {
		return nil, errors.New("browser launcher is required")
	}
	if deps.Sink == nil {
		return nil, errors.New("record sink is required")
	}
	if deps.Resources == nil {
		deps.Resources = nopResources{}
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Clock == nil {
		deps.Clock = wallClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:  cfg.withDefaults(),
		deps: deps,
		log:  logger,
	}, nil
}

// Run processes every target and blocks until all sessions have finished.
// The summary is always returned; the error is the first session startup
// failure, if any.
func (o *Orchestrator) Run(ctx context.Context, targets []string) (Summary, error) {
	if len(targets) == 0 {
		return Summary{}, ErrNoTargets
	}
	chunks, err := Partition(targets, o.cfg.Workers)
	if err != nil {
		return Summary{}, err
	}
	o.log.Info("Starting parallel execution",
		zap.Int("total_urls", len(targets)),
		zap.Int("browsers", o.cfg.Workers),
		zap.Int("urls_per_browser", len(chunks[0])),
		zap.Int("sessions", len(chunks)),
	)

	report := NewReport()
	consent := NewConsentHandler(nil, o.cfg.ConsentFallback, o.log.Named("consent"))

	var g errgroup.Group
	for i, chunk := range chunks {
		s := o.newSession(i+1, chunk, report, consent)
		g.Go(func() error {
			return s.run(ctx)
		})
	}
	runErr := g.Wait()

	report.LogSummary(o.log)
	if runErr != nil {
		return report.Summary(), fmt.Errorf("run sessions: %w", runErr)
	}
	return report.Summary(), nil
}

func (o *Orchestrator) newSession(id int, targets []string, report *Report, consent *ConsentHandler) *session {
	return &session{
		id:        id,
		targets:   targets,
		cfg:       o.cfg,
		launcher:  o.deps.Launcher,
		sink:      o.deps.Sink,
		publisher: o.deps.Publisher,
		report:    report,
		consent:   consent,
		resources: o.deps.Resources,
		metrics:   o.deps.Metrics,
		clock:     o.deps.Clock,
		logger:    o.log.Named("worker").With(zap.Int("worker_id", id)),
	}
}
