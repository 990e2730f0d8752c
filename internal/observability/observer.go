// Package observability samples process resources at pipeline checkpoints.
package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/procfs"
	"go.uber.org/zap"
)

// Sample is one reading of the harvester process.
type Sample struct {
	RSSBytes   uint64
	CPUSeconds float64
}

// Sampler reads the current process resources.
type Sampler interface {
	Sample() (Sample, error)
}

// Gauge receives every successful sample.
type Gauge interface {
	ObserveResources(rssBytes uint64, cpuPercent float64)
}

// ProcSampler reads /proc/self through procfs.
type ProcSampler struct{}

// Sample implements Sampler.
func (ProcSampler) Sample() (Sample, error) {
	proc, err := procfs.Self()
	if err != nil {
		return Sample{}, fmt.Errorf("open /proc/self: %w", err)
	}
	stat, err := proc.Stat()
	if err != nil {
		return Sample{}, fmt.Errorf("read process stat: %w", err)
	}
	return Sample{
		RSSBytes:   uint64(stat.ResidentMemory()),
		CPUSeconds: stat.CPUTime(),
	}, nil
}

// Observer logs memory and CPU at named checkpoints. CPU is reported as the
// share of one core used since the previous checkpoint; the first
// checkpoint reports zero.
type Observer struct {
	enabled bool
	sampler Sampler
	gauge   Gauge
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	lastCPU  float64
	lastWall time.Time
}

// Option customizes an Observer.
type Option func(*Observer)

// WithSampler replaces the procfs sampler.
func WithSampler(s Sampler) Option {
	return func(o *Observer) { o.sampler = s }
}

// WithGauge mirrors samples into metrics.
func WithGauge(g Gauge) Option {
	return func(o *Observer) { o.gauge = g }
}

// WithClock overrides the wall clock used for CPU deltas.
func WithClock(now func() time.Time) Option {
	return func(o *Observer) { o.now = now }
}

// New returns an Observer. A disabled observer never samples.
func New(enabled bool, logger *zap.Logger, opts ...Option) *Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Observer{
		enabled: enabled,
		sampler: ProcSampler{},
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enabled reports whether checkpoints are logged.
func (o *Observer) Enabled() bool {
	return o.enabled
}

// LogResources records a checkpoint. Sampling failures are logged at debug
// and otherwise ignored.
func (o *Observer) LogResources(label string) {
	if !o.enabled {
		return
	}
	s, err := o.sampler.Sample()
	if err != nil {
		o.logger.Debug("resource sampling failed", zap.String("label", label), zap.Error(err))
		return
	}
	cpu := o.cpuPercent(s.CPUSeconds)
	o.logger.Info("Resource checkpoint",
		zap.String("label", label),
		zap.Float64("memory_mb", float64(s.RSSBytes)/(1024*1024)),
		zap.Float64("cpu_percent", cpu),
	)
	if o.gauge != nil {
		o.gauge.ObserveResources(s.RSSBytes, cpu)
	}
}

func (o *Observer) cpuPercent(cpuSeconds float64) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	var pct float64
	if !o.lastWall.IsZero() {
		if wall := now.Sub(o.lastWall).Seconds(); wall > 0 {
			pct = (cpuSeconds - o.lastCPU) / wall * 100
		}
	}
	o.lastCPU = cpuSeconds
	o.lastWall = now
	if pct < 0 {
		pct = 0
	}
	return pct
}
