package observability

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubSampler struct {
	samples []Sample
	err     error
	calls   int
}

func (s *stubSampler) Sample() (Sample, error) {
	s.calls++
	if s.err != nil {
		return Sample{}, s.err
	}
	out := s.samples[0]
	if len(s.samples) > 1 {
		s.samples = s.samples[1:]
	}
	return out, nil
}

type stubGauge struct {
	rss uint64
	cpu float64
	n   int
}

func (g *stubGauge) ObserveResources(rss uint64, cpu float64) {
	g.rss, g.cpu = rss, cpu
	g.n++
}

func steppingClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestObserverLogsCheckpoints(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	sampler := &stubSampler{samples: []Sample{
		{RSSBytes: 100 << 20, CPUSeconds: 1},
		{RSSBytes: 120 << 20, CPUSeconds: 1.5},
	}}
	gauge := &stubGauge{}
	o := New(true, zap.New(core), WithSampler(sampler), WithGauge(gauge), WithClock(steppingClock(time.Second)))

	o.LogResources("worker 1 after browser startup")
	o.LogResources("after about extraction")

	entries := logs.FilterMessage("Resource checkpoint").All()
	require.Len(t, entries, 2)
	first := entries[0].ContextMap()
	assert.Equal(t, "worker 1 after browser startup", first["label"])
	assert.InDelta(t, 100.0, first["memory_mb"], 0.001)
	assert.InDelta(t, 0.0, first["cpu_percent"], 0.001)

	second := entries[1].ContextMap()
	assert.InDelta(t, 50.0, second["cpu_percent"], 0.001)
	assert.Equal(t, 2, gauge.n)
	assert.Equal(t, uint64(120<<20), gauge.rss)
}

func TestObserverDisabled(t *testing.T) {
	t.Parallel()

	sampler := &stubSampler{samples: []Sample{{}}}
	o := New(false, nil, WithSampler(sampler))
	o.LogResources("ignored")
	assert.Zero(t, sampler.calls)
	assert.False(t, o.Enabled())
}

func TestObserverSwallowsSamplingErrors(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	o := New(true, zap.New(core), WithSampler(&stubSampler{err: errors.New("no proc")}))
	require.NotPanics(t, func() { o.LogResources("startup") })
	assert.Equal(t, 1, logs.FilterMessage("resource sampling failed").Len())
	assert.Zero(t, logs.FilterMessage("Resource checkpoint").Len())
}

func TestProcSampler(t *testing.T) {
	t.Parallel()

	if runtime.GOOS != "linux" {
		t.Skip("procfs is only available on linux")
	}
	s, err := ProcSampler{}.Sample()
	require.NoError(t, err)
	assert.Positive(t, s.RSSBytes)
	assert.GreaterOrEqual(t, s.CPUSeconds, 0.0)
}
