package scraper

import "time"

// ResourceLogger records process resource checkpoints.
type ResourceLogger interface {
	LogResources(label string)
}

// Metrics receives pipeline measurements.
type Metrics interface {
	ObservePage(outcome string)
	ObserveSessionStartup(d time.Duration)
	ObserveExtraction(d time.Duration)
	SessionStarted()
	SessionStopped()
}

type nopResources struct{}

func (nopResources) LogResources(string) {}

type nopMetrics struct{}

func (nopMetrics) ObservePage(string)                  {}
func (nopMetrics) ObserveSessionStartup(time.Duration) {}
func (nopMetrics) ObserveExtraction(time.Duration)     {}
func (nopMetrics) SessionStarted()                     {}
func (nopMetrics) SessionStopped()                     {}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now().UTC() }
