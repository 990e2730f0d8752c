package scraper

import (
	"sync"

	"go.uber.org/zap"
)

// Report aggregates page outcomes across concurrently running sessions.
type Report struct {
	mu     sync.Mutex
	saved  int
	failed int
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{}
}

// RecordSaved counts one persisted page.
func (r *Report) RecordSaved() {
	r.mu.Lock()
	r.saved++
	r.mu.Unlock()
}

// RecordFailed counts one page that produced no output.
func (r *Report) RecordFailed() {
	r.mu.Lock()
	r.failed++
	r.mu.Unlock()
}

// Summary returns the current counters.
func (r *Report) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Summary{
		Saved:  r.saved,
		Failed: r.failed,
		Total:  r.saved + r.failed,
	}
}

// LogSummary emits the final run line.
func (r *Report) LogSummary(logger *zap.Logger) {
	s := r.Summary()
	logger.Info("Scraping completed",
		zap.Int("total", s.Total),
		zap.Int("saved", s.Saved),
		zap.Int("failed", s.Failed),
	)
}
