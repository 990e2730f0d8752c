package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// session drives one browser over one chunk of targets.
type session struct {
	id        int
	targets   []string
	cfg       Config
	launcher  Launcher
	sink      RecordSink
	publisher Publisher
	report    *Report
	consent   *ConsentHandler
	resources ResourceLogger
	metrics   Metrics
	clock     Clock
	logger    *zap.Logger
}

func (s *session) launchConfig() LaunchConfig {
	return LaunchConfig{
		Headless:   s.cfg.Headless,
		ProfileDir: fmt.Sprintf("%s-%d", s.cfg.ProfileDir, s.id),
		Flags:      append([]string(nil), s.cfg.LaunchFlags...),
		ExecPath:   s.cfg.ExecPath,
	}
}

// run starts the browser, processes every target in order, and always
// stops the browser. Only session setup failures are returned.
func (s *session) run(ctx context.Context) (err error) {
	if len(s.targets) == 0 {
		s.logger.Debug("Worker has no assigned URLs")
		return nil
	}
	s.logger.Info("Worker starting execution", zap.Int("assigned_urls", len(s.targets)))

	start := s.clock.Now()
	browser, err := s.launcher.Start(ctx, s.launchConfig())
	if err != nil {
		return fmt.Errorf("worker %d: start browser: %w", s.id, err)
	}
	s.metrics.SessionStarted()
	defer func() {
		if stopErr := browser.Stop(); stopErr != nil {
			s.logger.Warn("Browser stop failed", zap.Error(stopErr))
		}
		s.metrics.SessionStopped()
	}()

	startup := s.clock.Now().Sub(start)
	s.metrics.ObserveSessionStartup(startup)
	s.logger.Info("Browser instance started", zap.Duration("startup_time", startup))
	s.resources.LogResources(fmt.Sprintf("worker %d after browser startup", s.id))

	page, err := s.preparePage(ctx, browser)
	if err != nil {
		return fmt.Errorf("worker %d: %w", s.id, err)
	}

	consentDone := false
	for i, target := range s.targets {
		s.processTarget(ctx, page, target, &consentDone)
		if processed := i + 1; processed%s.cfg.ResourceEvery == 0 {
			s.resources.LogResources(fmt.Sprintf("worker %d after processing %d urls", s.id, processed))
		}
	}

	s.logger.Info("Worker completed execution successfully")
	return nil
}

func (s *session) preparePage(ctx context.Context, browser Browser) (Page, error) {
	page, err := browser.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := page.BlockURLs(ctx, s.cfg.BlockedURLs); err != nil {
		return nil, fmt.Errorf("enable network optimizations: %w", err)
	}
	s.logger.Info("Setting mobile viewport and UA")
	if err := page.Emulate(ctx, s.cfg.Emulation); err != nil {
		return nil, fmt.Errorf("set mobile emulation: %w", err)
	}
	return page, nil
}

func (s *session) processTarget(ctx context.Context, page Page, target string, consentDone *bool) {
	url := EnsureAbout(target)
	logger := s.logger.With(zap.String("url", url))

	if err := page.Navigate(ctx, url); err != nil {
		logger.Warn("Navigation failed", zap.Error(err))
		s.recordFailed()
		return
	}
	if !*consentDone {
		s.consent.Handle(ctx, page)
		*consentDone = true
	}
	s.scrape(ctx, page, url, logger)
}

// scrape extracts, validates, and persists the loaded page, recording
// exactly one outcome.
func (s *session) scrape(ctx context.Context, page Page, url string, logger *zap.Logger) {
	if err := page.Wait(ctx, s.cfg.SettleDelay); err != nil {
		logger.Warn("Settle wait interrupted", zap.Error(err))
		s.recordFailed()
		return
	}
	logger.Debug("DOM ready, skipping full HTML dump")

	start := s.clock.Now()
	title, hasTitle := ExtractTitle(ctx, page, logger)
	logger.Info("Extracting About payload")
	payload, err := ExtractAbout(ctx, page)
	s.resources.LogResources("after about extraction")
	if err != nil {
		if errors.Is(err, ErrAboutNotFound) {
			logger.Warn("About payload not found", zap.Error(err))
		} else {
			logger.Warn("About extraction failed", zap.Error(err))
		}
		s.recordFailed()
		return
	}
	if !IsJSONString(payload) {
		logger.Warn("About payload is not valid JSON", zap.String("payload", payload))
		s.recordFailed()
		return
	}
	elapsed := s.clock.Now().Sub(start)
	s.metrics.ObserveExtraction(elapsed)
	logger.Info("About extraction finished", zap.Duration("elapsed", elapsed))

	record, err := BuildRecord(payload, title, hasTitle)
	if err != nil {
		logger.Warn("About payload rejected", zap.Error(err))
		s.recordFailed()
		return
	}
	name := SafeFilename(url)
	uri, err := s.sink.Save(ctx, name, record)
	if err != nil {
		logger.Error("Saving output failed", zap.String("name", name), zap.Error(err))
		s.recordFailed()
		return
	}
	s.report.RecordSaved()
	s.metrics.ObservePage(OutcomeSaved)
	logger.Info("Saved output", zap.String("uri", uri))
	s.publish(ctx, url, name, uri, logger)
}

func (s *session) publish(ctx context.Context, url, name, uri string, logger *zap.Logger) {
	if s.cfg.Topic == "" || s.publisher == nil {
		return
	}
	payload := map[string]any{
		"url":       url,
		"name":      name,
		"uri":       uri,
		"worker_id": s.id,
		"timestamp": s.clock.Now().Format(time.RFC3339),
	}
	if _, err := s.publisher.Publish(ctx, s.cfg.Topic, payload); err != nil {
		logger.Warn("Publishing saved record failed", zap.Error(err))
	}
}

func (s *session) recordFailed() {
	s.report.RecordFailed()
	s.metrics.ObservePage(OutcomeFailed)
}
