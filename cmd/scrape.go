package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/about-harvester/internal/app"
	"github.com/JakeFAU/about-harvester/internal/config"
	"github.com/JakeFAU/about-harvester/internal/id/uuid"
	"github.com/JakeFAU/about-harvester/internal/logging"
	"github.com/JakeFAU/about-harvester/internal/scraper"
)

type scrapeOptions struct {
	configPath      string
	urlsFile        string
	browsers        int
	logResources    bool
	noLogResources  bool
	metricsAddr     string
	headless        bool
	consentFallback bool
	outputDir       string
}

// newScrapeCmd creates the 'scrape' subcommand.
func newScrapeCmd(opts *scrapeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrapes the About page of every URL in the input file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.urlsFile, "urls-file", "f", "", "newline-delimited file of page URLs")
	flags.IntVarP(&opts.browsers, "browsers", "b", 10, "number of parallel browser sessions")
	flags.BoolVar(&opts.logResources, "log-resources", true, "log memory and CPU at checkpoints")
	flags.BoolVar(&opts.noLogResources, "no-log-resources", false, "disable resource checkpoints")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")
	flags.BoolVar(&opts.headless, "headless", true, "run Chrome without a window")
	flags.BoolVar(&opts.consentFallback, "consent-fallback", false, "search consent buttons by text when the fast path finds none")
	flags.StringVarP(&opts.outputDir, "output-dir", "o", "", "directory for JSON records (local storage backend)")
	_ = cmd.MarkFlagRequired("urls-file")
	return cmd
}

func runScrape(cmd *cobra.Command, opts *scrapeOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cmd, opts, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID, err := uuid.NewRunID()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{
		Development: cfg.Logging.Development,
		File:        cfg.Logging.File,
	})
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("run_id", runID))
	defer logger.Sync() //nolint:errcheck // best-effort flush

	targets, err := scraper.ReadTargetsFile(opts.urlsFile)
	if err != nil {
		logger.Error("No valid URLs to scrape", zap.String("urls_file", opts.urlsFile), zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, runID, logger)
	if err != nil {
		return fmt.Errorf("initialize application services: %w", err)
	}
	defer a.Close()

	if _, err := a.Run(ctx, targets); err != nil {
		return fmt.Errorf("scrape: %w", err)
	}
	return nil
}

// applyFlags overrides loaded configuration with flags the user set
// explicitly.
func applyFlags(cmd *cobra.Command, opts *scrapeOptions, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("browsers") {
		cfg.Scraper.Browsers = opts.browsers
	}
	if flags.Changed("log-resources") {
		cfg.Observability.LogResources = opts.logResources
	}
	if flags.Changed("no-log-resources") && opts.noLogResources {
		cfg.Observability.LogResources = false
	}
	if flags.Changed("metrics-addr") {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	if flags.Changed("headless") {
		cfg.Scraper.Headless = opts.headless
	}
	if flags.Changed("consent-fallback") {
		cfg.Consent.FallbackEnabled = opts.consentFallback
	}
	if flags.Changed("output-dir") {
		cfg.Storage.Backend = config.BackendLocal
		cfg.Storage.BaseDir = opts.outputDir
	}
}
