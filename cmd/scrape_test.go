package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/about-harvester/internal/config"
)

func parseScrape(t *testing.T, args ...string) (*scrapeOptions, config.Config) {
	t.Helper()

	opts := &scrapeOptions{}
	cmd := newScrapeCmd(opts)
	require.NoError(t, cmd.ParseFlags(args))

	cfg, err := config.Load("")
	require.NoError(t, err)
	applyFlags(cmd, opts, &cfg)
	return opts, cfg
}

func TestApplyFlagsDefaultsKeepConfig(t *testing.T) {
	t.Parallel()

	_, cfg := parseScrape(t, "-f", "urls.txt")
	assert.Equal(t, 10, cfg.Scraper.Browsers)
	assert.True(t, cfg.Observability.LogResources)
	assert.True(t, cfg.Scraper.Headless)
	assert.Empty(t, cfg.Observability.MetricsAddr)
}

func TestApplyFlagsOverrides(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	opts, cfg := parseScrape(t,
		"--urls-file", "urls.txt",
		"-b", "3",
		"--no-log-resources",
		"--metrics-addr", ":9102",
		"--headless=false",
		"--consent-fallback",
		"-o", out,
	)
	assert.Equal(t, "urls.txt", opts.urlsFile)
	assert.Equal(t, 3, cfg.Scraper.Browsers)
	assert.False(t, cfg.Observability.LogResources)
	assert.Equal(t, ":9102", cfg.Observability.MetricsAddr)
	assert.False(t, cfg.Scraper.Headless)
	assert.True(t, cfg.Consent.FallbackEnabled)
	assert.Equal(t, config.BackendLocal, cfg.Storage.Backend)
	assert.Equal(t, out, cfg.Storage.BaseDir)
}

func TestApplyFlagsLogResourcesFalse(t *testing.T) {
	t.Parallel()

	_, cfg := parseScrape(t, "-f", "urls.txt", "--log-resources=false")
	assert.False(t, cfg.Observability.LogResources)
}

func TestScrapeRequiresURLsFile(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	root.SetArgs([]string{"scrape"})
	root.SetOut(os.Stderr)
	require.Error(t, root.Execute())
}

func TestScrapeRejectsEmptyURLsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	urls := filepath.Join(dir, "urls.txt")
	require.NoError(t, os.WriteFile(urls, []byte("\n  \n"), 0o600))

	root := newRootCmd()
	root.SetArgs([]string{"scrape", "-f", urls, "-o", filepath.Join(dir, "data")})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid URLs")
}

func TestScrapeRejectsInvalidBrowsers(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	root.SetArgs([]string{"scrape", "-f", "urls.txt", "-b", "0"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scraper.browsers")
}
