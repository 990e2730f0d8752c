package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/about-harvester/internal/config"
	memorypublisher "github.com/JakeFAU/about-harvester/internal/publisher/memory"
	"github.com/JakeFAU/about-harvester/internal/scraper"
	memorystorage "github.com/JakeFAU/about-harvester/internal/storage/memory"
)

const pageHTML = `<html><body><script type="application/json">
{"about_app_sections":{"nodes":[{"activeCollections":{"nodes":[{"style_renderer":{"profile_field_sections":[
{"profile_fields":{"nodes":[{"field_type":"email","title":{"text":"info@bar.example"}}]}}]}}]}}]}}
</script></body></html>`

type stubPage struct{}

func (stubPage) BlockURLs(context.Context, []string) error        { return nil }
func (stubPage) Emulate(context.Context, scraper.Emulation) error { return nil }
func (stubPage) Navigate(context.Context, string) error           { return nil }
func (stubPage) Wait(context.Context, time.Duration) error        { return nil }

func (stubPage) Evaluate(_ context.Context, script string) (any, error) {
	switch {
	case script == "document.title":
		return "Bar Roma", nil
	case strings.Contains(script, "outerHTML"):
		return pageHTML, nil
	default:
		return nil, nil
	}
}

func (stubPage) FindByText(context.Context, string, time.Duration) (scraper.Element, bool, error) {
	return nil, false, nil
}

type stubBrowser struct{}

func (stubBrowser) NewPage(context.Context) (scraper.Page, error) { return stubPage{}, nil }
func (stubBrowser) Stop() error                                   { return nil }

type stubLauncher struct{}

func (stubLauncher) Start(context.Context, scraper.LaunchConfig) (scraper.Browser, error) {
	return stubBrowser{}, nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Scraper: config.ScraperConfig{
			Browsers:   2,
			Headless:   true,
			ProfileDir: filepath.Join(t.TempDir(), "profile"),
		},
		Observability: config.ObservabilityConfig{MetricsAddr: "127.0.0.1:0"},
		Storage:       config.StorageConfig{Backend: config.BackendMemory},
		PubSub:        config.PubSubConfig{TopicName: "about-saved"},
	}
}

func TestAppRun(t *testing.T) {
	t.Parallel()

	store := memorystorage.NewBlobStore()
	pub := memorypublisher.New()
	a, err := New(context.Background(), testConfig(t), "run-1", zap.NewNop(),
		WithLauncher(stubLauncher{}),
		WithBlobStore(store),
		WithPublisher(pub),
	)
	require.NoError(t, err)
	defer a.Close()

	summary, err := a.Run(context.Background(), []string{
		"https://www.facebook.com/barroma",
		"https://www.facebook.com/pizzeria/",
		"https://www.facebook.com/gelato/about",
	})
	require.NoError(t, err)
	assert.Equal(t, scraper.Summary{Saved: 3, Total: 3}, summary)
	assert.Equal(t, []string{"barroma_about.json", "gelato_about.json", "pizzeria_about.json"}, store.Paths())
	assert.Equal(t, 3, pub.Count("about-saved"))

	body, ok := store.Get("barroma_about.json")
	require.True(t, ok)
	assert.Equal(t, "{\n  \"email\": \"info@bar.example\",\n  \"display_name\": \"Bar Roma\"\n}", string(body))
}

func TestAppDryRunPublisher(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Observability = config.ObservabilityConfig{}
	require.NoError(t, cfg.Validate())

	a, err := New(context.Background(), cfg, "run-4", nil, WithLauncher(stubLauncher{}))
	require.NoError(t, err)
	defer a.Close()

	summary, err := a.Run(context.Background(), []string{
		"https://www.facebook.com/barroma",
		"https://www.facebook.com/pizzeria",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Saved)

	msgs := a.DryRunNotifications()
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.Equal(t, "about-saved", m.Topic)
	}
}

func TestAppNilBlobStore(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), testConfig(t), "run-5", nil,
		WithLauncher(stubLauncher{}),
		WithBlobStore(nil),
	)
	require.ErrorContains(t, err, "blob store is required")
}

func TestAppLocalBackendDefault(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Storage = config.StorageConfig{Backend: config.BackendLocal, BaseDir: filepath.Join(t.TempDir(), "data")}
	cfg.PubSub = config.PubSubConfig{}
	cfg.Observability = config.ObservabilityConfig{}

	a, err := New(context.Background(), cfg, "run-2", nil, WithLauncher(stubLauncher{}))
	require.NoError(t, err)
	defer a.Close()

	summary, err := a.Run(context.Background(), []string{"https://www.facebook.com/barroma"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Saved)
	assert.FileExists(t, filepath.Join(cfg.Storage.BaseDir, "barroma_about.json"))
}

func TestAppRunWithoutTargets(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Observability = config.ObservabilityConfig{}
	a, err := New(context.Background(), cfg, "run-3", nil, WithLauncher(stubLauncher{}))
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Run(context.Background(), nil)
	require.ErrorIs(t, err, scraper.ErrNoTargets)
}
