package scraper

import (
	"errors"
	"time"
)

// DisplayNameKey is the output key carrying the page title.
const DisplayNameKey = "display_name"

// Sentinel errors returned by the pipeline.
var (
	// ErrNoTargets is returned when there is nothing to scrape.
	ErrNoTargets = errors.New("no valid URLs found")
	// ErrInvalidWorkers is returned when the worker count is below one.
	ErrInvalidWorkers = errors.New("worker count must be >= 1")
	// ErrAboutNotFound means no embedded JSON blob exposed the about sections.
	ErrAboutNotFound = errors.New("about_app_sections not found")
	// ErrUnexpectedResult means a page script returned a value of the wrong type.
	ErrUnexpectedResult = errors.New("unexpected script result")
)

// Summary is a point-in-time read of the run counters.
type Summary struct {
	Saved  int `json:"saved"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// Outcome labels reported to metrics.
const (
	OutcomeSaved  = "saved"
	OutcomeFailed = "failed"
)

// Config holds the settings for a scrape run. It is decoupled from Viper so
// the pipeline can be built and tested without the CLI.
type Config struct {
	Workers         int
	Headless        bool
	ProfileDir      string
	ExecPath        string
	LaunchFlags     []string
	BlockedURLs     []string
	Emulation       Emulation
	SettleDelay     time.Duration
	ConsentFallback bool
	ResourceEvery   int
	Topic           string
}

// DefaultLaunchFlags reduce background work so many browsers can share a host.
var DefaultLaunchFlags = []string{
	"disable-background-networking",
	"disable-background-timer-throttling",
	"disable-backgrounding-occluded-windows",
	"disable-renderer-backgrounding",
	"disable-sync",
	"disable-extensions",
}

// DefaultBlockedURLs are heavy resources never needed for extraction.
var DefaultBlockedURLs = []string{
	"*.jpg",
	"*.png",
	"*.webp",
	"*.mp4",
	"*.avi",
	"*.woff",
	"*.woff2",
	"https://static.xx.fbcdn.net/*",
}

// DefaultEmulation presents the session as a portrait tablet-sized mobile client.
var DefaultEmulation = Emulation{
	UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.5 Safari/605.1.15",
	AcceptLanguage:    "it-IT,it;q=0.9",
	Platform:          "MacIntel",
	Width:             1024,
	Height:            1366,
	DeviceScaleFactor: 2,
	Mobile:            true,
}

// DefaultConfig returns the settings used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Workers:       10,
		Headless:      true,
		ProfileDir:    "./chrome-profile-fb",
		LaunchFlags:   append([]string(nil), DefaultLaunchFlags...),
		BlockedURLs:   append([]string(nil), DefaultBlockedURLs...),
		Emulation:     DefaultEmulation,
		SettleDelay:   4 * time.Second,
		ResourceEvery: 10,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ProfileDir == "" {
		c.ProfileDir = def.ProfileDir
	}
	if c.LaunchFlags == nil {
		c.LaunchFlags = def.LaunchFlags
	}
	if c.BlockedURLs == nil {
		c.BlockedURLs = def.BlockedURLs
	}
	if c.Emulation == (Emulation{}) {
		c.Emulation = def.Emulation
	}
	if c.ResourceEvery <= 0 {
		c.ResourceEvery = def.ResourceEvery
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	return c
}
