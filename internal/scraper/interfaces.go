package scraper

import (
	"context"
	"time"
)

// LaunchConfig describes how a browser session is started.
type LaunchConfig struct {
	Headless   bool
	ProfileDir string
	Flags      []string
	ExecPath   string
}

// Emulation carries the device identity presented by a page.
type Emulation struct {
	UserAgent         string
	AcceptLanguage    string
	Platform          string
	Width             int64
	Height            int64
	DeviceScaleFactor float64
	Mobile            bool
}

// Launcher starts browser sessions.
type Launcher interface {
	Start(ctx context.Context, cfg LaunchConfig) (Browser, error)
}

// Browser is a running, isolated browser session.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Stop() error
}

// Page is a single tab inside a Browser.
type Page interface {
	BlockURLs(ctx context.Context, patterns []string) error
	Emulate(ctx context.Context, e Emulation) error
	Navigate(ctx context.Context, url string) error
	// Evaluate runs script in the page and returns its JSON-decoded value.
	// A null or undefined result is returned as nil.
	Evaluate(ctx context.Context, script string) (any, error)
	// FindByText looks for an interactive element whose text matches text.
	// It reports false when nothing matched within timeout.
	FindByText(ctx context.Context, text string, timeout time.Duration) (Element, bool, error)
	Wait(ctx context.Context, d time.Duration) error
}

// Element is a handle to a DOM node that can be interacted with.
type Element interface {
	ScrollIntoView(ctx context.Context) error
	Click(ctx context.Context) error
}

// RecordSink persists output records.
type RecordSink interface {
	Save(ctx context.Context, name string, record Record) (string, error)
}

// Publisher announces saved records.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
