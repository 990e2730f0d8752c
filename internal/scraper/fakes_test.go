package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// fakePage answers scripts from a fixed table and never sleeps.
type fakePage struct {
	mu        sync.Mutex
	title     any
	html      any
	htmlErr   error
	consent   any
	navErr    map[string]error
	findable  map[string]bool
	navigated []string
	evaluated []string
	waits     []time.Duration
	clicks    int
	blocked   []string
	emulation Emulation
	blockErr  error
}

func (p *fakePage) BlockURLs(_ context.Context, patterns []string) error {
	p.blocked = patterns
	return p.blockErr
}

func (p *fakePage) Emulate(_ context.Context, e Emulation) error {
	p.emulation = e
	return nil
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = append(p.navigated, url)
	if err := p.navErr[url]; err != nil {
		return err
	}
	return nil
}

func (p *fakePage) Evaluate(_ context.Context, script string) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evaluated = append(p.evaluated, script)
	switch {
	case script == titleScript:
		return p.title, nil
	case script == documentHTMLScript:
		return p.html, p.htmlErr
	case strings.Contains(script, "aria-label"):
		return p.consent, nil
	default:
		return nil, fmt.Errorf("unexpected script %q", script)
	}
}

func (p *fakePage) FindByText(_ context.Context, text string, _ time.Duration) (Element, bool, error) {
	if p.findable[text] {
		return &fakeElement{page: p}, true, nil
	}
	return nil, false, nil
}

func (p *fakePage) Wait(ctx context.Context, d time.Duration) error {
	p.mu.Lock()
	p.waits = append(p.waits, d)
	p.mu.Unlock()
	return ctx.Err()
}

func (p *fakePage) consentEvaluations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.evaluated {
		if strings.Contains(s, "aria-label") {
			n++
		}
	}
	return n
}

type fakeElement struct {
	page     *fakePage
	scrolled bool
}

func (e *fakeElement) ScrollIntoView(context.Context) error {
	e.scrolled = true
	return nil
}

func (e *fakeElement) Click(context.Context) error {
	e.page.clicks++
	return nil
}

type fakeBrowser struct {
	page    *fakePage
	pageErr error
	stopped bool
}

func (b *fakeBrowser) NewPage(context.Context) (Page, error) {
	if b.pageErr != nil {
		return nil, b.pageErr
	}
	return b.page, nil
}

func (b *fakeBrowser) Stop() error {
	b.stopped = true
	return nil
}

// fakeLauncher hands out one browser per Start call, keyed by profile dir.
type fakeLauncher struct {
	mu       sync.Mutex
	newPage  func() *fakePage
	failFor  map[string]error
	pageErr  error
	browsers map[string]*fakeBrowser
}

func (l *fakeLauncher) Start(_ context.Context, cfg LaunchConfig) (Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.failFor[cfg.ProfileDir]; err != nil {
		return nil, err
	}
	if l.browsers == nil {
		l.browsers = make(map[string]*fakeBrowser)
	}
	b := &fakeBrowser{page: l.newPage(), pageErr: l.pageErr}
	l.browsers[cfg.ProfileDir] = b
	return b, nil
}

func (l *fakeLauncher) started() []*fakeBrowser {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*fakeBrowser, 0, len(l.browsers))
	for _, b := range l.browsers {
		out = append(out, b)
	}
	return out
}

type memorySink struct {
	mu      sync.Mutex
	records map[string]Record
	err     error
}

func (s *memorySink) Save(_ context.Context, name string, record Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if s.records == nil {
		s.records = make(map[string]Record)
	}
	s.records[name] = record
	return "memory://" + name + ".json", nil
}

func (s *memorySink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads []any
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return fmt.Sprintf("msg-%d", len(p.payloads)), nil
}

type countingResources struct {
	mu     sync.Mutex
	labels []string
}

func (r *countingResources) LogResources(label string) {
	r.mu.Lock()
	r.labels = append(r.labels, label)
	r.mu.Unlock()
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var errBoom = errors.New("boom")

const aboutHTML = `<html><head><title>ignored</title></head><body>
<script type="application/json">{"other":true}</script>
<script type="application/json">{"require":[["x",{"about_app_sections":{"nodes":[
 {"activeCollections":{"nodes":[{"style_renderer":{"profile_field_sections":[
  {"profile_fields":{"nodes":[
   {"field_type":"address","title":{"text":"Via Roma 1"},"map_pin_coordinates":{"latitude":45.1,"longitude":9.2}},
   {"field_type":"phone","title":{"text":"+39 02 1234"}}
  ]}}
 ]}}]}}
]}}]]}</script>
</body></html>`

func aboutPage() *fakePage {
	return &fakePage{title: "  Bar Roma  ", html: aboutHTML}
}
