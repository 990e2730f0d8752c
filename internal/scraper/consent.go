package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ConsentLabels are the consent controls we dismiss, in priority order:
// rejecting optional cookies is preferred over accepting essential ones.
var ConsentLabels = []string{
	"Rifiuta cookie facoltativi",
	"Consenti solo i cookie essenziali",
}

const (
	fastClickPause   = 500 * time.Millisecond
	scrollPause      = 300 * time.Millisecond
	postClickPause   = time.Second
	labelFindTimeout = 3 * time.Second
	bannerTimeout    = 15 * time.Second
	bannerText       = "cookie"
)

// ConsentHandler dismisses cookie interstitials. The fast path clicks a
// matching aria-label from inside the page; the slow path searches visible
// text through the browser and is only used when enabled.
type ConsentHandler struct {
	labels        []string
	fallback      bool
	findTimeout   time.Duration
	bannerTimeout time.Duration
	logger        *zap.Logger
}

// NewConsentHandler builds a handler for labels. Nil labels use ConsentLabels.
func NewConsentHandler(labels []string, fallback bool, logger *zap.Logger) *ConsentHandler {
	if len(labels) == 0 {
		labels = ConsentLabels
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsentHandler{
		labels:        append([]string(nil), labels...),
		fallback:      fallback,
		findTimeout:   labelFindTimeout,
		bannerTimeout: bannerTimeout,
		logger:        logger,
	}
}

// Handle runs the fast path and, if enabled and nothing was clicked, the
// slow path. It returns the clicked label.
func (h *ConsentHandler) Handle(ctx context.Context, page Page) (string, bool) {
	if label, ok := h.FastPath(ctx, page); ok {
		return label, true
	}
	if !h.fallback {
		return "", false
	}
	return h.SlowPath(ctx, page)
}

// FastPath clicks the first element whose aria-label matches a label.
func (h *ConsentHandler) FastPath(ctx context.Context, page Page) (string, bool) {
	h.logger.Info("Trying fast cookie accept")
	v, err := page.Evaluate(ctx, fastConsentScript(h.labels))
	if err != nil {
		h.logger.Info("Fast cookie script failed", zap.Error(err))
		return "", false
	}
	label, ok := v.(string)
	if !ok || label == "" {
		h.logger.Info("No cookie banner detected (fast path)")
		return "", false
	}
	h.logger.Info("Cookie clicked via JS", zap.String("label", label))
	if err := page.Wait(ctx, fastClickPause); err != nil {
		h.logger.Debug("post-click wait interrupted", zap.Error(err))
	}
	return label, true
}

// SlowPath waits for a generic cookie element and then looks for the labels
// by visible text, clicking the first one found.
func (h *ConsentHandler) SlowPath(ctx context.Context, page Page) (string, bool) {
	if _, ok := h.WaitBanner(ctx, page); !ok {
		return "", false
	}
	el, label, ok := h.FindButton(ctx, page)
	if !ok {
		h.logger.Info("Cookie button not found")
		return "", false
	}
	if err := ClickElement(ctx, page, el); err != nil {
		h.logger.Warn("Cookie button click failed", zap.String("label", label), zap.Error(err))
		return "", false
	}
	h.logger.Info("Cookie clicked via text search", zap.String("label", label))
	return label, true
}

// WaitBanner looks for any element mentioning cookies within the banner timeout.
func (h *ConsentHandler) WaitBanner(ctx context.Context, page Page) (Element, bool) {
	el, ok, err := page.FindByText(ctx, bannerText, h.bannerTimeout)
	if err != nil || !ok {
		h.logger.Info("Cookie banner not found", zap.Error(err))
		return nil, false
	}
	h.logger.Info("Cookie banner found")
	return el, true
}

// FindButton searches each label in priority order.
func (h *ConsentHandler) FindButton(ctx context.Context, page Page) (Element, string, bool) {
	for _, label := range h.labels {
		el, ok, err := page.FindByText(ctx, label, h.findTimeout)
		if err != nil {
			h.logger.Debug("cookie label search failed", zap.String("label", label), zap.Error(err))
			continue
		}
		if ok {
			return el, label, true
		}
	}
	return nil, "", false
}

// ClickElement scrolls el into view and clicks it, pausing around the click
// so layout shifts settle.
func ClickElement(ctx context.Context, page Page, el Element) error {
	if err := el.ScrollIntoView(ctx); err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}
	if err := page.Wait(ctx, scrollPause); err != nil {
		return err
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return page.Wait(ctx, postClickPause)
}

func fastConsentScript(labels []string) string {
	encoded, err := json.Marshal(labels)
	if err != nil {
		encoded = []byte("[]")
	}
	return fmt.Sprintf(`(() => {
  const labels = %s;
  for (const label of labels) {
    const btn = document.querySelector('[aria-label="' + CSS.escape(label) + '"]');
    if (btn) {
      btn.click();
      return label;
    }
  }
  return null;
})()`, encoded)
}
