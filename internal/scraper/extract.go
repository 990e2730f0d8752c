package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	titleScript        = `document.title`
	documentHTMLScript = `document.documentElement ? document.documentElement.outerHTML : ""`
	jsonScriptSelector = `script[type="application/json"]`
)

// ExtractTitle reads the document title. A blank title, a non-string result,
// or an evaluation error all report false.
func ExtractTitle(ctx context.Context, page Page, logger *zap.Logger) (string, bool) {
	v, err := page.Evaluate(ctx, titleScript)
	if err != nil {
		logger.Warn("Unable to extract <title>", zap.Error(err))
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// ExtractAbout locates the about sections inside the page's embedded JSON
// blobs and returns the flattened field mapping as a JSON string.
func ExtractAbout(ctx context.Context, page Page) (string, error) {
	v, err := page.Evaluate(ctx, documentHTMLScript)
	if err != nil {
		return "", fmt.Errorf("evaluate document html: %w", err)
	}
	html, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected document html string, got %T", ErrUnexpectedResult, v)
	}
	blobs, err := aboutCandidates(html)
	if err != nil {
		return "", err
	}
	about, ok := firstAboutSections(blobs)
	if !ok {
		return "", ErrAboutNotFound
	}
	data, err := json.Marshal(flattenAbout(about))
	if err != nil {
		return "", fmt.Errorf("marshal about fields: %w", err)
	}
	return string(data), nil
}

// aboutCandidates returns the text of every JSON script block that mentions
// the about marker, in document order.
func aboutCandidates(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document html: %w", err)
	}
	var blobs []string
	doc.Find(jsonScriptSelector).Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if strings.Contains(text, aboutMarker) {
			blobs = append(blobs, text)
		}
	})
	return blobs, nil
}

// BuildRecord decodes a validated payload and injects the display name. A
// missing title is stored as null.
func BuildRecord(payload string, title string, hasTitle bool) (Record, error) {
	v, err := parseOrdered(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	var record Record
	switch t := v.(type) {
	case object:
		record = Record(t)
	case nil:
		record = Record{}
	default:
		return nil, fmt.Errorf("%w: payload is %T, want object", ErrUnexpectedResult, v)
	}
	if hasTitle {
		return record.Set(DisplayNameKey, title), nil
	}
	return record.Set(DisplayNameKey, nil), nil
}
