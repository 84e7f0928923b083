// Package fetch retrieves listing pages, preferring a cheap plain-HTTP
// probe and promoting to the shared headless browser when the probe body
// is a JavaScript shell without event tiles.
package fetch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/citypulse/event-scraper/internal/scraper"
)

// ContentDetector decides whether a probe body already carries tiles.
type ContentDetector interface {
	HasTiles(body []byte) bool
}

// Prober performs the plain-HTTP fetch.
type Prober interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Fetcher implements scraper.PageFetcher with probe-then-promote.
type Fetcher struct {
	prober   Prober
	renderer scraper.Renderer
	detector ContentDetector
	logger   *zap.Logger
}

// New builds a Fetcher. The prober may be nil, in which case every page
// goes straight to the renderer.
func New(prober Prober, renderer scraper.Renderer, detector ContentDetector, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{prober: prober, renderer: renderer, detector: detector, logger: logger}
}

// FetchPage returns the listing page, rendered when necessary. Probe
// failures are not fatal; they just force the headless path. The target
// site is JS-rendered in practice, so promotion is the common case, but a
// server-rendered response short-circuits the browser entirely.
func (f *Fetcher) FetchPage(ctx context.Context, url string) (scraper.Page, error) {
	if f.prober != nil {
		body, err := f.prober.Get(ctx, url)
		switch {
		case err != nil:
			f.logger.Debug("probe fetch failed, promoting to headless",
				zap.String("url", url), zap.Error(err))
		case f.detector != nil && f.detector.HasTiles(body):
			f.logger.Debug("probe body has tiles, skipping headless",
				zap.String("url", url), zap.Int("bytes", len(body)))
			return scraper.Page{URL: url, Body: body}, nil
		default:
			f.logger.Debug("probe body looks like a JS shell",
				zap.String("url", url), zap.Int("bytes", len(body)))
		}
	}

	body, err := f.renderer.Render(ctx, url)
	if err != nil {
		return scraper.Page{}, fmt.Errorf("headless fetch %s: %w", url, err)
	}
	return scraper.Page{URL: url, Body: body, Rendered: true}, nil
}
