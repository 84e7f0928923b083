// Package orchestrator drives the crawl pipeline across the configured
// cities: fetch, extract, normalize, persist, with per-city failure
// recovery, an inter-city politeness delay and a guaranteed browser
// teardown on every exit path.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/citypulse/event-scraper/internal/extract"
	"github.com/citypulse/event-scraper/internal/metrics"
	"github.com/citypulse/event-scraper/internal/normalize"
	"github.com/citypulse/event-scraper/internal/scraper"
)

// ErrRunInProgress is returned when a crawl trigger fires while another
// run holds the single browser session.
var ErrRunInProgress = errors.New("crawl run already in progress")

// bodyPreviewLen bounds the markup preview logged when selector discovery
// finds nothing.
const bodyPreviewLen = 200

// SnapshotSink receives page bodies that defeated the selector chain.
type SnapshotSink interface {
	Save(city string, capturedAt time.Time, body []byte) (string, error)
}

// Config holds the crawl parameters shared by both triggers.
type Config struct {
	Cities       []string
	PerCityLimit int
	CityDelay    time.Duration
	// URLFor builds the listing page URL for a city.
	URLFor func(city string) string
}

// Runner owns one crawl pipeline. A Runner executes at most one run at a
// time; concurrent triggers are rejected with ErrRunInProgress rather than
// sharing the browser session.
type Runner struct {
	cfg        Config
	renderer   scraper.Renderer
	fetcher    scraper.PageFetcher
	extractor  *extract.Extractor
	normalizer *normalize.Normalizer
	writer     scraper.EventWriter
	snapshots  SnapshotSink
	clock      scraper.Clock
	logger     *zap.Logger

	sem chan struct{}
}

// New constructs a Runner.
func New(
	cfg Config,
	renderer scraper.Renderer,
	fetcher scraper.PageFetcher,
	extractor *extract.Extractor,
	normalizer *normalize.Normalizer,
	writer scraper.EventWriter,
	snapshots SnapshotSink,
	clock scraper.Clock,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.URLFor == nil {
		cfg.URLFor = func(city string) string { return city }
	}
	sem := make(chan struct{}, 1)
	sem <- struct{}{}
	return &Runner{
		cfg:        cfg,
		renderer:   renderer,
		fetcher:    fetcher,
		extractor:  extractor,
		normalizer: normalizer,
		writer:     writer,
		snapshots:  snapshots,
		clock:      clock,
		logger:     logger,
		sem:        sem,
	}
}

// Run executes one crawl over the given cities. Empty cities or a
// non-positive limit fall back to the configured defaults. Per-city
// failures are recovered and logged; the browser session is closed on
// every exit path, including panics escaping the city loop.
func (r *Runner) Run(ctx context.Context, cities []string, perCityLimit int) (summary scraper.RunSummary, err error) {
	select {
	case <-r.sem:
	default:
		return scraper.RunSummary{}, ErrRunInProgress
	}
	defer func() { r.sem <- struct{}{} }()

	if len(cities) == 0 {
		cities = r.cfg.Cities
	}
	if perCityLimit <= 0 {
		perCityLimit = r.cfg.PerCityLimit
	}

	summary.RunID = uuid.NewString()
	summary.StartedAt = r.clock.Now()
	log := r.logger.With(zap.String("run_id", summary.RunID))

	metrics.SetRunActive(true)
	defer metrics.SetRunActive(false)

	log.Info("crawl run started",
		zap.Strings("cities", cities),
		zap.Int("per_city_limit", perCityLimit))

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("crawl run panicked: %v", rec)
		}
		r.renderer.Close()
		summary.FinishedAt = r.clock.Now()
		status := "succeeded"
		if err != nil {
			status = "failed"
		}
		metrics.ObserveRun(status, summary.FinishedAt.Sub(summary.StartedAt))
		log.Info("crawl run finished",
			zap.Int("total_scraped", summary.TotalScraped),
			zap.Int("total_saved", summary.TotalSaved),
			zap.String("status", status),
			zap.Error(err))
	}()

	if err = r.renderer.Ensure(ctx); err != nil {
		return summary, fmt.Errorf("open browser: %w", err)
	}

	// Burst of one: the first city proceeds immediately, each subsequent
	// city waits out the politeness delay.
	pacer := rate.NewLimiter(rate.Every(r.pause()), 1)

	for _, city := range cities {
		if waitErr := pacer.Wait(ctx); waitErr != nil {
			err = fmt.Errorf("crawl interrupted: %w", waitErr)
			return summary, err
		}

		result := r.crawlCity(ctx, log, city, perCityLimit)
		summary.Cities = append(summary.Cities, result)
		summary.TotalScraped += result.Scraped
		summary.TotalSaved += result.Saved
	}

	return summary, nil
}

func (r *Runner) pause() time.Duration {
	if r.cfg.CityDelay > 0 {
		return r.cfg.CityDelay
	}
	return time.Second
}

// crawlCity runs the fetch-extract-normalize-persist pipeline for one
// city. Every failure is absorbed here; an unreliable city must not stop
// the remaining ones.
func (r *Runner) crawlCity(ctx context.Context, log *zap.Logger, city string, limit int) scraper.CityResult {
	result := scraper.CityResult{City: city}
	url := r.cfg.URLFor(city)
	log.Info("scraping city", zap.String("city", city), zap.String("url", url))

	page, err := r.fetcher.FetchPage(ctx, url)
	if err != nil {
		log.Error("city fetch failed", zap.String("city", city), zap.Error(err))
		result.Err = err
		return result
	}

	extracted, err := r.extractor.Tiles(page.Body, page.URL, limit)
	if err != nil {
		log.Error("city extraction failed", zap.String("city", city), zap.Error(err))
		result.Err = err
		return result
	}

	if extracted.Selector == "" {
		log.Warn("no events found with any selector",
			zap.String("city", city),
			zap.Int("body_bytes", len(page.Body)),
			zap.ByteString("body_preview", preview(page.Body)))
		r.saveSnapshot(log, city, page.Body)
		return result
	}

	log.Info("selector discovered",
		zap.String("city", city),
		zap.String("selector", extracted.Selector),
		zap.Int("matched", extracted.Matched),
		zap.Int("tiles", len(extracted.Tiles)))

	events := make([]scraper.ScrapedEvent, 0, len(extracted.Tiles))
	for _, tile := range extracted.Tiles {
		events = append(events, r.normalizer.Event(tile, city))
	}
	result.Scraped = len(events)
	metrics.ObserveEventsScraped(city, result.Scraped)

	saved, err := r.writer.SaveEvents(ctx, events)
	if err != nil {
		log.Error("city persistence failed", zap.String("city", city), zap.Error(err))
		result.Err = err
		return result
	}
	result.Saved = saved
	metrics.ObserveEventsSaved(city, saved)

	log.Info("city finished",
		zap.String("city", city),
		zap.Int("scraped", result.Scraped),
		zap.Int("saved", result.Saved))
	return result
}

func (r *Runner) saveSnapshot(log *zap.Logger, city string, body []byte) {
	if r.snapshots == nil {
		return
	}
	path, err := r.snapshots.Save(city, r.clock.Now(), body)
	if err != nil {
		log.Warn("snapshot write failed", zap.String("city", city), zap.Error(err))
		return
	}
	log.Info("snapshot written", zap.String("city", city), zap.String("path", path))
}

func preview(body []byte) []byte {
	if len(body) <= bodyPreviewLen {
		return body
	}
	return body[:bodyPreviewLen]
}
