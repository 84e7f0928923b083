// Package writer persists scraped events: it resolves category and
// location foreign keys, deduplicates by slug and inserts full denormalized
// event records.
package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/citypulse/event-scraper/internal/metrics"
	"github.com/citypulse/event-scraper/internal/normalize"
	"github.com/citypulse/event-scraper/internal/scraper"
	"github.com/citypulse/event-scraper/internal/store"
)

const (
	defaultAddress  = "Adresa neuvedena"
	defaultCountry  = "Česká republika"
	defaultVenue    = "other"
	defaultCurrency = "CZK"
	defaultRegion   = "Jiný kraj"
	organizerName   = "Goout.net"
	statusActive    = "active"
	metaTextLimit   = 160
)

// czechRegions maps canonical city names onto their administrative region.
var czechRegions = map[string]string{
	"Praha":   "Hlavní město Praha",
	"Brno":    "Jihomoravský kraj",
	"Ostrava": "Moravskoslezský kraj",
	"Plzeň":   "Plzeňský kraj",
	"Liberec": "Liberecký kraj",
	"Olomouc": "Olomoucký kraj",
}

// Writer implements scraper.EventWriter on top of a document store.
type Writer struct {
	store   store.Store
	clock   scraper.Clock
	logger  *zap.Logger
	regions map[string]string
}

// New builds a Writer with the stock city-to-region table.
func New(st store.Store, clock scraper.Clock, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{store: st, clock: clock, logger: logger, regions: czechRegions}
}

// SaveEvents persists the batch one event at a time, in order. Events
// whose slug already exists are skipped; any per-event failure is logged
// and the batch continues. The returned count covers actual inserts only.
func (w *Writer) SaveEvents(ctx context.Context, events []scraper.ScrapedEvent) (int, error) {
	saved := 0
	for _, event := range events {
		inserted, err := w.saveOne(ctx, event)
		if err != nil {
			w.logger.Error("save event failed",
				zap.String("title", event.Title), zap.Error(err))
			metrics.ObserveEventSkipped("error")
			continue
		}
		if inserted {
			saved++
		}
	}
	return saved, nil
}

func (w *Writer) saveOne(ctx context.Context, event scraper.ScrapedEvent) (bool, error) {
	category, err := w.resolveCategory(ctx, event.Category)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The default category missing means the store was never
			// seeded; a setup problem, not a per-event failure.
			w.logger.Error("default category missing from store, run db seeding",
				zap.String("category", scraper.CategoryExhibitions.Name()))
			metrics.ObserveEventSkipped("missing_default_category")
			return false, nil
		}
		return false, err
	}

	location, err := w.resolveLocation(ctx, event)
	if err != nil {
		return false, err
	}

	slug := normalize.Slug(event.Title, event.StartDate)
	if _, err := w.store.FindEventBySlug(ctx, slug); err == nil {
		w.logger.Debug("skipping duplicate event",
			zap.String("title", event.Title), zap.String("slug", slug))
		metrics.ObserveEventSkipped("duplicate")
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	doc := w.buildEvent(event, category, location, slug)
	if _, err := w.store.InsertEvent(ctx, doc); err != nil {
		if errors.Is(err, store.ErrDuplicateSlug) {
			// Lost a race against a concurrent insert; same outcome as the
			// lookup-based skip.
			metrics.ObserveEventSkipped("duplicate")
			return false, nil
		}
		return false, fmt.Errorf("insert event: %w", err)
	}

	w.logger.Info("saved event",
		zap.String("title", event.Title),
		zap.String("category", category.Name),
		zap.String("slug", slug))
	return true, nil
}

func (w *Writer) resolveCategory(ctx context.Context, category scraper.Category) (store.Category, error) {
	found, err := w.store.FindCategoryByName(ctx, category.Name())
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Category{}, fmt.Errorf("resolve category: %w", err)
	}

	w.logger.Warn("category not found, falling back to default",
		zap.String("category", category.Name()),
		zap.String("fallback", scraper.CategoryExhibitions.Name()))
	found, err = w.store.FindCategoryByName(ctx, scraper.CategoryExhibitions.Name())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Category{}, err
		}
		return store.Category{}, fmt.Errorf("resolve default category: %w", err)
	}
	return found, nil
}

func (w *Writer) resolveLocation(ctx context.Context, event scraper.ScrapedEvent) (store.Location, error) {
	location, err := w.store.FindLocationByNameCity(ctx, event.VenueName, event.City)
	if err == nil {
		return location, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Location{}, fmt.Errorf("resolve location: %w", err)
	}

	address := event.VenueAddress
	if address == "" {
		address = defaultAddress
	}
	created, err := w.store.CreateLocation(ctx, store.Location{
		Name:    event.VenueName,
		Address: address,
		City:    event.City,
		Region:  w.regionFor(event.City),
		Country: defaultCountry,
		Venue:   store.Venue{Type: defaultVenue},
	})
	if err != nil {
		return store.Location{}, fmt.Errorf("create location: %w", err)
	}
	return created, nil
}

func (w *Writer) regionFor(city string) string {
	if region, ok := w.regions[city]; ok {
		return region
	}
	return defaultRegion
}

func (w *Writer) buildEvent(event scraper.ScrapedEvent, category store.Category, location store.Location, slug string) store.Event {
	now := w.clock.Now()
	short := truncate(event.Description, metaTextLimit)

	pricing := store.EventPricing{IsFree: event.IsFree, Currency: defaultCurrency}
	if !event.IsFree && event.Price > 0 {
		price := event.Price
		pricing.PriceFrom = &price
	}

	return store.Event{
		Title:            event.Title,
		Description:      event.Description,
		ShortDescription: short,
		Category:         category.ID,
		Tags:             []string{strings.ToLower(category.Name)},
		DateTime: store.EventDateTime{
			Start:    event.StartDate,
			Timezone: "Europe/Prague",
		},
		Location: location.ID,
		Pricing:  pricing,
		Media: store.EventMedia{
			MainImage: event.ImageURL,
			Gallery:   []string{},
		},
		Organizer: store.EventOrganizer{Name: organizerName},
		Source: store.EventSource{
			Platform:   store.PlatformScrapedWeb,
			SourceURL:  event.SourceURL,
			LastSynced: now,
		},
		SEO: store.EventSEO{
			Slug:            slug,
			MetaTitle:       event.Title,
			MetaDescription: short,
		},
		Status:      statusActive,
		IsPublished: true,
		IsFeatured:  false,
		CreatedAt:   now,
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
