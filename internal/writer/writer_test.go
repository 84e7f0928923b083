package writer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/event-scraper/internal/normalize"
	"github.com/citypulse/event-scraper/internal/scraper"
	"github.com/citypulse/event-scraper/internal/store"
	"github.com/citypulse/event-scraper/internal/store/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2025, time.March, 10, 3, 0, 0, 0, time.UTC)

func seededStore() *memory.Store {
	st := memory.New()
	for _, name := range []string{"Koncerty", "Divadla", "Sport", "Festivaly", "Film", "Výstavy"} {
		st.SeedCategory(name)
	}
	return st
}

func sampleEvent() scraper.ScrapedEvent {
	return scraper.ScrapedEvent{
		Title:       "Rock Tour 2025",
		Description: "Událost z Goout.net - Rock Tour 2025",
		SourceURL:   "https://goout.net/cs/praha/akce/rock-tour",
		ImageURL:    "http://x/img.jpg",
		StartDate:   time.Date(2025, time.May, 30, 20, 0, 0, 0, time.UTC),
		Category:    scraper.CategoryConcerts,
		VenueName:   normalize.UnknownVenue,
		City:        "Praha",
		IsFree:      true,
	}
}

func TestSaveEventsInsertsFullRecord(t *testing.T) {
	t.Parallel()

	st := seededStore()
	w := New(st, fixedClock{now: testNow}, nil)

	saved, err := w.SaveEvents(context.Background(), []scraper.ScrapedEvent{sampleEvent()})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	events := st.Events()
	require.Len(t, events, 1)
	got := events[0]

	assert.Equal(t, "Rock Tour 2025", got.Title)
	assert.Equal(t, store.PlatformScrapedWeb, got.Source.Platform)
	assert.Equal(t, "https://goout.net/cs/praha/akce/rock-tour", got.Source.SourceURL)
	assert.Equal(t, testNow, got.Source.LastSynced)
	assert.Equal(t, "rock-tour-2025-2025-05-30", got.SEO.Slug)
	assert.Equal(t, "Rock Tour 2025", got.SEO.MetaTitle)
	assert.Equal(t, []string{"koncerty"}, got.Tags)
	assert.Equal(t, "Europe/Prague", got.DateTime.Timezone)
	assert.Equal(t, "active", got.Status)
	assert.True(t, got.IsPublished)
	assert.False(t, got.IsFeatured)
	assert.Equal(t, "http://x/img.jpg", got.Media.MainImage)
	assert.Empty(t, got.Media.Gallery)
	assert.Equal(t, "Goout.net", got.Organizer.Name)
	assert.False(t, got.Category.IsZero())
	assert.False(t, got.Location.IsZero())
}

func TestSaveEventsCreatesLocationWithRegion(t *testing.T) {
	t.Parallel()

	st := seededStore()
	w := New(st, fixedClock{now: testNow}, nil)

	event := sampleEvent()
	event.City = "Brno"
	_, err := w.SaveEvents(context.Background(), []scraper.ScrapedEvent{event})
	require.NoError(t, err)

	locations := st.Locations()
	require.Len(t, locations, 1)
	assert.Equal(t, normalize.UnknownVenue, locations[0].Name)
	assert.Equal(t, "Brno", locations[0].City)
	assert.Equal(t, "Jihomoravský kraj", locations[0].Region)
	assert.Equal(t, "Adresa neuvedena", locations[0].Address)
	assert.Equal(t, "Česká republika", locations[0].Country)
	assert.Equal(t, "other", locations[0].Venue.Type)
}

func TestSaveEventsUnknownCityRegionFallback(t *testing.T) {
	t.Parallel()

	st := seededStore()
	w := New(st, fixedClock{now: testNow}, nil)

	event := sampleEvent()
	event.City = "Zlín"
	_, err := w.SaveEvents(context.Background(), []scraper.ScrapedEvent{event})
	require.NoError(t, err)

	locations := st.Locations()
	require.Len(t, locations, 1)
	assert.Equal(t, "Jiný kraj", locations[0].Region)
}

func TestSaveEventsReusesExistingLocation(t *testing.T) {
	t.Parallel()

	st := seededStore()
	w := New(st, fixedClock{now: testNow}, nil)

	first := sampleEvent()
	second := sampleEvent()
	second.Title = "Jazz Quartet Night"

	saved, err := w.SaveEvents(context.Background(), []scraper.ScrapedEvent{first, second})
	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.Len(t, st.Locations(), 1)
}

func TestSaveEventsSkipsDuplicateSlug(t *testing.T) {
	t.Parallel()

	st := seededStore()
	w := New(st, fixedClock{now: testNow}, nil)
	batch := []scraper.ScrapedEvent{sampleEvent()}

	saved, err := w.SaveEvents(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	// Re-running the identical batch inserts nothing.
	saved, err = w.SaveEvents(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 0, saved)

	n, err := st.CountEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSaveEventsDuplicateWithinBatch(t *testing.T) {
	t.Parallel()

	st := seededStore()
	w := New(st, fixedClock{now: testNow}, nil)

	saved, err := w.SaveEvents(context.Background(), []scraper.ScrapedEvent{sampleEvent(), sampleEvent()})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
}

func TestSaveEventsCategoryFallback(t *testing.T) {
	t.Parallel()

	st := memory.New()
	fallback := st.SeedCategory("Výstavy")
	w := New(st, fixedClock{now: testNow}, nil)

	event := sampleEvent() // Koncerty is not seeded here
	saved, err := w.SaveEvents(context.Background(), []scraper.ScrapedEvent{event})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	events := st.Events()
	require.Len(t, events, 1)
	assert.Equal(t, fallback.ID, events[0].Category)
}

func TestSaveEventsMissingDefaultCategory(t *testing.T) {
	t.Parallel()

	st := memory.New() // nothing seeded at all
	w := New(st, fixedClock{now: testNow}, nil)

	saved, err := w.SaveEvents(context.Background(), []scraper.ScrapedEvent{sampleEvent()})
	require.NoError(t, err)
	assert.Equal(t, 0, saved)

	n, err := st.CountEvents(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSaveEventsFreePricingInvariant(t *testing.T) {
	t.Parallel()

	st := seededStore()
	w := New(st, fixedClock{now: testNow}, nil)

	free := sampleEvent()
	free.IsFree = true
	free.Price = 250 // must be ignored for free events

	_, err := w.SaveEvents(context.Background(), []scraper.ScrapedEvent{free})
	require.NoError(t, err)

	events := st.Events()
	require.Len(t, events, 1)
	assert.True(t, events[0].Pricing.IsFree)
	assert.Nil(t, events[0].Pricing.PriceFrom)
	assert.Nil(t, events[0].Pricing.PriceTo)
	assert.Equal(t, "CZK", events[0].Pricing.Currency)
}

func TestSaveEventsPaidPricing(t *testing.T) {
	t.Parallel()

	st := seededStore()
	w := New(st, fixedClock{now: testNow}, nil)

	paid := sampleEvent()
	paid.IsFree = false
	paid.Price = 490

	_, err := w.SaveEvents(context.Background(), []scraper.ScrapedEvent{paid})
	require.NoError(t, err)

	events := st.Events()
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Pricing.PriceFrom)
	assert.Equal(t, 490.0, *events[0].Pricing.PriceFrom)
}

func TestSaveEventsMetaDescriptionTruncated(t *testing.T) {
	t.Parallel()

	st := seededStore()
	w := New(st, fixedClock{now: testNow}, nil)

	event := sampleEvent()
	for len(event.Description) < 400 {
		event.Description += " velmi dlouhý popis události"
	}

	_, err := w.SaveEvents(context.Background(), []scraper.ScrapedEvent{event})
	require.NoError(t, err)

	events := st.Events()
	require.Len(t, events, 1)
	assert.LessOrEqual(t, len([]rune(events[0].SEO.MetaDescription)), 160)
	assert.Equal(t, events[0].ShortDescription, events[0].SEO.MetaDescription)
}
