package scraper

import (
	"context"
	"time"
)

// Renderer loads a URL in a headless browser and returns the rendered DOM.
// Ensure is idempotent; Close must be safe to call at any point, including
// before Ensure or after a failed Ensure, and must never panic on a second
// call.
type Renderer interface {
	Ensure(ctx context.Context) error
	Render(ctx context.Context, url string) ([]byte, error)
	Close()
}

// PageFetcher returns the listing page for one city, fully rendered.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (Page, error)
}

// EventWriter persists a batch of scraped events and reports how many were
// actually inserted (duplicates and per-event failures excluded).
type EventWriter interface {
	SaveEvents(ctx context.Context, events []ScrapedEvent) (int, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
