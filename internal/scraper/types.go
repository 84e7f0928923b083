package scraper

import "time"

// RawTile is one repeating DOM fragment on a listing page representing a
// single candidate event. Fields carry whatever text the markup exposed;
// nothing here is validated beyond the title/link presence check done by
// the extractor.
type RawTile struct {
	Title    string
	Link     string
	ImageURL string
	DateText string
}

// ScrapedEvent is the normalized form of one tile, ready for persistence.
// It is constructed once by the normalizer and never mutated afterwards.
type ScrapedEvent struct {
	Title        string
	Description  string
	SourceURL    string
	ImageURL     string
	StartDate    time.Time
	Category     Category
	VenueName    string
	VenueAddress string
	City         string
	Price        float64
	IsFree       bool
}

// CityResult holds the per-city tallies reported by a crawl run.
type CityResult struct {
	City    string
	Scraped int
	Saved   int
	Err     error
}

// RunSummary is the aggregate result of one crawl run.
type RunSummary struct {
	RunID        string       `json:"run_id"`
	TotalScraped int          `json:"total_scraped"`
	TotalSaved   int          `json:"total_saved"`
	Cities       []CityResult `json:"-"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   time.Time    `json:"finished_at"`
}

// Page is the rendered content of one city listing page.
type Page struct {
	URL  string
	Body []byte
	// Rendered reports whether a headless browser produced the body.
	Rendered bool
}
