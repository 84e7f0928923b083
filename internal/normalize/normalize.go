package normalize

import (
	"strings"
	"time"
	"unicode"

	"github.com/citypulse/event-scraper/internal/scraper"
)

// UnknownVenue is the sentinel used when a tile exposes no venue name.
const UnknownVenue = "Neznámé místo"

// unknownCity is the sentinel for empty city identifiers.
const unknownCity = "Neznámé"

// Normalizer maps raw tiles onto ScrapedEvents.
type Normalizer struct {
	classifier *Classifier
	location   *time.Location
	clock      scraper.Clock
}

// New builds a Normalizer. A nil location falls back to UTC; the service
// wires in the SiteLocation result so parsed times pin to the site's zone.
func New(classifier *Classifier, loc *time.Location, clock scraper.Clock) *Normalizer {
	if classifier == nil {
		classifier = NewClassifier()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{classifier: classifier, location: loc, clock: clock}
}

// Event converts one raw tile plus its target city into a ScrapedEvent.
// All conversions are total: missing or malformed fields resolve to
// documented defaults instead of errors.
func (n *Normalizer) Event(tile scraper.RawTile, city string) scraper.ScrapedEvent {
	title := strings.TrimSpace(tile.Title)
	return scraper.ScrapedEvent{
		Title:       title,
		Description: "Událost z Goout.net - " + title,
		SourceURL:   tile.Link,
		ImageURL:    tile.ImageURL,
		StartDate:   ParseDate(tile.DateText, n.clock.Now(), n.location),
		Category:    n.classifier.Classify(title),
		VenueName:   UnknownVenue,
		City:        CanonicalCity(city),
		IsFree:      true,
	}
}

// CanonicalCity capitalizes the first letter of a city identifier. Empty
// input maps to the unknown sentinel.
func CanonicalCity(city string) string {
	city = strings.TrimSpace(city)
	if city == "" {
		return unknownCity
	}
	r := []rune(city)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
