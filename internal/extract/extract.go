// Package extract discovers the repeating event-tile pattern in listing
// page markup and pulls raw fields out of each tile. It operates on plain
// HTML, independent of any browser, so the logic is unit-testable against
// fixtures.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/citypulse/event-scraper/internal/scraper"
)

// DefaultSelectors is the ordered candidate list for the event-tile
// pattern, most specific first. The target site's markup is not
// contractually stable; a single hardcoded selector would silently degrade
// to zero results, so the chain trades precision for resilience. The last
// entry is the generic "any anchor into the events path" catch-all.
var DefaultSelectors = []string{
	".event-card",
	".event",
	"[data-event]",
	"article",
	".card",
	`a[href*="/akce/"]`,
}

// titleSelector finds the heading-like element inside a tile.
const titleSelector = `h1, h2, h3, h4, .title, [class*="title"]`

// dateSelector finds elements that usually carry the tile's date text.
const dateSelector = `time, .date, [class*="date"]`

// titleFallbackLen bounds the title derived from a tile's own text when no
// heading element exists.
const titleFallbackLen = 100

var dateTextPattern = regexp.MustCompile(`\d{1,2}\.?\s*\p{L}+`)

// Result is the outcome of extracting one listing page.
type Result struct {
	// Selector is the first chain entry that matched, empty when none did.
	Selector string
	// Matched is how many elements the winning selector found before the
	// per-page cap and per-tile validation were applied.
	Matched int
	Tiles   []scraper.RawTile
}

// Extractor pulls raw tiles out of listing page HTML.
type Extractor struct {
	selectors []string
}

// New builds an Extractor. A nil selector list uses DefaultSelectors.
func New(selectors []string) *Extractor {
	if len(selectors) == 0 {
		selectors = DefaultSelectors
	}
	return &Extractor{selectors: selectors}
}

// Tiles extracts up to limit raw tiles from the page body, in DOM order.
// The first selector yielding at least one match is used for the entire
// page. A page where no selector matches produces an empty Result with no
// error; that outcome is reported through Result.Selector being empty.
func (e *Extractor) Tiles(body []byte, pageURL string, limit int) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("parse page: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return Result{}, fmt.Errorf("parse page url: %w", err)
	}

	var selection *goquery.Selection
	result := Result{}
	for _, sel := range e.selectors {
		found := doc.Find(sel)
		if found.Length() > 0 {
			selection = found
			result.Selector = sel
			result.Matched = found.Length()
			break
		}
	}
	if selection == nil {
		return result, nil
	}

	selection.EachWithBreak(func(_ int, tile *goquery.Selection) bool {
		if limit > 0 && len(result.Tiles) >= limit {
			return false
		}
		if raw, ok := Tile(tile, base); ok {
			result.Tiles = append(result.Tiles, raw)
		}
		return true
	})
	return result, nil
}

// HasTiles reports whether any selector in the chain matches the body.
// Used to decide whether a plain-HTTP response already carries content or
// needs headless rendering.
func (e *Extractor) HasTiles(body []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	for _, sel := range e.selectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

// Tile extracts one raw tile. Extraction is best-effort and independent
// per tile; a tile with no resolvable title or link is discarded by
// returning ok=false.
func Tile(tile *goquery.Selection, base *url.URL) (scraper.RawTile, bool) {
	title := strings.TrimSpace(tile.Find(titleSelector).First().Text())
	if title == "" {
		title = truncate(strings.TrimSpace(tile.Text()), titleFallbackLen)
	}

	link := tileLink(tile, base)
	if title == "" || link == "" {
		return scraper.RawTile{}, false
	}

	return scraper.RawTile{
		Title:    title,
		Link:     link,
		ImageURL: tileImage(tile),
		DateText: tileDateText(tile),
	}, true
}

func tileLink(tile *goquery.Selection, base *url.URL) string {
	href, ok := tile.Find("a").First().Attr("href")
	if !ok {
		// The tile itself may be the anchor (the generic catch-all selector).
		href, ok = tile.Attr("href")
	}
	if !ok || strings.TrimSpace(href) == "" {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if !resolved.IsAbs() {
		return ""
	}
	return resolved.String()
}

func tileImage(tile *goquery.Selection) string {
	img := tile.Find("img").First()
	if src, ok := img.Attr("src"); ok && strings.TrimSpace(src) != "" {
		return strings.TrimSpace(src)
	}
	// Lazy-loaded images park the real URL in a data attribute.
	if src, ok := img.Attr("data-src"); ok {
		return strings.TrimSpace(src)
	}
	return ""
}

func tileDateText(tile *goquery.Selection) string {
	dateEl := tile.Find(dateSelector).First()
	if dateEl.Length() > 0 {
		if dt, ok := dateEl.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
			return strings.TrimSpace(dt)
		}
		if text := strings.TrimSpace(dateEl.Text()); text != "" {
			return text
		}
	}
	// No dedicated element; scan the tile's own text for a day+month shape.
	return dateTextPattern.FindString(tile.Text())
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
