package normalize

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugMaxLen bounds the title-derived prefix of a slug.
const slugMaxLen = 50

var (
	nonSlugChars    = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	hyphenRuns      = regexp.MustCompile(`-+`)
	diacriticMarker = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slug derives the unique human-readable identifier for an event from its
// title and start date. The title is lowercased, stripped of diacritics by
// canonical decomposition, reduced to [a-z0-9-], truncated, and suffixed
// with the start date so same-named recurring events on different dates
// stay distinct.
func Slug(title string, startDate time.Time) string {
	base := strings.ToLower(strings.TrimSpace(title))
	if stripped, _, err := transform.String(diacriticMarker, base); err == nil {
		base = stripped
	}
	base = nonSlugChars.ReplaceAllString(base, "")
	base = whitespaceRuns.ReplaceAllString(base, "-")
	base = hyphenRuns.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if len(base) > slugMaxLen {
		base = strings.Trim(base[:slugMaxLen], "-")
	}
	return base + "-" + startDate.Format("2006-01-02")
}
