package normalize

import (
	"strings"

	"github.com/citypulse/event-scraper/internal/scraper"
)

// keywordGroup binds one category to the title substrings that select it.
type keywordGroup struct {
	category scraper.Category
	keywords []string
}

// Classifier infers a category from an event title by ordered,
// case-insensitive substring matching. The first matching group wins;
// titles matching nothing land in the default bucket.
type Classifier struct {
	groups   []keywordGroup
	fallback scraper.Category
}

// NewClassifier builds a Classifier with the stock keyword table. The
// ordering mirrors the source site's dominant content: concert listings
// are by far the most keyword-rich, exhibitions act as the catch-all.
func NewClassifier() *Classifier {
	return &Classifier{
		groups: []keywordGroup{
			{scraper.CategoryConcerts, []string{
				"tour", "koncert", "show", "harlej", "floyd", "rybičky",
				"dyk", "quartet", "invasion", "hudba", "music",
			}},
			{scraper.CategoryTheater, []string{"divadl", "theatre", "prohlíd"}},
			{scraper.CategorySports, []string{"sport", "hokej", "fotbal"}},
			{scraper.CategoryFestivals, []string{"festival"}},
			{scraper.CategoryFilm, []string{"film", "kino"}},
			{scraper.CategoryExhibitions, []string{"výstav", "exhibition", "expozice", "museum"}},
		},
		fallback: scraper.CategoryExhibitions,
	}
}

// NewClassifierWithGroups builds a Classifier from an injected table,
// keeping the mapping testable and extendable without touching control flow.
func NewClassifierWithGroups(fallback scraper.Category, groups map[scraper.Category][]string, order []scraper.Category) *Classifier {
	c := &Classifier{fallback: fallback}
	for _, cat := range order {
		if kws, ok := groups[cat]; ok {
			c.groups = append(c.groups, keywordGroup{category: cat, keywords: kws})
		}
	}
	return c
}

// Classify maps a title onto the taxonomy. This is a heuristic, not a
// guarantee; ambiguous titles are accepted into the default bucket rather
// than rejected.
func (c *Classifier) Classify(title string) scraper.Category {
	lower := strings.ToLower(title)
	for _, group := range c.groups {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.category
			}
		}
	}
	return c.fallback
}
