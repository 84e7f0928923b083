package scraper

// Category is the closed taxonomy events are classified into. The zero
// value is CategoryUnclassified, used for tiles whose title matched no
// keyword group before the default bucket is applied.
type Category int

// Known categories. Name returns the seeded store name for each.
const (
	CategoryUnclassified Category = iota
	CategoryConcerts
	CategoryTheater
	CategorySports
	CategoryFestivals
	CategoryFilm
	CategoryExhibitions
)

var categoryNames = map[Category]string{
	CategoryUnclassified: "Nezařazeno",
	CategoryConcerts:     "Koncerty",
	CategoryTheater:      "Divadla",
	CategorySports:       "Sport",
	CategoryFestivals:    "Festivaly",
	CategoryFilm:         "Film",
	CategoryExhibitions:  "Výstavy",
}

// Name returns the category's name as seeded in the document store.
func (c Category) Name() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return categoryNames[CategoryUnclassified]
}

func (c Category) String() string { return c.Name() }
