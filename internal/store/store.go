// Package store defines the document shapes and the collection interface
// the scraper needs from the platform's event database. Categories and
// locations are owned by a separate seeding process; the scraper only
// reads categories, reads-or-creates locations and inserts events.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by lookups with no matching document.
var ErrNotFound = errors.New("document not found")

// ErrDuplicateSlug is returned when an insert collides with an existing
// event slug.
var ErrDuplicateSlug = errors.New("duplicate event slug")

// PlatformScrapedWeb tags events harvested by this scraper, distinguishing
// them from manually entered or API-synced records.
const PlatformScrapedWeb = "scraped_web"

// Category is a pre-seeded taxonomy entry.
type Category struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
	Slug string             `bson:"slug,omitempty"`
}

// Venue carries the venue sub-document of a location.
type Venue struct {
	Type string `bson:"type"`
}

// Location is a venue record, keyed by (name, city).
type Location struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Name    string             `bson:"name"`
	Address string             `bson:"address"`
	City    string             `bson:"city"`
	Region  string             `bson:"region"`
	Country string             `bson:"country"`
	Venue   Venue              `bson:"venue"`
}

// EventDateTime is the denormalized schedule sub-document.
type EventDateTime struct {
	Start      time.Time  `bson:"start"`
	End        *time.Time `bson:"end,omitempty"`
	IsMultiDay bool       `bson:"isMultiDay"`
	Timezone   string     `bson:"timezone"`
}

// EventPricing is the denormalized pricing sub-document. When IsFree is
// true the price fields must be absent.
type EventPricing struct {
	IsFree    bool     `bson:"isFree"`
	Currency  string   `bson:"currency"`
	PriceFrom *float64 `bson:"priceFrom,omitempty"`
	PriceTo   *float64 `bson:"priceTo,omitempty"`
}

// EventMedia is the denormalized media sub-document.
type EventMedia struct {
	MainImage string   `bson:"mainImage,omitempty"`
	Gallery   []string `bson:"gallery"`
}

// EventOrganizer names who runs the event.
type EventOrganizer struct {
	Name string `bson:"name"`
}

// EventSource records which origin produced the record.
type EventSource struct {
	Platform   string    `bson:"platform"`
	SourceURL  string    `bson:"sourceUrl"`
	LastSynced time.Time `bson:"lastSynced"`
}

// EventSEO carries the unique slug and meta fields.
type EventSEO struct {
	Slug            string `bson:"slug"`
	MetaTitle       string `bson:"metaTitle"`
	MetaDescription string `bson:"metaDescription"`
}

// Event is the persistent event record.
type Event struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Title            string             `bson:"title"`
	Description      string             `bson:"description"`
	ShortDescription string             `bson:"shortDescription"`
	Category         primitive.ObjectID `bson:"category"`
	Tags             []string           `bson:"tags"`
	DateTime         EventDateTime      `bson:"dateTime"`
	Location         primitive.ObjectID `bson:"location"`
	Pricing          EventPricing       `bson:"pricing"`
	Media            EventMedia         `bson:"media"`
	Organizer        EventOrganizer     `bson:"organizer"`
	Source           EventSource        `bson:"source"`
	SEO              EventSEO           `bson:"seo"`
	Status           string             `bson:"status"`
	IsPublished      bool               `bson:"isPublished"`
	IsFeatured       bool               `bson:"isFeatured"`
	CreatedAt        time.Time          `bson:"createdAt"`
}

// Store is the document collection interface consumed by the persistence
// writer and the status endpoint.
type Store interface {
	FindCategoryByName(ctx context.Context, name string) (Category, error)
	FindLocationByNameCity(ctx context.Context, name, city string) (Location, error)
	CreateLocation(ctx context.Context, location Location) (Location, error)
	FindEventBySlug(ctx context.Context, slug string) (Event, error)
	InsertEvent(ctx context.Context, event Event) (Event, error)
	CountEvents(ctx context.Context) (int64, error)
	CountEventsByPlatform(ctx context.Context, platform string) (int64, error)
}
