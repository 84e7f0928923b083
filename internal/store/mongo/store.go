// Package mongo implements store.Store against a MongoDB database.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/citypulse/event-scraper/internal/store"
)

const (
	eventsCollection     = "events"
	categoriesCollection = "categories"
	locationsCollection  = "locations"
)

// Config controls the MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Store is the MongoDB-backed document store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB, verifies connectivity and ensures the slug
// uniqueness index the deduplication logic relies on.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo database is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(dialCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{client: client, db: client.Database(cfg.Database)}
	if err := s.ensureIndexes(dialCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(eventsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "seo.slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("ensure slug index: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

// FindCategoryByName looks a category up by exact name.
func (s *Store) FindCategoryByName(ctx context.Context, name string) (store.Category, error) {
	var category store.Category
	err := s.db.Collection(categoriesCollection).
		FindOne(ctx, bson.M{"name": name}).
		Decode(&category)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.Category{}, store.ErrNotFound
		}
		return store.Category{}, fmt.Errorf("find category %q: %w", name, err)
	}
	return category, nil
}

// FindLocationByNameCity looks a location up by its (name, city) key.
func (s *Store) FindLocationByNameCity(ctx context.Context, name, city string) (store.Location, error) {
	var location store.Location
	err := s.db.Collection(locationsCollection).
		FindOne(ctx, bson.M{"name": name, "city": city}).
		Decode(&location)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.Location{}, store.ErrNotFound
		}
		return store.Location{}, fmt.Errorf("find location %q/%q: %w", name, city, err)
	}
	return location, nil
}

// CreateLocation inserts a new location and returns it with its id set.
func (s *Store) CreateLocation(ctx context.Context, location store.Location) (store.Location, error) {
	res, err := s.db.Collection(locationsCollection).InsertOne(ctx, location)
	if err != nil {
		return store.Location{}, fmt.Errorf("create location %q: %w", location.Name, err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		location.ID = id
	}
	return location, nil
}

// FindEventBySlug looks an event up by its unique slug.
func (s *Store) FindEventBySlug(ctx context.Context, slug string) (store.Event, error) {
	var event store.Event
	err := s.db.Collection(eventsCollection).
		FindOne(ctx, bson.M{"seo.slug": slug}).
		Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.Event{}, store.ErrNotFound
		}
		return store.Event{}, fmt.Errorf("find event %q: %w", slug, err)
	}
	return event, nil
}

// InsertEvent inserts a new event record. A slug collision surfaces as
// store.ErrDuplicateSlug thanks to the unique index.
func (s *Store) InsertEvent(ctx context.Context, event store.Event) (store.Event, error) {
	res, err := s.db.Collection(eventsCollection).InsertOne(ctx, event)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.Event{}, store.ErrDuplicateSlug
		}
		return store.Event{}, fmt.Errorf("insert event %q: %w", event.SEO.Slug, err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		event.ID = id
	}
	return event, nil
}

// CountEvents returns the total number of event documents.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	n, err := s.db.Collection(eventsCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// CountEventsByPlatform counts events by their source platform tag.
func (s *Store) CountEventsByPlatform(ctx context.Context, platform string) (int64, error) {
	n, err := s.db.Collection(eventsCollection).CountDocuments(ctx, bson.M{"source.platform": platform})
	if err != nil {
		return 0, fmt.Errorf("count events by platform: %w", err)
	}
	return n, nil
}
