// Package memory implements store.Store with in-process maps, for tests
// and local development without a MongoDB instance.
package memory

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/citypulse/event-scraper/internal/store"
)

type locationKey struct {
	name string
	city string
}

// Store is an in-memory document store.
type Store struct {
	mu         sync.RWMutex
	categories map[string]store.Category
	locations  map[locationKey]store.Location
	events     map[string]store.Event
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		categories: make(map[string]store.Category),
		locations:  make(map[locationKey]store.Location),
		events:     make(map[string]store.Event),
	}
}

// SeedCategory registers a category, mirroring the external seeding
// process the scraper depends on.
func (s *Store) SeedCategory(name string) store.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	category := store.Category{ID: primitive.NewObjectID(), Name: name}
	s.categories[name] = category
	return category
}

// FindCategoryByName looks a category up by exact name.
func (s *Store) FindCategoryByName(_ context.Context, name string) (store.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	category, ok := s.categories[name]
	if !ok {
		return store.Category{}, store.ErrNotFound
	}
	return category, nil
}

// FindLocationByNameCity looks a location up by its (name, city) key.
func (s *Store) FindLocationByNameCity(_ context.Context, name, city string) (store.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	location, ok := s.locations[locationKey{name: name, city: city}]
	if !ok {
		return store.Location{}, store.ErrNotFound
	}
	return location, nil
}

// CreateLocation inserts a new location.
func (s *Store) CreateLocation(_ context.Context, location store.Location) (store.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	location.ID = primitive.NewObjectID()
	s.locations[locationKey{name: location.Name, city: location.City}] = location
	return location, nil
}

// FindEventBySlug looks an event up by slug.
func (s *Store) FindEventBySlug(_ context.Context, slug string) (store.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.events[slug]
	if !ok {
		return store.Event{}, store.ErrNotFound
	}
	return event, nil
}

// InsertEvent inserts a new event, enforcing slug uniqueness like the
// MongoDB unique index does.
func (s *Store) InsertEvent(_ context.Context, event store.Event) (store.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[event.SEO.Slug]; exists {
		return store.Event{}, store.ErrDuplicateSlug
	}
	event.ID = primitive.NewObjectID()
	s.events[event.SEO.Slug] = event
	return event, nil
}

// CountEvents returns the number of stored events.
func (s *Store) CountEvents(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.events)), nil
}

// CountEventsByPlatform counts events by source platform tag.
func (s *Store) CountEventsByPlatform(_ context.Context, platform string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, event := range s.events {
		if event.Source.Platform == platform {
			n++
		}
	}
	return n, nil
}

// Events returns a snapshot of all stored events, for assertions in tests.
func (s *Store) Events() []store.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]store.Event, 0, len(s.events))
	for _, event := range s.events {
		events = append(events, event)
	}
	return events
}

// Locations returns a snapshot of all stored locations.
func (s *Store) Locations() []store.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	locations := make([]store.Location, 0, len(s.locations))
	for _, location := range s.locations {
		locations = append(locations, location)
	}
	return locations
}
