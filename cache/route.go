package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/theoremus-urban-solutions/location-hub/codec"
	"github.com/theoremus-urban-solutions/location-hub/geo"
	"github.com/theoremus-urban-solutions/location-hub/store"
)

// RouteCache persists at most one route destination
type RouteCache struct {
	store store.Store
	codec codec.Codec

	mu  sync.Mutex
	pin *geo.Position
}

// NewRouteCache creates a RouteCache. A nil codec means JSON.
func NewRouteCache(s store.Store, c codec.Codec) *RouteCache {
	if c == nil {
		c = codec.JSON
	}
	return &RouteCache{store: s, codec: c}
}

// SaveRoute overwrites any existing destination
func (r *RouteCache) SaveRoute(ctx context.Context, destination geo.Position) error {
	if !destination.Valid() {
		return fmt.Errorf("invalid destination %s", destination)
	}
	data, err := r.codec.Marshal(destination)
	if err != nil {
		return fmt.Errorf("encode route: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Put(ctx, KeyRoute, data); err != nil {
		return fmt.Errorf("save route: %w", err)
	}
	d := destination
	r.pin = &d
	return nil
}

// Route returns the saved destination. Absent or unreadable data is
// reported as no route.
func (r *RouteCache) Route(ctx context.Context) (geo.Position, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.store.Get(ctx, KeyRoute)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("route cache read failed, treating as miss: %v", err)
		}
		return geo.Position{}, false
	}
	var p geo.Position
	if err := r.codec.Unmarshal(data, &p); err != nil || !p.Valid() {
		log.Printf("route cache holds unreadable data, treating as miss")
		return geo.Position{}, false
	}
	r.pin = &p
	return p, true
}

// Pin returns the in-memory destination handle held since the last save or
// successful read. It does not touch the store.
func (r *RouteCache) Pin() (geo.Position, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pin == nil {
		return geo.Position{}, false
	}
	return *r.pin, true
}

// ClearRoute removes the persisted destination and releases the pin
func (r *RouteCache) ClearRoute(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pin = nil
	if err := r.store.Delete(ctx, KeyRoute); err != nil {
		return fmt.Errorf("clear route: %w", err)
	}
	return nil
}
