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

// MarkerCache persists visited positions in insertion order. Markers are
// never reordered or de-duplicated.
type MarkerCache struct {
	store store.Store
	codec codec.Codec

	mu      sync.Mutex
	markers []geo.Position
}

// NewMarkerCache creates a MarkerCache. A nil codec means JSON.
func NewMarkerCache(s store.Store, c codec.Codec) *MarkerCache {
	if c == nil {
		c = codec.JSON
	}
	return &MarkerCache{store: s, codec: c}
}

// load reads the persisted sequence; callers hold mu
func (m *MarkerCache) load(ctx context.Context) []geo.Position {
	data, err := m.store.Get(ctx, KeyMarkers)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("marker cache read failed, treating as miss: %v", err)
		}
		return nil
	}
	var markers []geo.Position
	if err := m.codec.Unmarshal(data, &markers); err != nil {
		log.Printf("marker cache holds unreadable data, treating as miss")
		return nil
	}
	return markers
}

// AppendMarker reads the persisted sequence, appends p and writes the full
// sequence back.
func (m *MarkerCache) AppendMarker(ctx context.Context, p geo.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	markers := append(m.load(ctx), p)
	data, err := m.codec.Marshal(markers)
	if err != nil {
		return fmt.Errorf("encode markers: %w", err)
	}
	if err := m.store.Put(ctx, KeyMarkers, data); err != nil {
		return fmt.Errorf("save markers: %w", err)
	}
	m.markers = markers
	return nil
}

// Markers returns the persisted sequence, or an empty slice if none is saved
func (m *MarkerCache) Markers(ctx context.Context) []geo.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	markers := m.load(ctx)
	m.markers = markers
	out := make([]geo.Position, len(markers))
	copy(out, markers)
	return out
}

// ClearMarkers removes the persisted sequence and resets the in-memory accumulator
func (m *MarkerCache) ClearMarkers(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers = nil
	if err := m.store.Delete(ctx, KeyMarkers); err != nil {
		return fmt.Errorf("clear markers: %w", err)
	}
	return nil
}

// Len returns the number of markers accumulated in memory since the last
// read or write
func (m *MarkerCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.markers)
}
