package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/theoremus-urban-solutions/location-hub/codec"
	"github.com/theoremus-urban-solutions/location-hub/geo"
	"github.com/theoremus-urban-solutions/location-hub/store"
)

type failingStore struct{ store.Memory }

func (f *failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func TestRouteSaveGetClear(t *testing.T) {
	for _, c := range []codec.Codec{codec.JSON, codec.CBOR} {
		t.Run(c.Name(), func(t *testing.T) {
			ctx := context.Background()
			rc := NewRouteCache(store.NewMemory(), c)

			if _, ok := rc.Route(ctx); ok {
				t.Fatal("empty cache should have no route")
			}

			p := geo.New(41.1, 29.1)
			if err := rc.SaveRoute(ctx, p); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, ok := rc.Route(ctx)
			if !ok || !got.Equal(p) {
				t.Fatalf("expected %v, got %v ok=%v", p, got, ok)
			}

			if err := rc.ClearRoute(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if _, ok := rc.Route(ctx); ok {
				t.Error("expected no route after clear")
			}
			if _, ok := rc.Pin(); ok {
				t.Error("clear should release the pin")
			}
		})
	}
}

func TestRouteSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	rc := NewRouteCache(store.NewMemory(), nil)
	_ = rc.SaveRoute(ctx, geo.New(1, 1))
	_ = rc.SaveRoute(ctx, geo.New(2, 2))

	got, ok := rc.Route(ctx)
	if !ok || !got.Equal(geo.New(2, 2)) {
		t.Errorf("expected latest destination (2, 2), got %v", got)
	}
	pin, ok := rc.Pin()
	if !ok || !pin.Equal(geo.New(2, 2)) {
		t.Errorf("expected pin (2, 2), got %v", pin)
	}
}

func TestRouteRejectsInvalidDestination(t *testing.T) {
	rc := NewRouteCache(store.NewMemory(), nil)
	if err := rc.SaveRoute(context.Background(), geo.New(200, 0)); err == nil {
		t.Error("expected invalid destination to be rejected")
	}
}

func TestRouteCorruptDataIsMiss(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	_ = s.Put(ctx, KeyRoute, []byte("{not json"))
	rc := NewRouteCache(s, nil)
	if _, ok := rc.Route(ctx); ok {
		t.Error("corrupt data should be treated as no route")
	}
}

func TestRouteStoreErrorIsMiss(t *testing.T) {
	rc := NewRouteCache(&failingStore{}, nil)
	if _, ok := rc.Route(context.Background()); ok {
		t.Error("store errors should be treated as no route")
	}
}

func TestRoutePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	_ = NewRouteCache(s, nil).SaveRoute(ctx, geo.New(41.1, 29.1))

	got, ok := NewRouteCache(s, nil).Route(ctx)
	if !ok || !got.Equal(geo.New(41.1, 29.1)) {
		t.Errorf("expected route to survive restart, got %v ok=%v", got, ok)
	}
}

func TestMarkersAppendInOrder(t *testing.T) {
	ctx := context.Background()
	mc := NewMarkerCache(store.NewMemory(), nil)
	a, b := geo.New(41.0, 29.0), geo.New(41.1, 29.1)

	if err := mc.AppendMarker(ctx, a); err != nil {
		t.Fatalf("append a: %v", err)
	}
	if err := mc.AppendMarker(ctx, b); err != nil {
		t.Fatalf("append b: %v", err)
	}
	// duplicates are kept
	if err := mc.AppendMarker(ctx, a); err != nil {
		t.Fatalf("append a again: %v", err)
	}

	got := mc.Markers(ctx)
	want := []geo.Position{a, b, a}
	if len(got) != len(want) {
		t.Fatalf("expected %d markers, got %d", len(want), len(got))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestMarkersClear(t *testing.T) {
	ctx := context.Background()
	mc := NewMarkerCache(store.NewMemory(), nil)
	_ = mc.AppendMarker(ctx, geo.New(1, 1))

	if err := mc.ClearMarkers(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got := mc.Markers(ctx)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
	if mc.Len() != 0 {
		t.Errorf("expected accumulator reset, got %d", mc.Len())
	}
}

func TestMarkersCorruptDataIsMiss(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	_ = s.Put(ctx, KeyMarkers, []byte("garbage"))
	mc := NewMarkerCache(s, nil)

	if got := mc.Markers(ctx); len(got) != 0 {
		t.Errorf("expected no markers, got %v", got)
	}
	// appending over corrupt data starts a fresh sequence
	if err := mc.AppendMarker(ctx, geo.New(1, 1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := mc.Markers(ctx); len(got) != 1 {
		t.Errorf("expected 1 marker, got %v", got)
	}
}

func TestMarkersConcurrentAppendsAreNotLost(t *testing.T) {
	ctx := context.Background()
	mc := NewMarkerCache(store.NewMemory(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = mc.AppendMarker(ctx, geo.New(float64(i), 0))
		}(i)
	}
	wg.Wait()

	if got := mc.Markers(ctx); len(got) != 20 {
		t.Errorf("expected 20 markers, got %d", len(got))
	}
}
