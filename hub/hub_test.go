package hub

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/theoremus-urban-solutions/location-hub/geo"
	"github.com/theoremus-urban-solutions/location-hub/permission"
)

type recordingReporter struct {
	mu       sync.Mutex
	failures []Failure
}

func (r *recordingReporter) ReportFailure(f Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, f)
}

func TestSubscribePublishDeliversOnce(t *testing.T) {
	h := New(&recordingReporter{})
	calls := 0
	h.Subscribe(PositionUpdated, func(ev Event) error {
		calls++
		return nil
	})

	h.Publish(PositionEvent(geo.New(41.0, 29.0)))
	if calls != 1 {
		t.Fatalf("expected 1 delivery, got %d", calls)
	}
	h.Publish(PositionEvent(geo.New(41.1, 29.1)))
	if calls != 2 {
		t.Errorf("expected 2 deliveries, got %d", calls)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := New(&recordingReporter{})
	calls := 0
	handle := h.Subscribe(PositionUpdated, func(ev Event) error {
		calls++
		return nil
	})

	h.Unsubscribe(handle)
	h.Publish(PositionEvent(geo.New(41.0, 29.0)))
	if calls != 0 {
		t.Errorf("expected 0 deliveries after unsubscribe, got %d", calls)
	}

	// second unsubscribe is a no-op
	h.Unsubscribe(handle)
	if h.Len(PositionUpdated) != 0 {
		t.Errorf("expected no subscribers, got %d", h.Len(PositionUpdated))
	}
}

func TestDeliveryIsPerKind(t *testing.T) {
	h := New(&recordingReporter{})
	var positions, permissions int
	h.Subscribe(PositionUpdated, func(Event) error { positions++; return nil })
	h.Subscribe(PermissionChanged, func(Event) error { permissions++; return nil })

	h.Publish(PermissionEvent(permission.Authorized))
	if positions != 0 || permissions != 1 {
		t.Errorf("expected positions=0 permissions=1, got %d %d", positions, permissions)
	}
}

func TestDeliveryFollowsSubscriptionOrder(t *testing.T) {
	h := New(&recordingReporter{})
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		h.Subscribe(PositionUpdated, func(Event) error {
			order = append(order, i)
			return nil
		})
	}

	h.Publish(PositionEvent(geo.New(0, 0)))
	for i, got := range order {
		if got != i {
			t.Fatalf("expected order 0..4, got %v", order)
		}
	}
	if len(order) != 5 {
		t.Errorf("expected 5 deliveries, got %d", len(order))
	}
}

func TestSubscribeDuringPublishIsNotInvokedForSameEvent(t *testing.T) {
	h := New(&recordingReporter{})
	lateCalls := 0
	subscribed := false
	h.Subscribe(PositionUpdated, func(Event) error {
		if !subscribed {
			subscribed = true
			h.Subscribe(PositionUpdated, func(Event) error {
				lateCalls++
				return nil
			})
		}
		return nil
	})

	h.Publish(PositionEvent(geo.New(0, 0)))
	if lateCalls != 0 {
		t.Fatalf("subscriber added during delivery must not see the same event, got %d calls", lateCalls)
	}

	h.Publish(PositionEvent(geo.New(1, 1)))
	if lateCalls != 1 {
		t.Errorf("subscriber should see later events, got %d calls", lateCalls)
	}
}

func TestUnsubscribeDuringPublishSkipsRemoved(t *testing.T) {
	h := New(&recordingReporter{})
	secondCalls := 0
	var second Handle
	h.Subscribe(PositionUpdated, func(Event) error {
		h.Unsubscribe(second)
		return nil
	})
	second = h.Subscribe(PositionUpdated, func(Event) error {
		secondCalls++
		return nil
	})

	h.Publish(PositionEvent(geo.New(0, 0)))
	if secondCalls != 0 {
		t.Errorf("expected removed subscriber to be skipped, got %d calls", secondCalls)
	}
}

func TestFailingSubscriberIsIsolatedAndReported(t *testing.T) {
	rep := &recordingReporter{}
	h := New(rep)
	after := 0
	boom := errors.New("boom")
	failing := h.Subscribe(PositionUpdated, func(Event) error { return boom })
	h.Subscribe(PositionUpdated, func(Event) error { panic("kaboom") })
	h.Subscribe(PositionUpdated, func(Event) error {
		after++
		return nil
	})

	h.Publish(PositionEvent(geo.New(0, 0)))

	if after != 1 {
		t.Errorf("subscriber after failures should still be delivered, got %d", after)
	}
	if len(rep.failures) != 2 {
		t.Fatalf("expected 2 reported failures, got %d", len(rep.failures))
	}
	if !errors.Is(rep.failures[0].Err, boom) || rep.failures[0].Handle != failing {
		t.Errorf("first failure should carry the returned error and handle, got %+v", rep.failures[0])
	}
	if rep.failures[1].Kind != PositionUpdated {
		t.Errorf("expected failure kind %s, got %s", PositionUpdated, rep.failures[1].Kind)
	}
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	h := New(&recordingReporter{})
	var mu sync.Mutex
	total := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handle := h.Subscribe(PositionUpdated, func(Event) error {
				mu.Lock()
				total++
				mu.Unlock()
				return nil
			})
			for j := 0; j < 50; j++ {
				h.Publish(PositionEvent(geo.New(0, 0)))
			}
			h.Unsubscribe(handle)
		}()
	}
	wg.Wait()
	if h.Len(PositionUpdated) != 0 {
		t.Errorf("expected all subscribers removed, got %d", h.Len(PositionUpdated))
	}
	if total == 0 {
		t.Error("expected some deliveries")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("expected %s to round trip, got %s ok=%v", k, got, ok)
		}
	}
	if _, ok := ParseKind("nope"); ok {
		t.Error("unknown kind should not parse")
	}
}

func TestEventJSONOmitsUnsetPermission(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want bool
	}{
		{"position", PositionEvent(geo.New(41, 29)), false},
		{"markers", MarkersEvent([]geo.Position{geo.New(41, 29)}), false},
		{"route cleared", RouteClearedEvent(), false},
		{"permission", PermissionEvent(permission.Undetermined), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.ev)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if got := strings.Contains(string(b), `"permission"`); got != tt.want {
				t.Errorf("expected permission present=%v, got %s", tt.want, b)
			}
		})
	}
}
