package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/theoremus-urban-solutions/location-hub/geo"
	"github.com/theoremus-urban-solutions/location-hub/hub"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange, key, msg})
	return nil
}

type recordingReporter struct{ failures []hub.Failure }

func (r *recordingReporter) ReportFailure(f hub.Failure) { r.failures = append(r.failures, f) }

func TestRelayForwardsMarkers(t *testing.T) {
	pub := &fakePublisher{}
	h := hub.New(nil)
	r := New(pub, "")
	r.Attach(h, hub.MarkersChanged)

	h.Publish(hub.MarkersEvent([]geo.Position{geo.New(41, 29)}))

	if len(pub.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(pub.sent))
	}
	got := pub.sent[0]
	if got.exchange != DefaultExchange {
		t.Errorf("expected exchange %s, got %s", DefaultExchange, got.exchange)
	}
	if got.key != "markers_changed" || got.msg.Type != "markers_changed" {
		t.Errorf("expected markers_changed key and type, got %s/%s", got.key, got.msg.Type)
	}
	if got.msg.ContentType != "application/json" {
		t.Errorf("expected application/json, got %s", got.msg.ContentType)
	}

	var body struct {
		Kind    string         `json:"kind"`
		Markers []geo.Position `json:"markers"`
	}
	if err := json.Unmarshal(got.msg.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Kind != "markers_changed" || len(body.Markers) != 1 {
		t.Errorf("unexpected body %s", got.msg.Body)
	}
}

func TestRelayDetach(t *testing.T) {
	pub := &fakePublisher{}
	h := hub.New(nil)
	r := New(pub, "custom")
	r.Attach(h)
	if n := h.Len(hub.RouteCleared); n != 1 {
		t.Fatalf("expected subscription on every kind, got %d", n)
	}

	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	h.Publish(hub.RouteClearedEvent())
	if len(pub.sent) != 0 {
		t.Errorf("expected no messages after close, got %d", len(pub.sent))
	}
}

func TestRelayFailureReported(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	rep := &recordingReporter{}
	h := hub.New(rep)
	New(pub, "").Attach(h, hub.RouteCleared)

	h.Publish(hub.RouteClearedEvent())

	if len(rep.failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(rep.failures))
	}
	if rep.failures[0].Kind != hub.RouteCleared {
		t.Errorf("expected route_cleared failure, got %s", rep.failures[0].Kind)
	}
}
