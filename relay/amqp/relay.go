// Package amqp forwards hub events to a RabbitMQ fanout exchange as JSON.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/theoremus-urban-solutions/location-hub/hub"
)

// DefaultExchange is used when no exchange name is configured
const DefaultExchange = "location.events"

const publishTimeout = 5 * time.Second

// Publisher is the subset of *amqp.Channel the relay uses
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Relay is a hub subscriber publishing every event it receives
type Relay struct {
	pub      Publisher
	exchange string
	closer   func() error

	mu      sync.Mutex
	events  *hub.Hub
	handles []hub.Handle
}

// Dial connects to url, declares a durable fanout exchange and returns a
// relay publishing on it.
func Dial(url, exchange string) (*Relay, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connect: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	r := New(ch, exchange)
	r.closer = func() error {
		_ = ch.Close()
		return conn.Close()
	}
	return r, nil
}

// New creates a relay on an existing publisher
func New(pub Publisher, exchange string) *Relay {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Relay{pub: pub, exchange: exchange}
}

// Attach subscribes the relay to kinds on h. Kinds default to every kind.
func (r *Relay) Attach(h *hub.Hub, kinds ...hub.Kind) {
	if len(kinds) == 0 {
		kinds = hub.Kinds
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = h
	for _, k := range kinds {
		r.handles = append(r.handles, h.Subscribe(k, r.Forward))
	}
}

// Detach drops every subscription made by Attach
func (r *Relay) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, handle := range r.handles {
		r.events.Unsubscribe(handle)
	}
	r.handles = nil
}

// Forward publishes ev. Errors are returned to the hub for reporting.
func (r *Relay) Forward(ev hub.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	err = r.pub.PublishWithContext(ctx, r.exchange, ev.Kind.String(), false, false, amqp.Publishing{
		ContentType: "application/json",
		Type:        ev.Kind.String(),
		Timestamp:   ev.At,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Kind, err)
	}
	return nil
}

// Close detaches and releases the broker connection, if the relay owns one
func (r *Relay) Close() error {
	r.Detach()
	if r.closer != nil {
		return r.closer()
	}
	return nil
}
