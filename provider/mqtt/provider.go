// Package mqtt feeds the location source from an MQTT broker.
//
// Fixes arrive on <topic>/position as a JSON object {"latitude","longitude"}
// or an array of them. Authorization statuses arrive on
// <topic>/authorization as the raw status string. A permission prompt is
// requested by publishing to <topic>/authorization/request.
package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/theoremus-urban-solutions/location-hub/geo"
	"github.com/theoremus-urban-solutions/location-hub/source"
)

// Client is the subset of paho.Client the provider uses
type Client interface {
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Dial connects to broker
func Dial(broker, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return client, nil
}

// Provider implements source.Provider on top of MQTT topics
type Provider struct {
	client Client
	topic  string
	qos    byte

	mu      sync.Mutex
	handler source.Handler
	filter  geo.MovementFilter
	running bool
}

var _ source.Provider = (*Provider)(nil)

// New creates a Provider rooted at topic. The authorization topic is
// subscribed immediately so status changes are seen before Start.
func New(client Client, topic string, qos byte) (*Provider, error) {
	p := &Provider{
		client: client,
		topic:  strings.TrimSuffix(topic, "/"),
		qos:    qos,
	}
	if err := wait(client.Subscribe(p.authorizationTopic(), qos, p.handleAuthorization)); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", p.authorizationTopic(), err)
	}
	return p, nil
}

func (p *Provider) positionTopic() string      { return p.topic + "/position" }
func (p *Provider) authorizationTopic() string { return p.topic + "/authorization" }
func (p *Provider) requestTopic() string       { return p.topic + "/authorization/request" }

// SetHandler implements source.Provider
func (p *Provider) SetHandler(h source.Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
}

// Start subscribes to the position topic
func (p *Provider) Start(minMovementMeters float64) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.filter = geo.MovementFilter{MinMeters: minMovementMeters}
	p.running = true
	p.mu.Unlock()

	if err := wait(p.client.Subscribe(p.positionTopic(), p.qos, p.handlePosition)); err != nil {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		return fmt.Errorf("subscribe %s: %w", p.positionTopic(), err)
	}
	return nil
}

// Stop unsubscribes from the position topic
func (p *Provider) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	if err := wait(p.client.Unsubscribe(p.positionTopic())); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", p.positionTopic(), err)
	}
	return nil
}

// RequestAuthorization asks the device side to prompt the user
func (p *Provider) RequestAuthorization() error {
	return wait(p.client.Publish(p.requestTopic(), p.qos, false, []byte("request")))
}

func (p *Provider) handlePosition(_ paho.Client, msg paho.Message) {
	batch, err := decodePositions(msg.Payload())
	if err != nil {
		log.Printf("invalid position message on %s: %v", msg.Topic(), err)
		return
	}

	p.mu.Lock()
	if !p.running || p.handler == nil {
		p.mu.Unlock()
		return
	}
	accepted := batch[:0]
	for _, pos := range batch {
		if pos.Valid() && p.filter.Accept(pos) {
			accepted = append(accepted, pos)
		}
	}
	h := p.handler
	p.mu.Unlock()

	if len(accepted) > 0 {
		h.OnPositionBatch(accepted)
	}
}

func (p *Provider) handleAuthorization(_ paho.Client, msg paho.Message) {
	raw := strings.TrimSpace(string(msg.Payload()))
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h == nil {
		log.Printf("authorization %q received before a handler was set", raw)
		return
	}
	h.OnAuthorizationChanged(raw)
}

// decodePositions accepts a single position object or an array of them
func decodePositions(payload []byte) ([]geo.Position, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, errors.New("empty payload")
	}
	if trimmed[0] == '[' {
		var batch []geo.Position
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			return nil, err
		}
		return batch, nil
	}
	var pos geo.Position
	if err := json.Unmarshal(trimmed, &pos); err != nil {
		return nil, err
	}
	return []geo.Position{pos}, nil
}

func wait(t paho.Token) error {
	t.Wait()
	return t.Error()
}
