// Package gtfsrt feeds the location source from a GTFS-Realtime
// VehiclePositions feed. One vehicle is followed; its position is emitted
// as a single-fix batch on every poll where it moved far enough.
package gtfsrt

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/theoremus-urban-solutions/location-hub/geo"
	"github.com/theoremus-urban-solutions/location-hub/permission"
	"github.com/theoremus-urban-solutions/location-hub/source"
)

// DefaultReadInterval applies when Options.ReadInterval is zero
const DefaultReadInterval = 5 * time.Second

// Options configure a Provider
type Options struct {
	FeedURL      string
	VehicleID    string
	ReadInterval time.Duration
	Timeout      time.Duration
}

// Provider implements source.Provider by polling a VehiclePositions feed
type Provider struct {
	client *Client
	opts   Options

	mu       sync.Mutex
	handler  source.Handler
	filter   geo.MovementFilter
	lastTS   uint64
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	failures int
}

var _ source.Provider = (*Provider)(nil)

// New creates a Provider
func New(opts Options) (*Provider, error) {
	if opts.FeedURL == "" {
		return nil, fmt.Errorf("gtfsrt: vehicle positions URL is required")
	}
	if opts.VehicleID == "" {
		return nil, fmt.Errorf("gtfsrt: vehicle id is required")
	}
	if opts.ReadInterval <= 0 {
		opts.ReadInterval = DefaultReadInterval
	}
	return &Provider{client: NewClient(opts.Timeout), opts: opts}, nil
}

// SetHandler implements source.Provider
func (p *Provider) SetHandler(h source.Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
}

// Start begins polling in the background
func (p *Provider) Start(minMovementMeters float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}
	p.filter = geo.MovementFilter{MinMeters: minMovementMeters}
	p.lastTS = 0

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)
	go p.loop(ctx)
	log.Printf("polling %s every %s for vehicle %s", p.opts.FeedURL, p.opts.ReadInterval, p.opts.VehicleID)
	return nil
}

// Stop ends polling. It does not wait for an in-progress poll.
func (p *Provider) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	return nil
}

// Close stops polling and waits for the loop to exit
func (p *Provider) Close() error {
	err := p.Stop()
	p.wg.Wait()
	return err
}

// RequestAuthorization grants immediately; a feed needs no user consent.
func (p *Provider) RequestAuthorization() error {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h != nil {
		h.OnAuthorizationChanged(permission.RawAuthorizedAlways)
	}
	return nil
}

func (p *Provider) loop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.opts.ReadInterval)
	defer ticker.Stop()

	for {
		if err := p.Poll(ctx); err != nil && ctx.Err() == nil {
			p.mu.Lock()
			p.failures++
			n := p.failures
			p.mu.Unlock()
			log.Printf("vehicle positions poll failed (%d): %v", n, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Poll fetches the feed once and delivers the followed vehicle's position
func (p *Provider) Poll(ctx context.Context) error {
	fm, err := p.client.FetchFeed(ctx, p.opts.FeedURL)
	if err != nil {
		return err
	}
	pos, ts, ok := findVehicle(fm, p.opts.VehicleID)
	if !ok {
		return nil
	}

	p.mu.Lock()
	if ctx.Err() != nil || p.handler == nil {
		p.mu.Unlock()
		return nil
	}
	if ts != 0 && ts == p.lastTS {
		p.mu.Unlock()
		return nil
	}
	p.lastTS = ts
	if !pos.Valid() || !p.filter.Accept(pos) {
		p.mu.Unlock()
		return nil
	}
	h := p.handler
	p.mu.Unlock()

	h.OnPositionBatch([]geo.Position{pos})
	return nil
}

// findVehicle returns the position and timestamp of vehicleID in fm
func findVehicle(fm *gtfsrtpb.FeedMessage, vehicleID string) (geo.Position, uint64, bool) {
	for _, e := range fm.GetEntity() {
		v := e.GetVehicle()
		if v == nil || v.GetPosition() == nil {
			continue
		}
		if v.GetVehicle().GetId() != vehicleID {
			continue
		}
		pos := geo.New(float64(v.GetPosition().GetLatitude()), float64(v.GetPosition().GetLongitude()))
		ts := v.GetTimestamp()
		if ts == 0 {
			ts = fm.GetHeader().GetTimestamp()
		}
		return pos, ts, true
	}
	return geo.Position{}, 0, false
}
