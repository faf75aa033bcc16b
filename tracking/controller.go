package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/theoremus-urban-solutions/location-hub/cache"
	"github.com/theoremus-urban-solutions/location-hub/geo"
	"github.com/theoremus-urban-solutions/location-hub/hub"
	"github.com/theoremus-urban-solutions/location-hub/permission"
	"github.com/theoremus-urban-solutions/location-hub/routing"
	"github.com/theoremus-urban-solutions/location-hub/source"
)

// State is the controller lifecycle state
type State int

const (
	Idle State = iota
	Tracking
)

func (s State) String() string {
	if s == Tracking {
		return "tracking"
	}
	return "idle"
}

// MarshalText implements encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LocationSource is what the controller needs from source.Source
type LocationSource interface {
	StartWithDistance(meters float64) error
	Stop() error
	Toggle() error
	State() permission.State
}

var _ LocationSource = (*source.Source)(nil)

// Options tune a Controller
type Options struct {
	// MinMovementMeters is passed to the source on Start
	MinMovementMeters float64
	// RouteTimeout bounds a single route computation
	RouteTimeout time.Duration
}

// DefaultRouteTimeout applies when Options.RouteTimeout is zero
const DefaultRouteTimeout = 15 * time.Second

// Controller is the tracking orchestrator
type Controller struct {
	src     LocationSource
	in      *hub.Hub
	out     *hub.Hub
	routes  *cache.RouteCache
	markers *cache.MarkerCache
	router  routing.Router
	opts    Options

	mu       sync.Mutex
	state    State
	handles  []hub.Handle
	routeCtx context.Context
	cancel   context.CancelFunc

	// gen changes on every Start and Stop; callbacks and route results
	// carry the gen they were created under and are dropped on mismatch.
	gen      atomic.Uint64
	routeSeq atomic.Uint64
	routeMu  sync.Mutex
	inflight sync.WaitGroup

	lastMu sync.RWMutex
	last   *geo.Position
}

// New creates an idle controller. in is the hub the source publishes on;
// out receives relayed and derived events.
func New(src LocationSource, in, out *hub.Hub, routes *cache.RouteCache, markers *cache.MarkerCache, router routing.Router, opts Options) *Controller {
	if opts.MinMovementMeters <= 0 {
		opts.MinMovementMeters = source.DefaultMinMovementMeters
	}
	if opts.RouteTimeout <= 0 {
		opts.RouteTimeout = DefaultRouteTimeout
	}
	return &Controller{
		src:     src,
		in:      in,
		out:     out,
		routes:  routes,
		markers: markers,
		router:  router,
		opts:    opts,
	}
}

// Events returns the output hub
func (c *Controller) Events() *hub.Hub {
	return c.out
}

// State returns the lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Permission returns the source's current authorization state
func (c *Controller) Permission() permission.State {
	return c.src.State()
}

// Start moves Idle to Tracking: it subscribes to the source's events, then
// starts the source. Starting while tracking is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Tracking {
		return nil
	}

	gen := c.gen.Add(1)
	routeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.handles = []hub.Handle{
		c.in.Subscribe(hub.PositionUpdated, c.positionHandler(routeCtx, gen)),
		c.in.Subscribe(hub.PermissionChanged, c.permissionHandler(gen)),
	}
	c.routeCtx, c.cancel = routeCtx, cancel
	c.state = Tracking

	if err := c.src.StartWithDistance(c.opts.MinMovementMeters); err != nil {
		c.teardown()
		return fmt.Errorf("start tracking: %w", err)
	}
	log.Printf("tracking started")
	return nil
}

// Stop moves Tracking to Idle: it stops the source and drops every
// subscription the controller owns. Deliveries already in flight and
// pending route computations are discarded.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Idle {
		return nil
	}
	// invalidate before anything else so a late fix racing with Stop is dropped
	c.gen.Add(1)
	err := c.src.Stop()
	c.teardown()
	log.Printf("tracking stopped")
	if err != nil {
		return fmt.Errorf("stop tracking: %w", err)
	}
	return nil
}

// teardown releases subscriptions and cancels route work; callers hold mu
func (c *Controller) teardown() {
	c.gen.Add(1)
	for _, h := range c.handles {
		c.in.Unsubscribe(h)
	}
	c.handles = nil
	if c.cancel != nil {
		c.cancel()
	}
	c.routeCtx, c.cancel = nil, nil
	c.state = Idle
}

// Close stops tracking and waits for in-flight route computations to return
func (c *Controller) Close() error {
	err := c.Stop()
	c.inflight.Wait()
	return err
}

func (c *Controller) active(gen uint64) bool {
	return c.gen.Load() == gen
}

func (c *Controller) positionHandler(ctx context.Context, gen uint64) hub.Callback {
	return func(ev hub.Event) error {
		if !c.active(gen) || ev.Position == nil {
			return nil
		}
		p := *ev.Position
		c.lastMu.Lock()
		c.last = &p
		c.lastMu.Unlock()

		// a failed marker write must not cost the route update
		var appendErr error
		if err := c.markers.AppendMarker(ctx, p); err != nil {
			appendErr = fmt.Errorf("append marker: %w", err)
		}
		c.out.Publish(hub.MarkersEvent(c.markers.Markers(ctx)))

		if dest, ok := c.routes.Route(ctx); ok {
			c.recompute(ctx, gen, p, dest)
		}
		return appendErr
	}
}

func (c *Controller) permissionHandler(gen uint64) hub.Callback {
	return func(ev hub.Event) error {
		if !c.active(gen) {
			return nil
		}
		c.out.Publish(ev)
		return nil
	}
}

// recompute starts a background route computation from -> to. Only the
// latest request is delivered.
func (c *Controller) recompute(ctx context.Context, gen uint64, from, to geo.Position) {
	seq := c.routeSeq.Add(1)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		rctx, cancel := context.WithTimeout(ctx, c.opts.RouteTimeout)
		defer cancel()

		path := c.router.ComputeRoute(rctx, from, to)
		if path == nil {
			log.Printf("no route from %s to %s", from, to)
			return
		}
		c.deliverRoute(gen, seq, from, to, path)
	}()
}

func (c *Controller) deliverRoute(gen, seq uint64, from, to geo.Position, path *routing.Path) {
	c.routeMu.Lock()
	defer c.routeMu.Unlock()
	if !c.active(gen) || c.routeSeq.Load() != seq {
		return
	}
	// the destination may have been cleared after this request read it
	if pin, ok := c.routes.Pin(); !ok || !pin.Equal(to) {
		return
	}
	c.out.Publish(hub.RouteEvent(from, to, path))
}

// RequestRoute saves destination as the single active route. While
// tracking with a known position, the route is computed immediately.
func (c *Controller) RequestRoute(ctx context.Context, destination geo.Position) error {
	if err := c.routes.SaveRoute(ctx, destination); err != nil {
		return err
	}

	c.mu.Lock()
	tracking := c.state == Tracking
	gen, routeCtx := c.gen.Load(), c.routeCtx
	c.mu.Unlock()

	from, ok := c.LastPosition()
	if tracking && ok {
		c.recompute(routeCtx, gen, from, destination)
	}
	return nil
}

// Route returns the saved destination
func (c *Controller) Route(ctx context.Context) (geo.Position, bool) {
	return c.routes.Route(ctx)
}

// ClearRoute removes the saved destination and discards pending route
// results, including those started from a read that raced the clear.
// RouteRecalculated subscribers must not call it synchronously.
func (c *Controller) ClearRoute(ctx context.Context) error {
	c.routeMu.Lock()
	c.routeSeq.Add(1)
	err := c.routes.ClearRoute(ctx)
	c.routeMu.Unlock()
	if err != nil {
		return err
	}
	c.out.Publish(hub.RouteClearedEvent())
	return nil
}

// Markers returns the visited markers in chronological order
func (c *Controller) Markers(ctx context.Context) []geo.Position {
	return c.markers.Markers(ctx)
}

// ClearMarkers empties the visited markers
func (c *Controller) ClearMarkers(ctx context.Context) error {
	if err := c.markers.ClearMarkers(ctx); err != nil {
		return err
	}
	c.out.Publish(hub.MarkersEvent(nil))
	return nil
}

// Reset clears both the route and the markers
func (c *Controller) Reset(ctx context.Context) error {
	return errors.Join(c.ClearRoute(ctx), c.ClearMarkers(ctx))
}

// LastPosition returns the most recent fix seen while tracking
func (c *Controller) LastPosition() (geo.Position, bool) {
	c.lastMu.RLock()
	defer c.lastMu.RUnlock()
	if c.last == nil {
		return geo.Position{}, false
	}
	return *c.last, true
}

// TogglePermission forwards a user toggle to the source
func (c *Controller) TogglePermission() error {
	return c.src.Toggle()
}
