// Package locationhub wires the location source, event hubs, caches,
// router and controller into a runnable service.
package locationhub

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/theoremus-urban-solutions/location-hub/api"
	"github.com/theoremus-urban-solutions/location-hub/cache"
	"github.com/theoremus-urban-solutions/location-hub/codec"
	"github.com/theoremus-urban-solutions/location-hub/config"
	"github.com/theoremus-urban-solutions/location-hub/hub"
	amqprelay "github.com/theoremus-urban-solutions/location-hub/relay/amqp"
	"github.com/theoremus-urban-solutions/location-hub/source"
	"github.com/theoremus-urban-solutions/location-hub/tracking"
)

// App is a built service
type App struct {
	Controller *tracking.Controller
	Source     *source.Source
	Server     *api.Server
	Failures   *hub.FailureLog

	autostart bool
	closers   []func() error
}

// Option adjusts Build
type Option func(*App)

// WithoutAutoStart leaves the controller idle when Run begins
func WithoutAutoStart() Option {
	return func(a *App) { a.autostart = false }
}

// Build constructs every component described by cfg. On error, anything
// already opened is released.
func Build(ctx context.Context, cfg *config.AppConfig, opts ...Option) (*App, error) {
	a := &App{Failures: hub.NewFailureLog(), autostart: true}
	for _, o := range opts {
		o(a)
	}
	if err := a.build(ctx, cfg); err != nil {
		_ = a.closeAll()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, cfg *config.AppConfig) error {
	enc, err := codec.ByName(cfg.Store.Encoding)
	if err != nil {
		return err
	}
	st, err := newStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	accuracy, err := source.ParseAccuracy(cfg.Tracking.Accuracy)
	if err != nil {
		return err
	}
	provider, closeProvider, err := newProvider(cfg.Provider)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, closeProvider)

	in := hub.New(a.Failures)
	out := hub.New(a.Failures)
	a.Source = source.New(provider, in, nil)
	a.Controller = tracking.New(a.Source, in, out,
		cache.NewRouteCache(st, enc),
		cache.NewMarkerCache(st, enc),
		newRouter(cfg.Routing),
		tracking.Options{
			MinMovementMeters: max(cfg.Tracking.MinMovementMeters, accuracy.MinMovementMeters()),
			RouteTimeout:      time.Duration(cfg.Tracking.RouteTimeoutMS) * time.Millisecond,
		},
	)

	if cfg.Relay.AMQP.URL != "" {
		relay, err := amqprelay.Dial(cfg.Relay.AMQP.URL, cfg.Relay.AMQP.Exchange)
		if err != nil {
			return err
		}
		relay.Attach(out, hub.PermissionChanged, hub.RouteRecalculated, hub.RouteCleared, hub.MarkersChanged)
		a.closers = append(a.closers, relay.Close)
	}

	a.Server = api.NewServer(cfg.Server.Port, api.NewHandler(a.Controller))
	log.Printf("built location hub: provider=%s store=%s/%s routing=%s",
		cfg.Provider.Kind, cfg.Store.Kind, enc.Name(), cfg.Routing.Kind)
	return nil
}

// Run starts tracking (unless disabled) and serves HTTP until ctx is done
func (a *App) Run(ctx context.Context) error {
	if a.autostart {
		if err := a.Controller.Start(ctx); err != nil {
			return err
		}
	}

	errc := make(chan error, 1)
	go func() { errc <- a.Server.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Printf("shutdown signal received")
		return a.Server.Shutdown(context.WithoutCancel(ctx))
	}
}

// Close stops tracking and releases every connection in reverse order of
// creation.
func (a *App) Close() error {
	var errs []error
	if a.Controller != nil {
		if err := a.Controller.Close(); err != nil {
			errs = append(errs, fmt.Errorf("stop tracking: %w", err))
		}
	}
	errs = append(errs, a.closeAll())
	a.Failures.LogAll()
	return errors.Join(errs...)
}

func (a *App) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
