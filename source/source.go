package source

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/theoremus-urban-solutions/location-hub/geo"
	"github.com/theoremus-urban-solutions/location-hub/hub"
	"github.com/theoremus-urban-solutions/location-hub/permission"
)

// Source wraps a Provider and publishes its events on a hub
type Source struct {
	provider Provider
	events   *hub.Hub
	settings SettingsOpener
	perm     *permission.Machine

	lifecycle   sync.Mutex
	started     atomic.Bool
	minMovement float64
}

// New creates a Source and registers it as the provider's handler. A nil
// settings opener falls back to LoggingSettings.
func New(provider Provider, events *hub.Hub, settings SettingsOpener) *Source {
	if settings == nil {
		settings = LoggingSettings{}
	}
	s := &Source{
		provider: provider,
		events:   events,
		settings: settings,
		perm:     permission.NewMachine(),
	}
	provider.SetHandler(s)
	return s
}

// Start begins delivering updates using the hint's movement threshold
func (s *Source) Start(hint Accuracy) error {
	return s.StartWithDistance(hint.MinMovementMeters())
}

// StartWithDistance begins delivering updates with an explicit movement
// threshold. Values below DefaultMinMovementMeters are raised to it.
// Starting an already started source is a no-op.
func (s *Source) StartWithDistance(meters float64) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.started.Load() {
		return nil
	}

	if s.perm.Current() == permission.Undetermined {
		if err := s.provider.RequestAuthorization(); err != nil {
			log.Printf("location permission request failed: %v", err)
		}
	}

	s.minMovement = clampMovement(meters)
	// mark started first: providers may deliver synchronously from Start
	s.started.Store(true)
	if err := s.provider.Start(s.minMovement); err != nil {
		s.started.Store(false)
		return fmt.Errorf("start location provider: %w", err)
	}
	return nil
}

// Stop ceases update delivery. Safe to call repeatedly.
func (s *Source) Stop() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if !s.started.Swap(false) {
		return nil
	}
	if err := s.provider.Stop(); err != nil {
		return fmt.Errorf("stop location provider: %w", err)
	}
	return nil
}

// Started reports whether updates are being delivered
func (s *Source) Started() bool {
	return s.started.Load()
}

// MinMovementMeters returns the threshold applied by the last Start
func (s *Source) MinMovementMeters() float64 {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.minMovement
}

// State returns the current authorization state
func (s *Source) State() permission.State {
	return s.perm.Current()
}

// RequestPermission prompts when undetermined and deep-links into settings
// when denied. It does nothing once authorized.
func (s *Source) RequestPermission() error {
	switch s.perm.Current() {
	case permission.Undetermined:
		if err := s.provider.RequestAuthorization(); err != nil {
			return fmt.Errorf("request authorization: %w", err)
		}
	case permission.Denied:
		s.settings.OpenSystemSettings()
	}
	return nil
}

// Toggle re-requests permission when undetermined; for any other state it
// hands off to the settings deep-link. Permission is never force-granted.
func (s *Source) Toggle() error {
	switch permission.ToggleAction(s.perm.Current()) {
	case permission.ActionRequest:
		if err := s.provider.RequestAuthorization(); err != nil {
			return fmt.Errorf("request authorization: %w", err)
		}
	default:
		s.settings.OpenSystemSettings()
	}
	return nil
}

// OnPositionBatch implements Handler
func (s *Source) OnPositionBatch(batch []geo.Position) {
	if !s.started.Load() || s.perm.Current() != permission.Authorized {
		return
	}
	p, ok := geo.Last(batch)
	if !ok {
		return
	}
	s.events.Publish(hub.PositionEvent(p))
}

// OnAuthorizationChanged implements Handler
func (s *Source) OnAuthorizationChanged(raw string) {
	state := permission.FromRaw(raw)
	if s.perm.Apply(state) {
		log.Printf("location permission changed to %s", state)
	}
	s.events.Publish(hub.PermissionEvent(state))
}
