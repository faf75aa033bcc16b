package source

import (
	"log"

	"github.com/theoremus-urban-solutions/location-hub/geo"
)

// Handler receives raw provider callbacks
type Handler interface {
	// OnPositionBatch delivers zero or more fixes; only the last is significant
	OnPositionBatch(batch []geo.Position)
	// OnAuthorizationChanged delivers a raw platform status (see permission.Raw*)
	OnAuthorizationChanged(raw string)
}

// Provider is the platform location provider boundary
type Provider interface {
	SetHandler(h Handler)
	Start(minMovementMeters float64) error
	Stop() error
	RequestAuthorization() error
}

// SettingsOpener deep-links into the system settings. Fire-and-forget.
type SettingsOpener interface {
	OpenSystemSettings()
}

// SettingsFunc adapts a function to SettingsOpener
type SettingsFunc func()

// OpenSystemSettings calls f
func (f SettingsFunc) OpenSystemSettings() { f() }

// LoggingSettings only records that the user must change permission in settings
type LoggingSettings struct{}

// OpenSystemSettings logs the request
func (LoggingSettings) OpenSystemSettings() {
	log.Printf("location permission must be changed in system settings")
}
