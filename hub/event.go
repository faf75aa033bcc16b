package hub

import (
	"fmt"
	"time"

	"github.com/theoremus-urban-solutions/location-hub/geo"
	"github.com/theoremus-urban-solutions/location-hub/permission"
	"github.com/theoremus-urban-solutions/location-hub/routing"
)

// Kind identifies the type of an Event
type Kind int

const (
	// PositionUpdated carries a new fix from the location source
	PositionUpdated Kind = iota
	// PermissionChanged carries the authorization state after a platform callback
	PermissionChanged
	// RouteRecalculated carries a route from the latest fix to the saved destination
	RouteRecalculated
	// RouteCleared signals the saved route was removed
	RouteCleared
	// MarkersChanged carries the full visited-marker sequence
	MarkersChanged
)

// Kinds lists every event kind in declaration order
var Kinds = []Kind{PositionUpdated, PermissionChanged, RouteRecalculated, RouteCleared, MarkersChanged}

func (k Kind) String() string {
	switch k {
	case PositionUpdated:
		return "position_updated"
	case PermissionChanged:
		return "permission_changed"
	case RouteRecalculated:
		return "route_recalculated"
	case RouteCleared:
		return "route_cleared"
	case MarkersChanged:
		return "markers_changed"
	}
	return fmt.Sprintf("kind_%d", int(k))
}

// ParseKind is the inverse of Kind.String
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// RouteUpdate describes a recomputed route
type RouteUpdate struct {
	Source      geo.Position  `json:"source"`
	Destination geo.Position  `json:"destination"`
	Path        *routing.Path `json:"path,omitempty"`
}

// Event is a single message delivered through the hub. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind       Kind              `json:"kind"`
	At         time.Time         `json:"at"`
	Position   *geo.Position     `json:"position,omitempty"`
	Permission *permission.State `json:"permission,omitempty"`
	Route      *RouteUpdate      `json:"route,omitempty"`
	Markers    []geo.Position    `json:"markers,omitempty"`
}

// PositionEvent builds a PositionUpdated event
func PositionEvent(p geo.Position) Event {
	return Event{Kind: PositionUpdated, At: time.Now(), Position: &p}
}

// PermissionEvent builds a PermissionChanged event
func PermissionEvent(s permission.State) Event {
	return Event{Kind: PermissionChanged, At: time.Now(), Permission: &s}
}

// RouteEvent builds a RouteRecalculated event
func RouteEvent(source, destination geo.Position, path *routing.Path) Event {
	return Event{Kind: RouteRecalculated, At: time.Now(), Route: &RouteUpdate{
		Source:      source,
		Destination: destination,
		Path:        path,
	}}
}

// RouteClearedEvent builds a RouteCleared event
func RouteClearedEvent() Event {
	return Event{Kind: RouteCleared, At: time.Now()}
}

// MarkersEvent builds a MarkersChanged event. The slice is copied.
func MarkersEvent(markers []geo.Position) Event {
	cp := make([]geo.Position, len(markers))
	copy(cp, markers)
	return Event{Kind: MarkersChanged, At: time.Now(), Markers: cp}
}
