package routing

import (
	"context"
	"time"

	"github.com/theoremus-urban-solutions/location-hub/geo"
)

// Path is a computed route between two positions
type Path struct {
	Points         []geo.Position `json:"points"`
	DistanceMeters float64        `json:"distanceMeters"`
	Duration       time.Duration  `json:"duration"`
}

// Router computes routes. Implementations may block; callers run them off
// the event delivery path.
type Router interface {
	ComputeRoute(ctx context.Context, from, to geo.Position) *Path
}

// RouterFunc adapts a function to the Router interface
type RouterFunc func(ctx context.Context, from, to geo.Position) *Path

// ComputeRoute calls f
func (f RouterFunc) ComputeRoute(ctx context.Context, from, to geo.Position) *Path {
	return f(ctx, from, to)
}

// DefaultSpeedKMH is the travel speed StraightLine assumes when none is set
const DefaultSpeedKMH = 40.0

// StraightLine routes along the great circle between the two positions.
type StraightLine struct {
	SpeedKMH float64
}

// ComputeRoute returns a two-point path
func (s StraightLine) ComputeRoute(ctx context.Context, from, to geo.Position) *Path {
	if ctx.Err() != nil || !from.Valid() || !to.Valid() {
		return nil
	}
	speed := s.SpeedKMH
	if speed <= 0 {
		speed = DefaultSpeedKMH
	}
	meters := geo.DistanceMeters(from, to)
	hours := meters / 1000 / speed
	return &Path{
		Points:         []geo.Position{from, to},
		DistanceMeters: meters,
		Duration:       time.Duration(hours * float64(time.Hour)),
	}
}
