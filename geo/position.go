package geo

import (
	"fmt"
	"math"
)

// Position represents a single geographical fix
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// New returns a Position for the given coordinates
func New(lat, lon float64) Position {
	return Position{Latitude: lat, Longitude: lon}
}

// Valid reports whether p is a usable fix: finite and within WGS84 ranges.
func (p Position) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	if math.IsInf(p.Latitude, 0) || math.IsInf(p.Longitude, 0) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Equal compares exact values, no epsilon
func (p Position) Equal(o Position) bool {
	return p.Latitude == o.Latitude && p.Longitude == o.Longitude
}

func (p Position) String() string {
	return fmt.Sprintf("(%g, %g)", p.Latitude, p.Longitude)
}

// Last returns the final valid position of a batch. Only the last fix of a
// batch is significant; a batch whose last fix is malformed yields false.
func Last(batch []Position) (Position, bool) {
	if len(batch) == 0 {
		return Position{}, false
	}
	p := batch[len(batch)-1]
	if !p.Valid() {
		return Position{}, false
	}
	return p, true
}
