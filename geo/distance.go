package geo

import (
	"fmt"
	"math"
)

const earthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance between two coordinates in kilometers
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	la1 := lat1 * math.Pi / 180
	la2 := lat2 * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// DistanceMeters returns the great-circle distance between a and b in meters
func DistanceMeters(a, b Position) float64 {
	return HaversineKM(a.Latitude, a.Longitude, b.Latitude, b.Longitude) * 1000
}

// MovementFilter suppresses fixes that moved less than a minimum distance
// from the last fix it accepted. The zero value accepts everything.
type MovementFilter struct {
	MinMeters float64

	last     Position
	haveLast bool
}

// Accept reports whether p moved far enough to be delivered, and records it if so.
func (f *MovementFilter) Accept(p Position) bool {
	if f.haveLast && f.MinMeters > 0 && DistanceMeters(f.last, p) < f.MinMeters {
		return false
	}
	f.last = p
	f.haveLast = true
	return true
}

// Reset forgets the last accepted fix
func (f *MovementFilter) Reset() {
	f.last = Position{}
	f.haveLast = false
}

// Thresholds for Presentable
const (
	arrivedMeters     = 30.0
	approachingMeters = 150.0
)

// Presentable formats a remaining distance for display
func Presentable(meters float64) string {
	switch {
	case meters < arrivedMeters:
		return "arrived"
	case meters < approachingMeters:
		return "approaching"
	case meters < 1000:
		return fmt.Sprintf("%d m", int(math.Round(meters/10)*10))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}
