package source

import "fmt"

// DefaultMinMovementMeters is the coarsest movement threshold allowed and
// the default. Smaller requests are raised to it to bound event volume.
const DefaultMinMovementMeters = 100.0

// Accuracy is the desired accuracy hint passed to Start
type Accuracy int

const (
	AccuracyBest Accuracy = iota
	AccuracyNearestTenMeters
	AccuracyHundredMeters
	AccuracyKilometer
	AccuracyThreeKilometers
)

// MinMovementMeters maps the hint to the distance a device must move before
// a new fix is delivered.
func (a Accuracy) MinMovementMeters() float64 {
	switch a {
	case AccuracyKilometer:
		return 1000
	case AccuracyThreeKilometers:
		return 3000
	default:
		return DefaultMinMovementMeters
	}
}

func (a Accuracy) String() string {
	switch a {
	case AccuracyBest:
		return "best"
	case AccuracyNearestTenMeters:
		return "nearestTenMeters"
	case AccuracyHundredMeters:
		return "hundredMeters"
	case AccuracyKilometer:
		return "kilometer"
	case AccuracyThreeKilometers:
		return "threeKilometers"
	}
	return fmt.Sprintf("Accuracy(%d)", int(a))
}

// ParseAccuracy is the inverse of Accuracy.String. Empty means best.
func ParseAccuracy(s string) (Accuracy, error) {
	if s == "" {
		return AccuracyBest, nil
	}
	for a := AccuracyBest; a <= AccuracyThreeKilometers; a++ {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown accuracy %q", s)
}

func clampMovement(meters float64) float64 {
	if meters < DefaultMinMovementMeters {
		return DefaultMinMovementMeters
	}
	return meters
}
