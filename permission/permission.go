// Package permission models the location authorization state and the
// transitions the platform may drive it through.
package permission

import "fmt"

// State is the current location authorization
type State int

const (
	Undetermined State = iota
	Authorized
	Denied
)

// Raw platform authorization statuses understood by FromRaw
const (
	RawNotDetermined       = "notDetermined"
	RawRestricted          = "restricted"
	RawDenied              = "denied"
	RawAuthorizedAlways    = "authorizedAlways"
	RawAuthorizedWhenInUse = "authorizedWhenInUse"
)

// FromRaw maps a raw platform status to a State. Unknown statuses are
// treated as Denied.
func FromRaw(raw string) State {
	switch raw {
	case RawNotDetermined:
		return Undetermined
	case RawAuthorizedAlways, RawAuthorizedWhenInUse:
		return Authorized
	default:
		return Denied
	}
}

func (s State) String() string {
	switch s {
	case Undetermined:
		return "undetermined"
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "undetermined":
		*s = Undetermined
	case "authorized":
		*s = Authorized
	case "denied":
		*s = Denied
	default:
		return fmt.Errorf("unknown permission state %q", string(b))
	}
	return nil
}

// Action is what a user-initiated toggle should do
type Action int

const (
	// ActionRequest re-prompts for authorization
	ActionRequest Action = iota
	// ActionOpenSettings hands off to the system settings deep-link
	ActionOpenSettings
)

// ToggleAction decides how a toggle is handled for the given state. Only an
// undetermined state can be prompted; everything else goes through settings.
func ToggleAction(s State) Action {
	if s == Undetermined {
		return ActionRequest
	}
	return ActionOpenSettings
}

func (a Action) String() string {
	if a == ActionRequest {
		return "request"
	}
	return "open_settings"
}

// MarshalText implements encoding.TextMarshaler
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
