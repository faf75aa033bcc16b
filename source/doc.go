// Package source owns the platform location provider and translates its
// raw callbacks into the two events the rest of the system understands:
// hub.PositionUpdated and hub.PermissionChanged.
//
// A Source is the only producer of those events. It publishes a position
// only while started and authorized, drops empty or malformed batches
// silently, and publishes every authorization callback even when the state
// did not change.
package source
