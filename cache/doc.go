// Package cache keeps the derived state that must survive a restart: the
// single active route destination and the chronological list of visited
// markers.
//
// Both caches sit on top of the raw persistence boundary (store.Store) and
// treat anything they cannot read back (missing key, corrupt bytes, a store
// error) as a cache miss. Writes are serialized per key so an append never
// loses a concurrent append.
package cache

// Well-known persistence keys
const (
	KeyRoute   = "savedRouteDestination"
	KeyMarkers = "savedMarkers"
)
