// Package geo holds the Position value type shared by every other package
// and the small amount of spherical math the hub needs.
//
// A Position is immutable once created. Newer fixes supersede older ones;
// nothing in the module edits a Position in place.
package geo
