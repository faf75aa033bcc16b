// Package routing is the boundary to point-to-point routing services.
//
// A Router never returns an error: any failure (transport, decoding, an
// empty result) is reported as a nil *Path, meaning "no route". Callers
// decide whether and when to try again.
package routing
