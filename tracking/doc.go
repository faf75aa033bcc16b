// Package tracking orchestrates the location source, the event hub and the
// route/marker caches.
//
// A Controller subscribes to the source's hub while tracking. Each new fix
// is appended to the visited markers, and if a destination is saved the
// route from that fix to the destination is recomputed in the background.
// Results are re-published on a separate output hub for downstream
// consumers (UI, relays, loggers) together with relayed permission changes.
//
// Route recomputation never blocks position processing. Overlapping
// requests are resolved last-requested-wins: a response is delivered only
// if no newer request has started since, so a slow older response is
// discarded. Stop invalidates everything in flight.
package tracking
