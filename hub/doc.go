// Package hub distributes location, permission and derived route events to
// any number of independent subscribers.
//
// Delivery is synchronous: Publish invokes every callback registered for the
// event's kind, in subscription order, on the publisher's goroutine. The list
// of subscribers is snapshotted when Publish starts, so a callback that
// subscribes while an event is being delivered is not invoked for that same
// event. A callback that is unsubscribed mid-delivery is skipped.
//
// A callback that returns an error or panics does not stop delivery to the
// remaining subscribers. The failure is handed to the hub's Reporter.
//
// Typical usage:
//
//	h := hub.New(hub.NewFailureLog())
//	handle := h.Subscribe(hub.PositionUpdated, func(ev hub.Event) error {
//	    log.Printf("position %s", ev.Position)
//	    return nil
//	})
//	defer h.Unsubscribe(handle)
package hub
