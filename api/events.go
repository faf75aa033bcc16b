package api

import (
	"io"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/theoremus-urban-solutions/location-hub/hub"
)

// streamBuffer is the per-client backlog; events beyond it are dropped
const streamBuffer = 64

// Events streams hub events as server-sent events until the client goes
// away. Each client is its own hub subscriber.
func (h *Handler) Events(c *gin.Context) {
	kinds, ok := parseKinds(c.Query("kinds"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event kind"})
		return
	}

	events := h.ctl.Events()
	ch := make(chan hub.Event, streamBuffer)
	var dropped atomic.Int64
	handles := make([]hub.Handle, 0, len(kinds))
	for _, k := range kinds {
		handles = append(handles, events.Subscribe(k, func(ev hub.Event) error {
			select {
			case ch <- ev:
			default:
				dropped.Add(1)
			}
			return nil
		}))
	}
	defer func() {
		for _, handle := range handles {
			events.Unsubscribe(handle)
		}
		if n := dropped.Load(); n > 0 {
			log.Printf("event stream for %s dropped %d events", c.ClientIP(), n)
		}
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev := <-ch:
			c.SSEvent(ev.Kind.String(), ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
