// Package api exposes the tracking controller over HTTP.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/theoremus-urban-solutions/location-hub/geo"
	"github.com/theoremus-urban-solutions/location-hub/hub"
	"github.com/theoremus-urban-solutions/location-hub/permission"
	"github.com/theoremus-urban-solutions/location-hub/tracking"
)

type controller interface {
	Start(ctx context.Context) error
	Stop() error
	State() tracking.State
	Permission() permission.State
	TogglePermission() error
	LastPosition() (geo.Position, bool)
	RequestRoute(ctx context.Context, destination geo.Position) error
	Route(ctx context.Context) (geo.Position, bool)
	ClearRoute(ctx context.Context) error
	Markers(ctx context.Context) []geo.Position
	ClearMarkers(ctx context.Context) error
	Reset(ctx context.Context) error
	Events() *hub.Hub
}

var _ controller = (*tracking.Controller)(nil)

type statusResponse struct {
	State        tracking.State   `json:"state"`
	Permission   permission.State `json:"permission"`
	LastPosition *geo.Position    `json:"lastPosition,omitempty"`
	Destination  *geo.Position    `json:"destination,omitempty"`
	Remaining    string           `json:"remaining,omitempty"`
	Markers      int              `json:"markers"`
}

type routeResponse struct {
	Destination geo.Position `json:"destination"`
}

type markersResponse struct {
	Markers []geo.Position `json:"markers"`
}

// Handler serves the control surface
type Handler struct {
	ctl controller
}

// NewHandler creates a Handler
func NewHandler(ctl controller) *Handler {
	return &Handler{ctl: ctl}
}

// Register mounts every route under r
func (h *Handler) Register(r *gin.RouterGroup) {
	r.GET("/health", h.Health)
	r.GET("/status", h.Status)
	r.POST("/tracking/start", h.StartTracking)
	r.POST("/tracking/stop", h.StopTracking)
	r.POST("/permission/toggle", h.TogglePermission)
	r.GET("/route", h.GetRoute)
	r.PUT("/route", h.PutRoute)
	r.DELETE("/route", h.DeleteRoute)
	r.GET("/markers", h.GetMarkers)
	r.DELETE("/markers", h.DeleteMarkers)
	r.DELETE("/state", h.Reset)
	r.GET("/events", h.Events)
}

// Health reports liveness and the tracking state
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"tracking": h.ctl.State(),
	})
}

// Status summarizes tracking state, permission, markers and the active route
func (h *Handler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	resp := statusResponse{
		State:      h.ctl.State(),
		Permission: h.ctl.Permission(),
		Markers:    len(h.ctl.Markers(ctx)),
	}
	if p, ok := h.ctl.LastPosition(); ok {
		resp.LastPosition = &p
	}
	if d, ok := h.ctl.Route(ctx); ok {
		resp.Destination = &d
		if resp.LastPosition != nil {
			resp.Remaining = geo.Presentable(geo.DistanceMeters(*resp.LastPosition, d))
		}
	}
	c.JSON(http.StatusOK, resp)
}

// StartTracking starts location updates. The controller outlives the request.
func (h *Handler) StartTracking(c *gin.Context) {
	if err := h.ctl.Start(context.WithoutCancel(c.Request.Context())); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.ctl.State()})
}

// StopTracking stops location updates
func (h *Handler) StopTracking(c *gin.Context) {
	if err := h.ctl.Stop(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.ctl.State()})
}

// TogglePermission prompts for authorization when undetermined, otherwise it
// hands off to settings
func (h *Handler) TogglePermission(c *gin.Context) {
	action := permission.ToggleAction(h.ctl.Permission())
	if err := h.ctl.TogglePermission(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"action":     action,
		"permission": h.ctl.Permission(),
	})
}

// GetRoute returns the saved destination, or 404 when none is set
func (h *Handler) GetRoute(c *gin.Context) {
	d, ok := h.ctl.Route(c.Request.Context())
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no route"})
		return
	}
	c.JSON(http.StatusOK, routeResponse{Destination: d})
}

// PutRoute saves a destination and routes to it once a position is known
func (h *Handler) PutRoute(c *gin.Context) {
	var dest geo.Position
	if err := c.ShouldBindJSON(&dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid destination"})
		return
	}
	if !dest.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "destination out of range"})
		return
	}
	if err := h.ctl.RequestRoute(c.Request.Context(), dest); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, routeResponse{Destination: dest})
}

// DeleteRoute clears the saved destination
func (h *Handler) DeleteRoute(c *gin.Context) {
	if err := h.ctl.ClearRoute(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMarkers returns the recorded position trail
func (h *Handler) GetMarkers(c *gin.Context) {
	c.JSON(http.StatusOK, markersResponse{Markers: h.ctl.Markers(c.Request.Context())})
}

// DeleteMarkers clears the position trail
func (h *Handler) DeleteMarkers(c *gin.Context) {
	if err := h.ctl.ClearMarkers(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// Reset clears the saved route and the position trail
func (h *Handler) Reset(c *gin.Context) {
	if err := h.ctl.Reset(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// parseKinds reads ?kinds=a,b; empty means every kind
func parseKinds(raw string) ([]hub.Kind, bool) {
	if raw == "" {
		return hub.Kinds, true
	}
	var kinds []hub.Kind
	for _, s := range strings.Split(raw, ",") {
		k, ok := hub.ParseKind(strings.TrimSpace(s))
		if !ok {
			return nil, false
		}
		kinds = append(kinds, k)
	}
	return kinds, true
}
