package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-coastal-alerts/internal/broadcast"
	"github.com/mr1hm/go-coastal-alerts/internal/directory"
	"github.com/mr1hm/go-coastal-alerts/internal/engine"
	"github.com/mr1hm/go-coastal-alerts/internal/models"
	"github.com/mr1hm/go-coastal-alerts/internal/repository"
)

type Handler struct {
	engine      *engine.Engine
	directory   *directory.Directory
	broadcaster *broadcast.Broadcaster
}

func NewHandler(e *engine.Engine, dir *directory.Directory, b *broadcast.Broadcaster) *Handler {
	return &Handler{
		engine:      e,
		directory:   dir,
		broadcaster: b,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/api/events/measurement", h.ingestMeasurement)
	r.POST("/api/events/anomaly", h.ingestAnomaly)
	r.GET("/api/alerts", h.getAlerts)
	r.GET("/api/alerts/stream", h.streamAlerts)
	r.GET("/api/alerts/:id", h.getAlert)
	r.GET("/api/alerts/:id/log", h.getNotificationLog)
	r.POST("/api/alerts/:id/deactivate", h.deactivateAlert)
	r.GET("/api/stakeholders", h.getStakeholders)
	r.POST("/api/stakeholders", h.registerStakeholder)
	r.GET("/health", h.health)
}

func (h *Handler) ingestMeasurement(c *gin.Context) {
	var m models.Measurement
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid measurement payload"})
		return
	}
	if m.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "measurement_type is required"})
		return
	}
	if !validCoordinates(m.Latitude, m.Longitude) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}

	a, err := h.engine.ProcessMeasurement(c.Request.Context(), m)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process measurement"})
		return
	}
	if a == nil {
		// Below threshold: accepted, no alert produced.
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) ingestAnomaly(c *gin.Context) {
	var an models.Anomaly
	if err := c.ShouldBindJSON(&an); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid anomaly payload"})
		return
	}
	if an.Kind == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "anomaly_type is required"})
		return
	}
	if !validCoordinates(an.Latitude, an.Longitude) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}

	a, err := h.engine.ProcessAnomaly(c.Request.Context(), an)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process anomaly"})
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) getAlerts(c *gin.Context) {
	var filter repository.AlertFilter

	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr != "" || lonStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lon, errLon := strconv.ParseFloat(lonStr, 64)
		if errLat != nil || errLon != nil || !validCoordinates(lat, lon) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat/lon"})
			return
		}
		radius := 50.0
		if r := c.Query("radius_km"); r != "" {
			parsed, err := strconv.ParseFloat(r, 64)
			if err != nil || parsed <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius_km"})
				return
			}
			radius = parsed
		}
		filter.Center = &models.Coordinates{Latitude: lat, Longitude: lon}
		filter.RadiusKm = radius
	}

	alerts, err := h.engine.ActiveAlerts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch alerts"})
		return
	}

	fc := toGeoJSON(alerts)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) getAlert(c *gin.Context) {
	a, err := h.engine.GetAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch alert"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) getNotificationLog(c *gin.Context) {
	id := c.Param("id")

	a, err := h.engine.GetAlert(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch alert"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}

	entries, err := h.engine.NotificationLog(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch notification log"})
		return
	}
	if entries == nil {
		entries = []models.NotificationLogEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"alert_id": id, "entries": entries})
}

func (h *Handler) deactivateAlert(c *gin.Context) {
	id := c.Param("id")

	found, err := h.engine.Deactivate(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate alert"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "is_active": false})
}

func (h *Handler) getStakeholders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stakeholders": h.directory.List()})
}

func (h *Handler) registerStakeholder(c *gin.Context) {
	var s models.Stakeholder
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stakeholder payload"})
		return
	}
	if s.ID == "" || s.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and name are required"})
		return
	}
	for _, ch := range s.Channels {
		if !ch.Type.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown channel type: " + string(ch.Type)})
			return
		}
		if ch.Target == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "channel target is required"})
			return
		}
	}
	for _, area := range s.GeographicAreas {
		if !validCoordinates(area.Latitude, area.Longitude) || area.RadiusKm <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid geographic area"})
			return
		}
	}

	h.directory.Register(s)
	c.JSON(http.StatusCreated, s)
}

// streamAlerts pushes newly created alerts over SSE until the client
// disconnects.
func (h *Handler) streamAlerts(c *gin.Context) {
	id, events := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	for {
		select {
		case a, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent("alert", a)
			c.Writer.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func validCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
