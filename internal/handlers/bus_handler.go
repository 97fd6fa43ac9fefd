package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bustrack/bus-tracking-backend/internal/database"
	"github.com/bustrack/bus-tracking-backend/internal/metrics"
	"github.com/bustrack/bus-tracking-backend/internal/models"
	"github.com/bustrack/bus-tracking-backend/internal/services"
)

// BusHandler serves the bus read surface and the device-facing live
// update endpoints
type BusHandler struct {
	busRepo      *database.BusRepository
	locationRepo *database.LocationRepository
	collector    *metrics.Collector
	logger       *logrus.Logger
}

// NewBusHandler creates a new bus handler
func NewBusHandler(busRepo *database.BusRepository, locationRepo *database.LocationRepository, collector *metrics.Collector, logger *logrus.Logger) *BusHandler {
	return &BusHandler{
		busRepo:      busRepo,
		locationRepo: locationRepo,
		collector:    collector,
		logger:       logger,
	}
}

// ListBuses returns resolved bus snapshots, optionally filtered by route
// and resolved against a calendar day
func (h *BusHandler) ListBuses(c *gin.Context) {
	var routeID *int
	if raw := c.Query("route_id"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid route_id"})
			return
		}
		routeID = &value
	}

	target, ok := dateQuery(c)
	if !ok {
		return
	}

	buses, err := h.busRepo.List(routeID)
	if err != nil {
		h.logger.WithError(err).Error("failed to list buses")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	snapshots := make([]models.BusSnapshot, 0, len(buses))
	for i := range buses {
		snapshots = append(snapshots, h.resolve(&buses[i], target))
	}

	c.JSON(http.StatusOK, snapshots)
}

// GetBus returns one resolved bus snapshot
func (h *BusHandler) GetBus(c *gin.Context) {
	busID, ok := intParam(c, "busId")
	if !ok {
		return
	}

	target, ok := dateQuery(c)
	if !ok {
		return
	}

	bus, err := h.busRepo.GetByID(busID)
	if err != nil {
		writeStoreError(c, h.logger, err, "Bus not found", "")
		return
	}

	c.JSON(http.StatusOK, h.resolve(bus, target))
}

// GetBusLocation returns the denormalized live position field, as
// distinct from the bus's ping stream
func (h *BusHandler) GetBusLocation(c *gin.Context) {
	busID, ok := intParam(c, "busId")
	if !ok {
		return
	}

	bus, err := h.busRepo.GetByID(busID)
	if err != nil {
		writeStoreError(c, h.logger, err, "Bus not found", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bus_id":           bus.BusID,
		"current_location": bus.CurrentLocation,
		"last_updated":     bus.LastUpdated,
	})
}

// GetBusStatus returns the live status field
func (h *BusHandler) GetBusStatus(c *gin.Context) {
	busID, ok := intParam(c, "busId")
	if !ok {
		return
	}

	bus, err := h.busRepo.GetByID(busID)
	if err != nil {
		writeStoreError(c, h.logger, err, "Bus not found", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bus_id":       bus.BusID,
		"status":       bus.Status,
		"last_updated": bus.LastUpdated,
	})
}

// UpdateBusLocation is the device-facing live position update
func (h *BusHandler) UpdateBusLocation(c *gin.Context) {
	busID, ok := intParam(c, "busId")
	if !ok {
		return
	}

	var req models.UpdateBusLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "latitude and longitude (numbers) required"})
		return
	}

	bus, err := h.busRepo.UpdateLocation(busID, *req.Latitude, *req.Longitude)
	if err != nil {
		writeStoreError(c, h.logger, err, "Bus not found", "")
		return
	}

	c.JSON(http.StatusOK, bus)
}

// UpdateBusStatus is the device-facing live status update
func (h *BusHandler) UpdateBusStatus(c *gin.Context) {
	busID, ok := intParam(c, "busId")
	if !ok {
		return
	}

	var req models.UpdateBusStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "status is required"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	bus, err := h.busRepo.UpdateStatus(busID, models.BusStatus(req.Status))
	if err != nil {
		writeStoreError(c, h.logger, err, "Bus not found", "")
		return
	}

	c.JSON(http.StatusOK, bus)
}

// IngestLocation appends one device ping to the location stream
func (h *BusHandler) IngestLocation(c *gin.Context) {
	var req models.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "bus_id, latitude and longitude are required"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	loc := &models.Location{
		BusID:      *req.BusID,
		Coordinate: models.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude},
		SpeedKph:   req.SpeedKph,
		HeadingDeg: req.HeadingDeg,
		IsActive:   isActive,
	}
	if err := h.locationRepo.Insert(loc); err != nil {
		h.logger.WithError(err).Error("failed to ingest location")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	h.collector.PingsIngested.Inc()
	c.JSON(http.StatusCreated, loc)
}

func (h *BusHandler) resolve(bus *models.Bus, target *time.Time) models.BusSnapshot {
	snapshot := services.ResolveBusState(bus, target)

	source := "live"
	if target != nil && snapshot.LastUpdated != bus.LastUpdated {
		source = "history"
	}
	h.collector.BusStateResolutions.WithLabelValues(source).Inc()

	return snapshot
}
