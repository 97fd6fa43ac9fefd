package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bustrack/bus-tracking-backend/internal/database"
	"github.com/bustrack/bus-tracking-backend/internal/geo"
	"github.com/bustrack/bus-tracking-backend/internal/metrics"
)

const (
	routePageLimitDefault = 20
	routePageLimitMax     = 100
)

// PublicHandler serves the unauthenticated read surface: routes, trips
// and the location ping stream
type PublicHandler struct {
	routeRepo    *database.RouteRepository
	tripRepo     *database.TripRepository
	locationRepo *database.LocationRepository
	collector    *metrics.Collector
	logger       *logrus.Logger
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(
	routeRepo *database.RouteRepository,
	tripRepo *database.TripRepository,
	locationRepo *database.LocationRepository,
	collector *metrics.Collector,
	logger *logrus.Logger,
) *PublicHandler {
	return &PublicHandler{
		routeRepo:    routeRepo,
		tripRepo:     tripRepo,
		locationRepo: locationRepo,
		collector:    collector,
		logger:       logger,
	}
}

// ListRoutes returns a paginated route listing with a name filter
func (h *PublicHandler) ListRoutes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(routePageLimitDefault)))
	if limit < 1 {
		limit = routePageLimitDefault
	}
	if limit > routePageLimitMax {
		limit = routePageLimitMax
	}
	nameFilter := c.Query("name")

	total, err := h.routeRepo.Count(nameFilter)
	if err != nil {
		h.logger.WithError(err).Error("failed to count routes")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	routes, err := h.routeRepo.List(nameFilter, limit, (page-1)*limit)
	if err != nil {
		h.logger.WithError(err).Error("failed to list routes")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": routes,
		"meta": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// GetRoute returns one route
func (h *PublicHandler) GetRoute(c *gin.Context) {
	routeID, ok := intParam(c, "routeId")
	if !ok {
		return
	}

	route, err := h.routeRepo.GetByID(routeID)
	if err != nil {
		writeStoreError(c, h.logger, err, "Route not found", "")
		return
	}

	c.JSON(http.StatusOK, route)
}

// UpcomingTrips returns scheduled trips for a route that haven't started
func (h *PublicHandler) UpcomingTrips(c *gin.Context) {
	routeID, ok := intParam(c, "routeId")
	if !ok {
		return
	}

	trips, err := h.tripRepo.UpcomingByRoute(routeID, time.Now())
	if err != nil {
		h.logger.WithError(err).Error("failed to list upcoming trips")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, trips)
}

// ActiveTrips returns trips currently in progress
func (h *PublicHandler) ActiveTrips(c *gin.Context) {
	trips, err := h.tripRepo.Active()
	if err != nil {
		h.logger.WithError(err).Error("failed to list active trips")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, trips)
}

// GetTrip returns one trip by UUID
func (h *PublicHandler) GetTrip(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid trip id"})
		return
	}

	trip, err := h.tripRepo.GetByID(tripID)
	if err != nil {
		writeStoreError(c, h.logger, err, "Trip not found", "")
		return
	}

	c.JSON(http.StatusOK, trip)
}

// LatestLocation returns the most recent ping for a bus
func (h *PublicHandler) LatestLocation(c *gin.Context) {
	busID, ok := intParam(c, "busId")
	if !ok {
		return
	}

	loc, err := h.locationRepo.LatestByBus(busID)
	if err != nil {
		writeStoreError(c, h.logger, err, "No location yet", "")
		return
	}

	c.JSON(http.StatusOK, loc)
}

// LocationHistory returns recent pings for a bus, newest first
func (h *PublicHandler) LocationHistory(c *gin.Context) {
	busID, ok := intParam(c, "busId")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	history, err := h.locationRepo.HistoryByBus(busID, limit)
	if err != nil {
		h.logger.WithError(err).Error("failed to load location history")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, history)
}

// Nearby returns raw candidate pings inside a bounding box around the
// given point. No per-bus dedup or recency filter is applied, so
// several pings from one bus can appear.
func (h *PublicHandler) Nearby(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "lat and lng (numbers) required"})
		return
	}

	radiusKm := 1.0
	if raw := c.Query("radiusKm"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "radiusKm must be a positive number"})
			return
		}
		radiusKm = parsed
	}

	results, err := h.locationRepo.Nearby(geo.BoxAround(lat, lng, radiusKm))
	if err != nil {
		h.logger.WithError(err).Error("nearby query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	h.collector.NearbyQueries.Inc()
	c.JSON(http.StatusOK, results)
}

// ActiveLocations returns active pings newest first, without collapsing
// them to one per bus
func (h *PublicHandler) ActiveLocations(c *gin.Context) {
	results, err := h.locationRepo.ActiveLocations()
	if err != nil {
		h.logger.WithError(err).Error("failed to list active locations")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, results)
}
