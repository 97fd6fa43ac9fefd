package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bustrack/bus-tracking-backend/internal/database"
	"github.com/bustrack/bus-tracking-backend/internal/middleware"
	"github.com/bustrack/bus-tracking-backend/internal/models"
	"github.com/bustrack/bus-tracking-backend/internal/services"
)

// AdminHandler serves the role-gated management surface for routes,
// buses, trips and users
type AdminHandler struct {
	routeRepo   *database.RouteRepository
	busRepo     *database.BusRepository
	tripRepo    *database.TripRepository
	userRepo    *database.UserRepository
	authService *services.AuthService
	logger      *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	routeRepo *database.RouteRepository,
	busRepo *database.BusRepository,
	tripRepo *database.TripRepository,
	userRepo *database.UserRepository,
	authService *services.AuthService,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		routeRepo:   routeRepo,
		busRepo:     busRepo,
		tripRepo:    tripRepo,
		userRepo:    userRepo,
		authService: authService,
		logger:      logger,
	}
}

// CreateRoute creates a new route. A duplicate route_id is a conflict;
// the store constraint is the final arbiter under concurrency.
func (h *AdminHandler) CreateRoute(c *gin.Context) {
	var req models.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "route_id and name are required"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if _, err := h.routeRepo.GetByID(*req.RouteID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "Route already exists"})
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	route := &models.Route{RouteID: *req.RouteID, Name: req.Name}
	if err := h.routeRepo.Create(route); err != nil {
		writeStoreError(c, h.logger, err, "", "Route already exists")
		return
	}

	h.logger.WithField("route_id", route.RouteID).Info("route created")
	c.JSON(http.StatusCreated, route)
}

// UpdateRoute renames a route
func (h *AdminHandler) UpdateRoute(c *gin.Context) {
	routeID, ok := intParam(c, "routeId")
	if !ok {
		return
	}

	var req models.UpdateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name is required"})
		return
	}

	if err := h.routeRepo.UpdateName(routeID, req.Name); err != nil {
		writeStoreError(c, h.logger, err, "Route not found", "")
		return
	}

	route, err := h.routeRepo.GetByID(routeID)
	if err != nil {
		writeStoreError(c, h.logger, err, "Route not found", "")
		return
	}

	c.JSON(http.StatusOK, route)
}

// DeleteRoute deletes a route
func (h *AdminHandler) DeleteRoute(c *gin.Context) {
	routeID, ok := intParam(c, "routeId")
	if !ok {
		return
	}

	if err := h.routeRepo.Delete(routeID); err != nil {
		writeStoreError(c, h.logger, err, "Route not found", "")
		return
	}

	h.logger.WithField("route_id", routeID).Info("route deleted")
	c.Status(http.StatusNoContent)
}

// CreateBus creates a new bus. The route must exist and a duplicate
// bus_id is a conflict.
func (h *AdminHandler) CreateBus(c *gin.Context) {
	var req models.CreateBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "bus_id and route_id are required"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if _, err := h.routeRepo.GetByID(*req.RouteID); err != nil {
		writeStoreError(c, h.logger, err, "Route not found", "")
		return
	}

	if _, err := h.busRepo.GetByID(*req.BusID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "Bus already exists"})
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	bus := &models.Bus{
		BusID:          *req.BusID,
		RouteID:        *req.RouteID,
		Status:         models.BusStatusOnTime,
		LastUpdated:    time.Now(),
		DailyLocations: req.DailyLocations,
	}
	if req.CurrentLocation != nil {
		bus.CurrentLocation = *req.CurrentLocation
	}
	if req.Status != nil {
		bus.Status = models.BusStatus(*req.Status)
	}

	if err := h.busRepo.Create(bus); err != nil {
		writeStoreError(c, h.logger, err, "", "Bus already exists")
		return
	}

	h.logger.WithField("bus_id", bus.BusID).Info("bus created")
	c.JSON(http.StatusCreated, bus)
}

// UpdateBus patches a bus record
func (h *AdminHandler) UpdateBus(c *gin.Context) {
	busID, ok := intParam(c, "busId")
	if !ok {
		return
	}

	var req models.UpdateBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if req.RouteID != nil {
		if _, err := h.routeRepo.GetByID(*req.RouteID); err != nil {
			writeStoreError(c, h.logger, err, "Route not found", "")
			return
		}
	}

	if err := h.busRepo.Update(busID, &req); err != nil {
		writeStoreError(c, h.logger, err, "Bus not found", "")
		return
	}

	bus, err := h.busRepo.GetByID(busID)
	if err != nil {
		writeStoreError(c, h.logger, err, "Bus not found", "")
		return
	}

	c.JSON(http.StatusOK, bus)
}

// DeleteBus deletes a bus and its history
func (h *AdminHandler) DeleteBus(c *gin.Context) {
	busID, ok := intParam(c, "busId")
	if !ok {
		return
	}

	if err := h.busRepo.Delete(busID); err != nil {
		writeStoreError(c, h.logger, err, "Bus not found", "")
		return
	}

	h.logger.WithField("bus_id", busID).Info("bus deleted")
	c.Status(http.StatusNoContent)
}

// CreateTrip creates a trip linking an existing bus to an existing route
func (h *AdminHandler) CreateTrip(c *gin.Context) {
	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "route_id, bus_id and start_time are required"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if _, err := h.routeRepo.GetByID(*req.RouteID); err != nil {
		writeStoreError(c, h.logger, err, "Route not found", "")
		return
	}
	if _, err := h.busRepo.GetByID(*req.BusID); err != nil {
		writeStoreError(c, h.logger, err, "Bus not found", "")
		return
	}

	trip := &models.Trip{
		ID:        uuid.New(),
		RouteID:   *req.RouteID,
		BusID:     *req.BusID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    models.TripStatusScheduled,
	}
	if req.Status != nil {
		trip.Status = models.TripStatus(*req.Status)
	}

	if err := h.tripRepo.Create(trip); err != nil {
		writeStoreError(c, h.logger, err, "", "Trip already exists")
		return
	}

	h.logger.WithField("trip_id", trip.ID).Info("trip created")
	c.JSON(http.StatusCreated, trip)
}

// UpdateTrip patches a trip's schedule window and status
func (h *AdminHandler) UpdateTrip(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid trip id"})
		return
	}

	var req models.UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	trip, err := h.tripRepo.Update(tripID, &req)
	if err != nil {
		writeStoreError(c, h.logger, err, "Trip not found", "")
		return
	}

	c.JSON(http.StatusOK, trip)
}

// DeleteTrip deletes a trip
func (h *AdminHandler) DeleteTrip(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid trip id"})
		return
	}

	if err := h.tripRepo.Delete(tripID); err != nil {
		writeStoreError(c, h.logger, err, "Trip not found", "")
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateUser creates an account. A duplicate email is a conflict.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email, password, name and role are required"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user, err := h.authService.CreateUser(&req)
	if err != nil {
		writeStoreError(c, h.logger, err, "", "Email already registered")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("user created")
	c.JSON(http.StatusCreated, user)
}

// ListUsers returns all accounts
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userRepo.List()
	if err != nil {
		h.logger.WithError(err).Error("failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// DeleteUser deletes an account. Callers cannot delete themselves.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User context not found"})
		return
	}
	if userCtx.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot delete your own account"})
		return
	}

	if err := h.userRepo.Delete(userID); err != nil {
		writeStoreError(c, h.logger, err, "User not found", "")
		return
	}

	h.logger.WithField("user_id", userID).Info("user deleted")
	c.Status(http.StatusNoContent)
}
