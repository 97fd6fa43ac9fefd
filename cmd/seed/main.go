package main

import (
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/bustrack/bus-tracking-backend/internal/config"
	"github.com/bustrack/bus-tracking-backend/internal/database"
	"github.com/bustrack/bus-tracking-backend/internal/models"
)

// Seeds a small demo dataset: an admin account, one route, one bus with
// a day of history, and a trip scheduled an hour out. Safe to run more
// than once; existing records are left alone.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	userRepo := database.NewUserRepository(db)
	routeRepo := database.NewRouteRepository(db)
	busRepo := database.NewBusRepository(db)
	tripRepo := database.NewTripRepository(db)

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), cfg.Security.BcryptCost)
	if err != nil {
		logger.Fatalf("Failed to hash password: %v", err)
	}

	admin := &models.User{
		ID:           uuid.New(),
		Email:        cfg.Admin.Email,
		PasswordHash: string(hash),
		Name:         cfg.Admin.Name,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := userRepo.Create(admin); err != nil && !errors.Is(err, database.ErrDuplicate) {
		logger.Fatalf("Failed to seed admin: %v", err)
	}

	route := &models.Route{RouteID: 1, Name: "Colombo – Kandy"}
	if err := routeRepo.Create(route); err != nil && !errors.Is(err, database.ErrDuplicate) {
		logger.Fatalf("Failed to seed route: %v", err)
	}

	today := time.Now().Truncate(24 * time.Hour)
	bus := &models.Bus{
		BusID:           1001,
		RouteID:         1,
		CurrentLocation: models.Coordinate{Latitude: 6.9271, Longitude: 79.8612},
		Status:          models.BusStatusOnTime,
		LastUpdated:     time.Now(),
		DailyLocations: []models.DailyLocation{
			{
				Date:     today,
				Location: models.Coordinate{Latitude: 6.9271, Longitude: 79.8612},
				Status:   models.BusStatusOnTime,
			},
		},
	}
	if err := busRepo.Create(bus); err != nil && !errors.Is(err, database.ErrDuplicate) {
		logger.Fatalf("Failed to seed bus: %v", err)
	}

	upcoming, err := tripRepo.UpcomingByRoute(1, time.Now())
	if err != nil {
		logger.Fatalf("Failed to check existing trips: %v", err)
	}
	if len(upcoming) == 0 {
		trip := &models.Trip{
			ID:        uuid.New(),
			RouteID:   1,
			BusID:     1001,
			StartTime: time.Now().Add(time.Hour),
			Status:    models.TripStatusScheduled,
		}
		if err := tripRepo.Create(trip); err != nil {
			logger.Fatalf("Failed to seed trip: %v", err)
		}
	}

	logger.Info("Seed data in place: route 1, bus 1001, one scheduled trip")
}
