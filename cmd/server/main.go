package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bustrack/bus-tracking-backend/internal/config"
	"github.com/bustrack/bus-tracking-backend/internal/database"
	"github.com/bustrack/bus-tracking-backend/internal/handlers"
	"github.com/bustrack/bus-tracking-backend/internal/metrics"
	"github.com/bustrack/bus-tracking-backend/internal/middleware"
	"github.com/bustrack/bus-tracking-backend/internal/policy"
	"github.com/bustrack/bus-tracking-backend/internal/services"
	"github.com/bustrack/bus-tracking-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting BusTrack backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Schema migrations applied")

	// Initialize services
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	collector := metrics.NewCollector()
	policyTable := policy.Default()

	routeRepo := database.NewRouteRepository(db)
	busRepo := database.NewBusRepository(db)
	tripRepo := database.NewTripRepository(db)
	locationRepo := database.NewLocationRepository(db)
	userRepo := database.NewUserRepository(db)

	authService := services.NewAuthService(userRepo, jwtService, cfg.Security.BcryptCost, cfg.JWT.AccessTokenExpiry, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, collector, logger)
	busHandler := handlers.NewBusHandler(busRepo, locationRepo, collector, logger)
	publicHandler := handlers.NewPublicHandler(routeRepo, tripRepo, locationRepo, collector, logger)
	adminHandler := handlers.NewAdminHandler(routeRepo, busRepo, tripRepo, userRepo, authService, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))
	router.GET("/metrics", gin.WrapH(collector.Handler()))

	api := router.Group("/api/v1")
	{
		// Authentication
		api.POST("/auth/login",
			middleware.LoginRateLimit(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst),
			authHandler.Login,
		)
		api.POST("/auth/refresh", authHandler.Refresh)

		authed := api.Group("/auth", middleware.AuthMiddleware(jwtService, logger))
		{
			authed.GET("/profile", authHandler.Profile)
			authed.POST("/change-password", authHandler.ChangePassword)
		}

		// Public bus read surface with optional day resolution
		api.GET("/buses", busHandler.ListBuses)
		api.GET("/buses/:busId", busHandler.GetBus)
		api.GET("/buses/:busId/location", busHandler.GetBusLocation)
		api.GET("/buses/:busId/status", busHandler.GetBusStatus)

		public := api.Group("/public")
		{
			public.GET("/routes", publicHandler.ListRoutes)
			public.GET("/routes/:routeId", publicHandler.GetRoute)
			public.GET("/routes/:routeId/trips/upcoming", publicHandler.UpcomingTrips)
			public.GET("/trips/active", publicHandler.ActiveTrips)
			public.GET("/trips/:tripId", publicHandler.GetTrip)
			public.GET("/buses/nearby", publicHandler.Nearby)
			public.GET("/buses/:busId/location/latest", publicHandler.LatestLocation)
			public.GET("/buses/:busId/location/history", publicHandler.LocationHistory)
			public.GET("/locations/active", publicHandler.ActiveLocations)
		}

		// Device-facing write surface, gated on the shared API key
		device := api.Group("", middleware.RequireAPIKey(cfg.Device.APIKey))
		{
			device.PATCH("/buses/:busId/location", busHandler.UpdateBusLocation)
			device.PATCH("/buses/:busId/status", busHandler.UpdateBusStatus)
			device.POST("/locations", busHandler.IngestLocation)
		}

		// Admin management surface
		admin := api.Group("/admin", middleware.AuthMiddleware(jwtService, logger))
		{
			routes := admin.Group("", middleware.RequirePermission(policyTable, policy.ActionManageRoutes))
			{
				routes.POST("/routes", adminHandler.CreateRoute)
				routes.PATCH("/routes/:routeId", adminHandler.UpdateRoute)
				routes.DELETE("/routes/:routeId", adminHandler.DeleteRoute)
			}

			buses := admin.Group("", middleware.RequirePermission(policyTable, policy.ActionManageBuses))
			{
				buses.POST("/buses", adminHandler.CreateBus)
				buses.PATCH("/buses/:busId", adminHandler.UpdateBus)
				buses.DELETE("/buses/:busId", adminHandler.DeleteBus)
			}

			trips := admin.Group("", middleware.RequirePermission(policyTable, policy.ActionManageTrips))
			{
				trips.POST("/trips", adminHandler.CreateTrip)
				trips.PATCH("/trips/:tripId", adminHandler.UpdateTrip)
				trips.DELETE("/trips/:tripId", adminHandler.DeleteTrip)
			}

			users := admin.Group("", middleware.RequirePermission(policyTable, policy.ActionManageUsers))
			{
				users.POST("/users", adminHandler.CreateUser)
				users.GET("/users", adminHandler.ListUsers)
				users.DELETE("/users/:userId", adminHandler.DeleteUser)
			}
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}).Info("Request completed")
	}
}

// healthCheckHandler reports service and database health
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database unreachable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}
