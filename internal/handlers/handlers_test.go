package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bustrack/bus-tracking-backend/internal/database"
	"github.com/bustrack/bus-tracking-backend/internal/geo"
	"github.com/bustrack/bus-tracking-backend/internal/metrics"
	"github.com/bustrack/bus-tracking-backend/internal/middleware"
	"github.com/bustrack/bus-tracking-backend/internal/models"
	"github.com/bustrack/bus-tracking-backend/internal/services"
	"github.com/bustrack/bus-tracking-backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Mock database implementation for testing
type mockDatabase struct {
	db *sql.DB
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Get not implemented in mock")
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Select not implemented in mock")
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fixture struct {
	mock   sqlmock.Sqlmock
	bus    *BusHandler
	public *PublicHandler
	admin  *AdminHandler
	auth   *AuthHandler
	close  func()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mockDB := &mockDatabase{db: db}
	logger := quietLogger()
	collector := metrics.NewCollector()

	routeRepo := database.NewRouteRepository(mockDB)
	busRepo := database.NewBusRepository(mockDB)
	tripRepo := database.NewTripRepository(mockDB)
	locationRepo := database.NewLocationRepository(mockDB)
	userRepo := database.NewUserRepository(mockDB)

	jwtService := jwt.NewService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	authService := services.NewAuthService(userRepo, jwtService, 4, time.Hour, logger)

	return &fixture{
		mock:   mock,
		bus:    NewBusHandler(busRepo, locationRepo, collector, logger),
		public: NewPublicHandler(routeRepo, tripRepo, locationRepo, collector, logger),
		admin:  NewAdminHandler(routeRepo, busRepo, tripRepo, userRepo, authService, logger),
		auth:   NewAuthHandler(authService, collector, logger),
		close:  func() { db.Close() },
	}
}

func busRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"bus_id", "route_id", "latitude", "longitude", "status", "last_updated",
	})
}

func TestListBusesResolvesDate(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	r := gin.New()
	r.GET("/api/v1/buses", f.bus.ListBuses)

	now := time.Now()
	day := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	f.mock.ExpectQuery(`SELECT (.+) FROM buses`).
		WithArgs(nil).
		WillReturnRows(busRows().AddRow(1001, 1, 6.9271, 79.8612, "On Time", now))
	f.mock.ExpectQuery(`SELECT (.+) FROM bus_daily_locations`).
		WithArgs(nil).
		WillReturnRows(sqlmock.NewRows([]string{"bus_id", "recorded_on", "latitude", "longitude", "status"}).
			AddRow(1001, day, 7.2906, 80.6337, "Delayed"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/buses?date=2026-08-26", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var snapshots []models.BusSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshots))
	require.Len(t, snapshots, 1)
	assert.Equal(t, models.BusStatusDelayed, snapshots[0].Status)
	assert.Equal(t, 7.2906, snapshots[0].CurrentLocation.Latitude)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestListBusesRejectsBadDate(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	r := gin.New()
	r.GET("/api/v1/buses", f.bus.ListBuses)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/buses?date=26-08-2026", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "YYYY-MM-DD")
}

func TestGetBusFallsBackToLive(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	r := gin.New()
	r.GET("/api/v1/buses/:busId", f.bus.GetBus)

	now := time.Now()

	f.mock.ExpectQuery(`SELECT (.+) FROM buses WHERE bus_id`).
		WithArgs(1001).
		WillReturnRows(busRows().AddRow(1001, 1, 6.9271, 79.8612, "On Time", now))
	f.mock.ExpectQuery(`SELECT (.+) FROM bus_daily_locations`).
		WithArgs(1001).
		WillReturnRows(sqlmock.NewRows([]string{"recorded_on", "latitude", "longitude", "status"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/buses/1001?date=2026-08-26", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var snap models.BusSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, models.BusStatusOnTime, snap.Status)
	assert.Equal(t, 6.9271, snap.CurrentLocation.Latitude)
}

func TestLatestLocationNoneYet(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	r := gin.New()
	r.GET("/api/v1/public/buses/:busId/location/latest", f.public.LatestLocation)

	f.mock.ExpectQuery(`SELECT (.+) FROM locations WHERE bus_id`).
		WithArgs(1001).
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/buses/1001/location/latest", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No location yet")
}

func TestNearby(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	r := gin.New()
	r.GET("/api/v1/public/buses/nearby", f.public.Nearby)

	t.Run("Missing Coordinates", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/public/buses/nearby?lat=6.9", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Box Passed To Store", func(t *testing.T) {
		box := geo.BoxAround(6.9271, 79.8612, 5)

		f.mock.ExpectQuery(`SELECT (.+) FROM locations WHERE latitude BETWEEN`).
			WithArgs(box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, database.NearbyLimit).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "bus_id", "latitude", "longitude", "speed_kph", "heading_deg", "is_active", "recorded_at",
			}).AddRow(int64(1), 1001, 6.93, 79.86, 40.0, 90.0, true, time.Now()))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/public/buses/nearby?lat=6.9271&lng=79.8612&radiusKm=5", nil)
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var results []models.Location
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
		require.Len(t, results, 1)
		assert.True(t, box.Contains(results[0].Coordinate.Latitude, results[0].Coordinate.Longitude))

		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestListRoutesPagination(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	r := gin.New()
	r.GET("/api/v1/public/routes", f.public.ListRoutes)

	now := time.Now()

	f.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM routes`).
		WithArgs("").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(41))
	f.mock.ExpectQuery(`SELECT (.+) FROM routes`).
		WithArgs("", 20, 20).
		WillReturnRows(sqlmock.NewRows([]string{"route_id", "name", "created_at", "updated_at"}).
			AddRow(21, "Route 21", now, now))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/routes?page=2", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []models.Route `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
			Page  int   `json:"page"`
			Limit int   `json:"limit"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(41), body.Meta.Total)
	assert.Equal(t, 2, body.Meta.Page)
	assert.Equal(t, 20, body.Meta.Limit)
	require.Len(t, body.Data, 1)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateRouteDuplicate(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	r := gin.New()
	r.POST("/api/v1/admin/routes", f.admin.CreateRoute)

	now := time.Now()

	f.mock.ExpectQuery(`SELECT (.+) FROM routes WHERE route_id`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"route_id", "name", "created_at", "updated_at"}).
			AddRow(1, "Colombo – Kandy", now, now))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/routes",
		strings.NewReader(`{"route_id": 1, "name": "Colombo – Kandy"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateRouteConstraintRace(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	r := gin.New()
	r.POST("/api/v1/admin/routes", f.admin.CreateRoute)

	// Pre-check misses but the insert hits the constraint: still a 409.
	f.mock.ExpectQuery(`SELECT (.+) FROM routes WHERE route_id`).
		WithArgs(1).
		WillReturnError(sql.ErrNoRows)
	f.mock.ExpectQuery(`INSERT INTO routes`).
		WithArgs(1, "Colombo – Kandy").
		WillReturnError(&pq.Error{Code: "23505"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/routes",
		strings.NewReader(`{"route_id": 1, "name": "Colombo – Kandy"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateBusEmptyBody(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	r := gin.New()
	r.PATCH("/api/v1/admin/buses/:busId", f.admin.UpdateBus)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/buses/1001", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no fields to update")
}

func TestUpdateBusDailyOnlyMissingBus(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	r := gin.New()
	r.PATCH("/api/v1/admin/buses/:busId", f.admin.UpdateBus)

	f.mock.ExpectQuery(`SELECT 1 FROM buses`).
		WithArgs(4242).
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/buses/4242",
		strings.NewReader(`{"daily_locations": [{"date": "2026-08-27T00:00:00Z", "location": {"latitude": 7.29, "longitude": 80.63}, "status": "Delayed"}]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Bus not found")

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeleteUserSelf(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	userID := uuid.New()

	r := gin.New()
	r.DELETE("/api/v1/admin/users/:userId", func(c *gin.Context) {
		c.Set(middleware.UserContextKey, middleware.UserContext{
			UserID: userID,
			Email:  "admin@bustrack.com",
			Role:   models.RoleAdmin,
		})
	}, f.admin.DeleteUser)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/users/"+userID.String(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "own account")
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	r := gin.New()
	r.POST("/api/v1/auth/login", f.auth.Login)

	f.mock.ExpectQuery(`SELECT (.+) FROM users WHERE email`).
		WithArgs("nobody@bustrack.com").
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email": "nobody@bustrack.com", "password": "wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
}

func TestRefreshToken(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	r := gin.New()
	r.POST("/api/v1/auth/refresh", f.auth.Refresh)

	t.Run("Invalid Token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh",
			strings.NewReader(`{"refresh_token": "not-a-token"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid refresh token")
	})

	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()
		now := time.Now()

		// Same secrets the fixture wires into the auth service.
		issuer := jwt.NewService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
		refreshToken, err := issuer.GenerateRefreshToken(userID, "admin@bustrack.com")
		require.NoError(t, err)

		f.mock.ExpectQuery(`SELECT (.+) FROM users WHERE id`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "email", "password_hash", "name", "role", "is_active",
				"last_login", "created_at", "updated_at",
			}).AddRow(userID, "admin@bustrack.com", "hash", "System Admin", models.RoleAdmin, true, nil, now, now))

		w := httptest.NewRecorder()
		body := fmt.Sprintf(`{"refresh_token": %q}`, refreshToken)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.NotEmpty(t, resp.RefreshToken)

		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestIngestLocation(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	r := gin.New()
	r.POST("/api/v1/locations", f.bus.IngestLocation)

	t.Run("Heading Out Of Range", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/locations",
			strings.NewReader(`{"bus_id": 1001, "latitude": 6.9, "longitude": 79.8, "heading_deg": 360}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Success", func(t *testing.T) {
		f.mock.ExpectQuery(`INSERT INTO locations`).
			WithArgs(1001, 6.9, 79.8, 42.5, 180.0, true).
			WillReturnRows(sqlmock.NewRows([]string{"id", "recorded_at"}).AddRow(int64(1), time.Now()))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/locations",
			strings.NewReader(`{"bus_id": 1001, "latitude": 6.9, "longitude": 79.8, "speed_kph": 42.5, "heading_deg": 180}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var loc models.Location
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loc))
		assert.Equal(t, 1001, loc.BusID)
		assert.True(t, loc.IsActive)

		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}
