package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bustrack/bus-tracking-backend/internal/models"
)

// TripRepository handles database operations for trips
type TripRepository struct {
	db DB
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db DB) *TripRepository {
	return &TripRepository{db: db}
}

// Create creates a new trip
func (r *TripRepository) Create(trip *models.Trip) error {
	query := `
		INSERT INTO trips (id, route_id, bus_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		trip.ID, trip.RouteID, trip.BusID,
		trip.StartTime, trip.EndTime, trip.Status,
	).Scan(&trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		return translateError(err)
	}

	return nil
}

// GetByID retrieves a trip by ID
func (r *TripRepository) GetByID(id uuid.UUID) (*models.Trip, error) {
	query := `
		SELECT id, route_id, bus_id, start_time, end_time, status, created_at, updated_at
		FROM trips
		WHERE id = $1
	`

	trip := &models.Trip{}
	err := r.db.QueryRow(query, id).Scan(
		&trip.ID, &trip.RouteID, &trip.BusID,
		&trip.StartTime, &trip.EndTime, &trip.Status,
		&trip.CreatedAt, &trip.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	return trip, nil
}

// UpcomingByRoute retrieves scheduled trips for a route that have not yet
// started, soonest first
func (r *TripRepository) UpcomingByRoute(routeID int, now time.Time) ([]models.Trip, error) {
	query := `
		SELECT id, route_id, bus_id, start_time, end_time, status, created_at, updated_at
		FROM trips
		WHERE route_id = $1 AND status = $2 AND start_time >= $3
		ORDER BY start_time ASC
		LIMIT 50
	`

	return r.queryTrips(query, routeID, models.TripStatusScheduled, now)
}

// Active retrieves trips currently in progress, most recently started first
func (r *TripRepository) Active() ([]models.Trip, error) {
	query := `
		SELECT id, route_id, bus_id, start_time, end_time, status, created_at, updated_at
		FROM trips
		WHERE status = $1
		ORDER BY start_time DESC
		LIMIT 100
	`

	return r.queryTrips(query, models.TripStatusActive)
}

// Update patches a trip's schedule window and status
func (r *TripRepository) Update(id uuid.UUID, req *models.UpdateTripRequest) (*models.Trip, error) {
	updates := []string{}
	args := []interface{}{}
	argCount := 1

	if req.StartTime != nil {
		updates = append(updates, fmt.Sprintf("start_time = $%d", argCount))
		args = append(args, *req.StartTime)
		argCount++
	}

	if req.EndTime != nil {
		updates = append(updates, fmt.Sprintf("end_time = $%d", argCount))
		args = append(args, *req.EndTime)
		argCount++
	}

	if req.Status != nil {
		updates = append(updates, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *req.Status)
		argCount++
	}

	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	updates = append(updates, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE trips
		SET %s
		WHERE id = $%d
		RETURNING id, route_id, bus_id, start_time, end_time, status, created_at, updated_at
	`, strings.Join(updates, ", "), argCount)

	trip := &models.Trip{}
	err := r.db.QueryRow(query, args...).Scan(
		&trip.ID, &trip.RouteID, &trip.BusID,
		&trip.StartTime, &trip.EndTime, &trip.Status,
		&trip.CreatedAt, &trip.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	return trip, nil
}

// Delete deletes a trip
func (r *TripRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *TripRepository) queryTrips(query string, args ...interface{}) ([]models.Trip, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	trips := []models.Trip{}
	for rows.Next() {
		var trip models.Trip
		err := rows.Scan(
			&trip.ID, &trip.RouteID, &trip.BusID,
			&trip.StartTime, &trip.EndTime, &trip.Status,
			&trip.CreatedAt, &trip.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}
