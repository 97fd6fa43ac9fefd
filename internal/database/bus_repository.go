package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/bustrack/bus-tracking-backend/internal/models"
)

// BusRepository handles database operations for buses and their
// day-bucketed location history
type BusRepository struct {
	db DB
}

// NewBusRepository creates a new BusRepository
func NewBusRepository(db DB) *BusRepository {
	return &BusRepository{db: db}
}

// Create creates a new bus together with any initial daily location
// entries. The primary key constraint is the authoritative uniqueness
// guard; a racing insert returns ErrDuplicate.
func (r *BusRepository) Create(bus *models.Bus) error {
	query := `
		INSERT INTO buses (bus_id, route_id, latitude, longitude, status, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(
		query,
		bus.BusID, bus.RouteID,
		bus.CurrentLocation.Latitude, bus.CurrentLocation.Longitude,
		bus.Status, bus.LastUpdated,
	)
	if err != nil {
		return translateError(err)
	}

	for _, day := range bus.DailyLocations {
		if err := r.AppendDailyLocation(bus.BusID, day); err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves a bus by its numeric bus_id, including its daily
// location history in insertion order
func (r *BusRepository) GetByID(busID int) (*models.Bus, error) {
	query := `
		SELECT bus_id, route_id, latitude, longitude, status, last_updated
		FROM buses
		WHERE bus_id = $1
	`

	bus := &models.Bus{}
	err := r.db.QueryRow(query, busID).Scan(
		&bus.BusID, &bus.RouteID,
		&bus.CurrentLocation.Latitude, &bus.CurrentLocation.Longitude,
		&bus.Status, &bus.LastUpdated,
	)
	if err != nil {
		return nil, translateError(err)
	}

	daily, err := r.dailyLocations(busID)
	if err != nil {
		return nil, err
	}
	bus.DailyLocations = daily

	return bus, nil
}

// List retrieves all buses, optionally filtered to a route, with daily
// location history attached. Output follows store iteration order.
func (r *BusRepository) List(routeID *int) ([]models.Bus, error) {
	query := `
		SELECT bus_id, route_id, latitude, longitude, status, last_updated
		FROM buses
		WHERE ($1::integer IS NULL OR route_id = $1)
		ORDER BY bus_id
	`

	rows, err := r.db.Query(query, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list buses: %w", err)
	}
	defer rows.Close()

	buses := []models.Bus{}
	for rows.Next() {
		var bus models.Bus
		err := rows.Scan(
			&bus.BusID, &bus.RouteID,
			&bus.CurrentLocation.Latitude, &bus.CurrentLocation.Longitude,
			&bus.Status, &bus.LastUpdated,
		)
		if err != nil {
			return nil, err
		}
		buses = append(buses, bus)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(buses) == 0 {
		return buses, nil
	}

	// Attach history in one pass rather than a query per bus.
	index := make(map[int]int, len(buses))
	for i, bus := range buses {
		index[bus.BusID] = i
	}

	histQuery := `
		SELECT d.bus_id, d.recorded_on, d.latitude, d.longitude, d.status
		FROM bus_daily_locations d
		JOIN buses b ON b.bus_id = d.bus_id
		WHERE ($1::integer IS NULL OR b.route_id = $1)
		ORDER BY d.id
	`

	histRows, err := r.db.Query(histQuery, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily locations: %w", err)
	}
	defer histRows.Close()

	for histRows.Next() {
		var busID int
		var day models.DailyLocation
		err := histRows.Scan(&busID, &day.Date, &day.Location.Latitude, &day.Location.Longitude, &day.Status)
		if err != nil {
			return nil, err
		}
		if i, ok := index[busID]; ok {
			buses[i].DailyLocations = append(buses[i].DailyLocations, day)
		}
	}

	return buses, histRows.Err()
}

// Update updates a bus record. Daily locations, when provided, replace
// the existing history wholesale.
func (r *BusRepository) Update(busID int, req *models.UpdateBusRequest) error {
	updates := []string{}
	args := []interface{}{}
	argCount := 1

	if req.RouteID != nil {
		updates = append(updates, fmt.Sprintf("route_id = $%d", argCount))
		args = append(args, *req.RouteID)
		argCount++
	}

	if req.CurrentLocation != nil {
		updates = append(updates, fmt.Sprintf("latitude = $%d", argCount))
		args = append(args, req.CurrentLocation.Latitude)
		argCount++
		updates = append(updates, fmt.Sprintf("longitude = $%d", argCount))
		args = append(args, req.CurrentLocation.Longitude)
		argCount++
	}

	if req.Status != nil {
		updates = append(updates, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *req.Status)
		argCount++
	}

	if len(updates) == 0 && req.DailyLocations == nil {
		return fmt.Errorf("no fields to update")
	}

	if len(updates) > 0 {
		updates = append(updates, "last_updated = NOW()")
		args = append(args, busID)

		query := fmt.Sprintf(`
			UPDATE buses
			SET %s
			WHERE bus_id = $%d
		`, strings.Join(updates, ", "), argCount)

		result, err := r.db.Exec(query, args...)
		if err != nil {
			return fmt.Errorf("failed to update bus: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrNotFound
		}
	} else {
		// Daily-only patch skips the live-field UPDATE, so the not-found
		// check has to happen here before the history is replaced.
		var one int
		if err := r.db.QueryRow(`SELECT 1 FROM buses WHERE bus_id = $1`, busID).Scan(&one); err != nil {
			return translateError(err)
		}
	}

	if req.DailyLocations != nil {
		if err := r.ReplaceDailyLocations(busID, req.DailyLocations); err != nil {
			return err
		}
	}

	return nil
}

// UpdateLocation sets the denormalized live position and bumps
// last_updated. This is independent of the location ping stream.
func (r *BusRepository) UpdateLocation(busID int, lat, lng float64) (*models.Bus, error) {
	query := `
		UPDATE buses
		SET latitude = $1, longitude = $2, last_updated = $3
		WHERE bus_id = $4
		RETURNING bus_id, route_id, latitude, longitude, status, last_updated
	`

	bus := &models.Bus{}
	err := r.db.QueryRow(query, lat, lng, time.Now(), busID).Scan(
		&bus.BusID, &bus.RouteID,
		&bus.CurrentLocation.Latitude, &bus.CurrentLocation.Longitude,
		&bus.Status, &bus.LastUpdated,
	)
	if err != nil {
		return nil, translateError(err)
	}

	return bus, nil
}

// UpdateStatus sets the live status and bumps last_updated
func (r *BusRepository) UpdateStatus(busID int, status models.BusStatus) (*models.Bus, error) {
	query := `
		UPDATE buses
		SET status = $1, last_updated = $2
		WHERE bus_id = $3
		RETURNING bus_id, route_id, latitude, longitude, status, last_updated
	`

	bus := &models.Bus{}
	err := r.db.QueryRow(query, status, time.Now(), busID).Scan(
		&bus.BusID, &bus.RouteID,
		&bus.CurrentLocation.Latitude, &bus.CurrentLocation.Longitude,
		&bus.Status, &bus.LastUpdated,
	)
	if err != nil {
		return nil, translateError(err)
	}

	return bus, nil
}

// AppendDailyLocation appends one day entry. Duplicate dates for a bus
// are permitted; the resolver returns the first match by insertion order.
func (r *BusRepository) AppendDailyLocation(busID int, day models.DailyLocation) error {
	query := `
		INSERT INTO bus_daily_locations (bus_id, recorded_on, latitude, longitude, status)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(query, busID, day.Date, day.Location.Latitude, day.Location.Longitude, day.Status)
	if err != nil {
		return fmt.Errorf("failed to append daily location: %w", err)
	}

	return nil
}

// ReplaceDailyLocations replaces the full history for a bus
func (r *BusRepository) ReplaceDailyLocations(busID int, days []models.DailyLocation) error {
	if _, err := r.db.Exec(`DELETE FROM bus_daily_locations WHERE bus_id = $1`, busID); err != nil {
		return fmt.Errorf("failed to clear daily locations: %w", err)
	}

	for _, day := range days {
		if err := r.AppendDailyLocation(busID, day); err != nil {
			return err
		}
	}

	return nil
}

// Delete deletes a bus; its daily history goes with it
func (r *BusRepository) Delete(busID int) error {
	result, err := r.db.Exec(`DELETE FROM buses WHERE bus_id = $1`, busID)
	if err != nil {
		return fmt.Errorf("failed to delete bus: %w", err)
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

// dailyLocations loads the history for one bus in insertion order
func (r *BusRepository) dailyLocations(busID int) ([]models.DailyLocation, error) {
	query := `
		SELECT recorded_on, latitude, longitude, status
		FROM bus_daily_locations
		WHERE bus_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(query, busID)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily locations: %w", err)
	}
	defer rows.Close()

	days := []models.DailyLocation{}
	for rows.Next() {
		var day models.DailyLocation
		if err := rows.Scan(&day.Date, &day.Location.Latitude, &day.Location.Longitude, &day.Status); err != nil {
			return nil, err
		}
		days = append(days, day)
	}

	return days, rows.Err()
}
