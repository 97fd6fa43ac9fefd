package database

import (
	"fmt"

	"github.com/bustrack/bus-tracking-backend/internal/geo"
	"github.com/bustrack/bus-tracking-backend/internal/models"
)

const (
	// HistoryLimitDefault is applied when the client doesn't ask for a limit.
	HistoryLimitDefault = 50
	// HistoryLimitMax caps the history page size.
	HistoryLimitMax = 500
	// NearbyLimit caps bounding-box query results.
	NearbyLimit = 200
	// ActiveLimit caps the active-buses listing.
	ActiveLimit = 500
)

// LocationRepository handles the append-only location ping stream
type LocationRepository struct {
	db DB
}

// NewLocationRepository creates a new LocationRepository
func NewLocationRepository(db DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Insert appends one ping to the stream
func (r *LocationRepository) Insert(loc *models.Location) error {
	query := `
		INSERT INTO locations (bus_id, latitude, longitude, speed_kph, heading_deg, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, recorded_at
	`

	err := r.db.QueryRow(
		query,
		loc.BusID, loc.Coordinate.Latitude, loc.Coordinate.Longitude,
		loc.SpeedKph, loc.HeadingDeg, loc.IsActive,
	).Scan(&loc.ID, &loc.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}

	return nil
}

// LatestByBus returns the most recent ping for a bus, or ErrNotFound if
// the bus has never reported
func (r *LocationRepository) LatestByBus(busID int) (*models.Location, error) {
	query := `
		SELECT id, bus_id, latitude, longitude, speed_kph, heading_deg, is_active, recorded_at
		FROM locations
		WHERE bus_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	loc := &models.Location{}
	err := r.db.QueryRow(query, busID).Scan(
		&loc.ID, &loc.BusID,
		&loc.Coordinate.Latitude, &loc.Coordinate.Longitude,
		&loc.SpeedKph, &loc.HeadingDeg, &loc.IsActive, &loc.Timestamp,
	)
	if err != nil {
		return nil, translateError(err)
	}

	return loc, nil
}

// HistoryByBus returns recent pings for a bus, newest first. A limit of
// zero means the default; requests above the cap are clamped.
func (r *LocationRepository) HistoryByBus(busID, limit int) ([]models.Location, error) {
	if limit <= 0 {
		limit = HistoryLimitDefault
	}
	if limit > HistoryLimitMax {
		limit = HistoryLimitMax
	}

	query := `
		SELECT id, bus_id, latitude, longitude, speed_kph, heading_deg, is_active, recorded_at
		FROM locations
		WHERE bus_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	return r.queryLocations(query, busID, limit)
}

// Nearby returns pings falling inside the box, capped at NearbyLimit.
// It is a coarse spatial filter: results are candidates only, with no
// recency filter, so several stale pings from one bus can all match.
func (r *LocationRepository) Nearby(box geo.BoundingBox) ([]models.Location, error) {
	query := `
		SELECT id, bus_id, latitude, longitude, speed_kph, heading_deg, is_active, recorded_at
		FROM locations
		WHERE latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
		LIMIT $5
	`

	return r.queryLocations(query, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, NearbyLimit)
}

// ActiveLocations returns active pings newest first, capped at ActiveLimit
func (r *LocationRepository) ActiveLocations() ([]models.Location, error) {
	query := `
		SELECT id, bus_id, latitude, longitude, speed_kph, heading_deg, is_active, recorded_at
		FROM locations
		WHERE is_active
		ORDER BY recorded_at DESC
		LIMIT $1
	`

	return r.queryLocations(query, ActiveLimit)
}

func (r *LocationRepository) queryLocations(query string, args ...interface{}) ([]models.Location, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	locations := []models.Location{}
	for rows.Next() {
		var loc models.Location
		err := rows.Scan(
			&loc.ID, &loc.BusID,
			&loc.Coordinate.Latitude, &loc.Coordinate.Longitude,
			&loc.SpeedKph, &loc.HeadingDeg, &loc.IsActive, &loc.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}

	return locations, rows.Err()
}
