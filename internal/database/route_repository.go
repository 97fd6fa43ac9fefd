package database

import (
	"fmt"
	"time"

	"github.com/bustrack/bus-tracking-backend/internal/models"
)

// RouteRepository handles database operations for routes
type RouteRepository struct {
	db DB
}

// NewRouteRepository creates a new RouteRepository
func NewRouteRepository(db DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// Create creates a new route. The primary key constraint is the
// authoritative uniqueness guard; a racing insert returns ErrDuplicate.
func (r *RouteRepository) Create(route *models.Route) error {
	query := `
		INSERT INTO routes (route_id, name)
		VALUES ($1, $2)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(query, route.RouteID, route.Name).
		Scan(&route.CreatedAt, &route.UpdatedAt)
	if err != nil {
		return translateError(err)
	}

	return nil
}

// GetByID retrieves a route by its numeric route_id
func (r *RouteRepository) GetByID(routeID int) (*models.Route, error) {
	query := `
		SELECT route_id, name, created_at, updated_at
		FROM routes
		WHERE route_id = $1
	`

	route := &models.Route{}
	err := r.db.QueryRow(query, routeID).Scan(
		&route.RouteID, &route.Name, &route.CreatedAt, &route.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	return route, nil
}

// List retrieves routes whose name matches the filter (case-insensitive
// substring), paginated. An empty filter matches everything.
func (r *RouteRepository) List(nameFilter string, limit, offset int) ([]models.Route, error) {
	query := `
		SELECT route_id, name, created_at, updated_at
		FROM routes
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY route_id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(query, nameFilter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	defer rows.Close()

	routes := []models.Route{}
	for rows.Next() {
		var route models.Route
		if err := rows.Scan(&route.RouteID, &route.Name, &route.CreatedAt, &route.UpdatedAt); err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	return routes, rows.Err()
}

// Count returns the number of routes matching the filter
func (r *RouteRepository) Count(nameFilter string) (int64, error) {
	query := `SELECT COUNT(*) FROM routes WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')`

	var count int64
	if err := r.db.QueryRow(query, nameFilter).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count routes: %w", err)
	}

	return count, nil
}

// UpdateName renames a route. Rename is the only mutation permitted once
// a route is referenced by buses or trips.
func (r *RouteRepository) UpdateName(routeID int, name string) error {
	query := `UPDATE routes SET name = $1, updated_at = $2 WHERE route_id = $3`

	result, err := r.db.Exec(query, name, time.Now(), routeID)
	if err != nil {
		return fmt.Errorf("failed to update route: %w", err)
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

// Delete deletes a route
func (r *RouteRepository) Delete(routeID int) error {
	query := `DELETE FROM routes WHERE route_id = $1`

	result, err := r.db.Exec(query, routeID)
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
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
