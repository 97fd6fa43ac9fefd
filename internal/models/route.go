package models

import (
	"errors"
	"strings"
	"time"
)

// Route represents a bus route identified by a stable numeric route_id
type Route struct {
	RouteID   int       `json:"route_id" db:"route_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateRouteRequest represents the request to create a new route
type CreateRouteRequest struct {
	RouteID *int   `json:"route_id" binding:"required"`
	Name    string `json:"name" binding:"required"`
}

// UpdateRouteRequest represents the request to rename a route.
// Rename is the only mutation allowed once a route is referenced.
type UpdateRouteRequest struct {
	Name string `json:"name" binding:"required"`
}

// Validate validates the CreateRouteRequest
func (req *CreateRouteRequest) Validate() error {
	if req.RouteID == nil || *req.RouteID < 0 {
		return errors.New("route_id must be a non-negative integer")
	}
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}
