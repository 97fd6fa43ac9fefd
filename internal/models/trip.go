package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TripStatus represents the lifecycle state of a trip
type TripStatus string

const (
	TripStatusScheduled TripStatus = "scheduled"
	TripStatusActive    TripStatus = "active"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// ValidTripStatus reports whether s is an accepted trip status value.
// Transitions are driven externally and are not validated against prior state.
func ValidTripStatus(s string) bool {
	switch TripStatus(s) {
	case TripStatusScheduled, TripStatusActive, TripStatusCompleted, TripStatusCancelled:
		return true
	}
	return false
}

// Trip is a journey instance linking a bus to a route over a time window
type Trip struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	RouteID   int        `json:"route_id" db:"route_id"`
	BusID     int        `json:"bus_id" db:"bus_id"`
	StartTime time.Time  `json:"start_time" db:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty" db:"end_time"`
	Status    TripStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateTripRequest represents the request to create a new trip
type CreateTripRequest struct {
	RouteID   *int       `json:"route_id" binding:"required"`
	BusID     *int       `json:"bus_id" binding:"required"`
	StartTime time.Time  `json:"start_time" binding:"required"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Status    *string    `json:"status,omitempty"`
}

// UpdateTripRequest represents the request to patch a trip
type UpdateTripRequest struct {
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Status    *string    `json:"status,omitempty"`
}

// Validate validates the CreateTripRequest
func (req *CreateTripRequest) Validate() error {
	if req.RouteID == nil || *req.RouteID < 0 {
		return errors.New("route_id must be a non-negative integer")
	}
	if req.BusID == nil || *req.BusID < 0 {
		return errors.New("bus_id must be a non-negative integer")
	}
	if req.StartTime.IsZero() {
		return errors.New("start_time is required")
	}
	if req.Status != nil && !ValidTripStatus(*req.Status) {
		return errors.New("status must be scheduled, active, completed, or cancelled")
	}
	return nil
}

// Validate validates the UpdateTripRequest
func (req *UpdateTripRequest) Validate() error {
	if req.StartTime == nil && req.EndTime == nil && req.Status == nil {
		return errors.New("no fields to update")
	}
	if req.Status != nil && !ValidTripStatus(*req.Status) {
		return errors.New("status must be scheduled, active, completed, or cancelled")
	}
	return nil
}
