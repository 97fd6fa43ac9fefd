package models

import (
	"errors"
	"time"
)

// BusStatus represents the operational status of a bus
type BusStatus string

const (
	BusStatusOnTime  BusStatus = "On Time"
	BusStatusDelayed BusStatus = "Delayed"
)

// ValidBusStatus reports whether s is an accepted bus status value.
func ValidBusStatus(s string) bool {
	return BusStatus(s) == BusStatusOnTime || BusStatus(s) == BusStatusDelayed
}

// Coordinate is a latitude/longitude pair in decimal degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// DailyLocation is one day-bucketed status/position entry for a bus.
// Entries are kept in insertion order; duplicate dates are permitted and
// the resolver returns the first match.
type DailyLocation struct {
	Date     time.Time  `json:"date" db:"recorded_on"`
	Location Coordinate `json:"location"`
	Status   BusStatus  `json:"status" db:"status"`
}

// Bus represents a vehicle with a denormalized live status/position and an
// optional per-day history table. The live fields are updated by the device
// PATCH endpoints and are independent of the location ping stream.
type Bus struct {
	BusID           int             `json:"bus_id" db:"bus_id"`
	RouteID         int             `json:"route_id" db:"route_id"`
	CurrentLocation Coordinate      `json:"current_location"`
	Status          BusStatus       `json:"status" db:"status"`
	LastUpdated     time.Time       `json:"last_updated" db:"last_updated"`
	DailyLocations  []DailyLocation `json:"daily_locations,omitempty"`
}

// BusSnapshot is the resolved (status, location, timestamp) view of a bus,
// either live or as of a specific calendar day.
type BusSnapshot struct {
	BusID           int        `json:"bus_id"`
	RouteID         int        `json:"route_id"`
	Status          BusStatus  `json:"status"`
	CurrentLocation Coordinate `json:"current_location"`
	LastUpdated     time.Time  `json:"last_updated"`
}

// CreateBusRequest represents the request to create a new bus
type CreateBusRequest struct {
	BusID           *int            `json:"bus_id" binding:"required"`
	RouteID         *int            `json:"route_id" binding:"required"`
	CurrentLocation *Coordinate     `json:"current_location,omitempty"`
	Status          *string         `json:"status,omitempty"`
	DailyLocations  []DailyLocation `json:"daily_locations,omitempty"`
}

// UpdateBusRequest represents the request to update an entire bus record
type UpdateBusRequest struct {
	RouteID         *int            `json:"route_id,omitempty"`
	CurrentLocation *Coordinate     `json:"current_location,omitempty"`
	Status          *string         `json:"status,omitempty"`
	DailyLocations  []DailyLocation `json:"daily_locations,omitempty"`
}

// UpdateBusLocationRequest is the device-facing live position update
type UpdateBusLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// UpdateBusStatusRequest is the device-facing live status update
type UpdateBusStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Validate validates the CreateBusRequest
func (req *CreateBusRequest) Validate() error {
	if req.BusID == nil || *req.BusID < 0 {
		return errors.New("bus_id must be a non-negative integer")
	}
	if req.RouteID == nil || *req.RouteID < 0 {
		return errors.New("route_id must be a non-negative integer")
	}
	if req.Status != nil && !ValidBusStatus(*req.Status) {
		return errors.New(`status must be "On Time" or "Delayed"`)
	}
	for _, d := range req.DailyLocations {
		if !ValidBusStatus(string(d.Status)) {
			return errors.New(`daily_locations status must be "On Time" or "Delayed"`)
		}
	}
	return nil
}

// Validate validates the UpdateBusRequest
func (req *UpdateBusRequest) Validate() error {
	if req.RouteID == nil && req.CurrentLocation == nil && req.Status == nil && req.DailyLocations == nil {
		return errors.New("no fields to update")
	}
	if req.RouteID != nil && *req.RouteID < 0 {
		return errors.New("route_id must be a non-negative integer")
	}
	if req.Status != nil && !ValidBusStatus(*req.Status) {
		return errors.New(`status must be "On Time" or "Delayed"`)
	}
	for _, d := range req.DailyLocations {
		if !ValidBusStatus(string(d.Status)) {
			return errors.New(`daily_locations status must be "On Time" or "Delayed"`)
		}
	}
	return nil
}

// Validate validates the UpdateBusStatusRequest
func (req *UpdateBusStatusRequest) Validate() error {
	if !ValidBusStatus(req.Status) {
		return errors.New(`status must be "On Time" or "Delayed"`)
	}
	return nil
}
