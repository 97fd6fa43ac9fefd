package models

import (
	"errors"
	"time"
)

// Location is one immutable position/speed/heading sample from a bus device.
// The stream is append-only; the latest sample per bus is the "current"
// reading and is never reconciled with the denormalized Bus position.
type Location struct {
	ID         int64      `json:"id" db:"id"`
	BusID      int        `json:"bus_id" db:"bus_id"`
	Coordinate Coordinate `json:"coordinate"`
	SpeedKph   float64    `json:"speed_kph" db:"speed_kph"`
	HeadingDeg float64    `json:"heading_deg" db:"heading_deg"`
	IsActive   bool       `json:"is_active" db:"is_active"`
	Timestamp  time.Time  `json:"timestamp" db:"recorded_at"`
}

// CreateLocationRequest represents a device ping ingest request
type CreateLocationRequest struct {
	BusID      *int     `json:"bus_id" binding:"required"`
	Latitude   *float64 `json:"latitude" binding:"required"`
	Longitude  *float64 `json:"longitude" binding:"required"`
	SpeedKph   float64  `json:"speed_kph"`
	HeadingDeg float64  `json:"heading_deg"`
	IsActive   *bool    `json:"is_active,omitempty"`
}

// Validate validates the CreateLocationRequest
func (req *CreateLocationRequest) Validate() error {
	if req.BusID == nil || *req.BusID < 0 {
		return errors.New("bus_id must be a non-negative integer")
	}
	if req.Latitude == nil || req.Longitude == nil {
		return errors.New("latitude and longitude (numbers) required")
	}
	if req.HeadingDeg < 0 || req.HeadingDeg >= 360 {
		return errors.New("heading_deg must be in [0, 360)")
	}
	return nil
}
