package services

import (
	"time"

	"github.com/bustrack/bus-tracking-backend/internal/models"
)

// ResolveBusState produces the (status, location, timestamp) view of a bus.
// With no target date it returns the live fields. With a target date it
// scans the daily history in insertion order and returns the first entry
// whose date falls on the same calendar day, falling back to the live
// fields when no day matches. Only the calendar day matters; the
// time-of-day on both sides is ignored.
func ResolveBusState(bus *models.Bus, target *time.Time) models.BusSnapshot {
	snapshot := models.BusSnapshot{
		BusID:           bus.BusID,
		RouteID:         bus.RouteID,
		Status:          bus.Status,
		CurrentLocation: bus.CurrentLocation,
		LastUpdated:     bus.LastUpdated,
	}

	if target == nil {
		return snapshot
	}

	for _, day := range bus.DailyLocations {
		if sameDay(day.Date, *target) {
			snapshot.Status = day.Status
			snapshot.CurrentLocation = day.Location
			snapshot.LastUpdated = day.Date
			return snapshot
		}
	}

	return snapshot
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
