package database

import "fmt"

// Migrate creates the schema if it doesn't exist.
func Migrate(db DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	// Routes
	`CREATE TABLE IF NOT EXISTS routes (
		route_id   INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// Buses: denormalized live position/status, updated by device PATCHes
	`CREATE TABLE IF NOT EXISTS buses (
		bus_id       INTEGER PRIMARY KEY,
		route_id     INTEGER NOT NULL,
		latitude     DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude    DOUBLE PRECISION NOT NULL DEFAULT 0,
		status       TEXT NOT NULL DEFAULT 'On Time' CHECK (status IN ('On Time', 'Delayed')),
		last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// Day-bucketed history. Insertion order (id) is load order; duplicate
	// dates per bus are allowed and the resolver takes the first match.
	`CREATE TABLE IF NOT EXISTS bus_daily_locations (
		id          BIGSERIAL PRIMARY KEY,
		bus_id      INTEGER NOT NULL REFERENCES buses(bus_id) ON DELETE CASCADE,
		recorded_on DATE NOT NULL,
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		status      TEXT NOT NULL CHECK (status IN ('On Time', 'Delayed'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bus_daily_locations_bus ON bus_daily_locations(bus_id, id)`,

	// Trips
	`CREATE TABLE IF NOT EXISTS trips (
		id         UUID PRIMARY KEY,
		route_id   INTEGER NOT NULL,
		bus_id     INTEGER NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time   TIMESTAMPTZ,
		status     TEXT NOT NULL DEFAULT 'scheduled'
			CHECK (status IN ('scheduled', 'active', 'completed', 'cancelled')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trips_route_start ON trips(route_id, start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_trips_status ON trips(status)`,

	// Location pings: append-only event stream, independent of buses
	`CREATE TABLE IF NOT EXISTS locations (
		id          BIGSERIAL PRIMARY KEY,
		bus_id      INTEGER NOT NULL,
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		speed_kph   DOUBLE PRECISION NOT NULL DEFAULT 0,
		heading_deg DOUBLE PRECISION NOT NULL DEFAULT 0,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_locations_bus_time ON locations(bus_id, recorded_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_locations_coords ON locations(latitude, longitude)`,

	// Users (auth)
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		email         TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		name          TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'viewer',
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		last_login    TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}
