package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bustrack/bus-tracking-backend/internal/models"
)

func TestCreateBus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewBusRepository(mockDB)

	t.Run("Success With Daily Locations", func(t *testing.T) {
		day := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)

		mock.ExpectExec(`INSERT INTO buses`).
			WithArgs(1001, 1, 6.9271, 79.8612, models.BusStatusOnTime, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO bus_daily_locations`).
			WithArgs(1001, day, 6.9271, 79.8612, models.BusStatusOnTime).
			WillReturnResult(sqlmock.NewResult(1, 1))

		bus := &models.Bus{
			BusID:           1001,
			RouteID:         1,
			CurrentLocation: models.Coordinate{Latitude: 6.9271, Longitude: 79.8612},
			Status:          models.BusStatusOnTime,
			LastUpdated:     time.Now(),
			DailyLocations: []models.DailyLocation{
				{
					Date:     day,
					Location: models.Coordinate{Latitude: 6.9271, Longitude: 79.8612},
					Status:   models.BusStatusOnTime,
				},
			},
		}
		err := repo.Create(bus)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Bus ID", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO buses`).
			WithArgs(1001, 1, 0.0, 0.0, models.BusStatusOnTime, sqlmock.AnyArg()).
			WillReturnError(&pq.Error{Code: "23505"})

		bus := &models.Bus{BusID: 1001, RouteID: 1, Status: models.BusStatusOnTime, LastUpdated: time.Now()}
		err := repo.Create(bus)
		assert.ErrorIs(t, err, ErrDuplicate)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetBusByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewBusRepository(mockDB)

	t.Run("Success With History In Insertion Order", func(t *testing.T) {
		now := time.Now()
		day1 := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
		day2 := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT (.+) FROM buses WHERE bus_id`).
			WithArgs(1001).
			WillReturnRows(sqlmock.NewRows([]string{
				"bus_id", "route_id", "latitude", "longitude", "status", "last_updated",
			}).AddRow(1001, 1, 6.9271, 79.8612, "On Time", now))

		mock.ExpectQuery(`SELECT (.+) FROM bus_daily_locations`).
			WithArgs(1001).
			WillReturnRows(sqlmock.NewRows([]string{"recorded_on", "latitude", "longitude", "status"}).
				AddRow(day1, 6.90, 79.85, "On Time").
				AddRow(day2, 7.29, 80.63, "Delayed"))

		bus, err := repo.GetByID(1001)
		require.NoError(t, err)
		assert.Equal(t, 1001, bus.BusID)
		require.Len(t, bus.DailyLocations, 2)
		assert.Equal(t, day1, bus.DailyLocations[0].Date)
		assert.Equal(t, models.BusStatusDelayed, bus.DailyLocations[1].Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM buses WHERE bus_id`).
			WithArgs(9999).
			WillReturnError(sql.ErrNoRows)

		bus, err := repo.GetByID(9999)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, bus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListBuses(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewBusRepository(mockDB)

	t.Run("Filtered By Route", func(t *testing.T) {
		now := time.Now()
		day := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
		routeID := 1

		mock.ExpectQuery(`SELECT (.+) FROM buses`).
			WithArgs(&routeID).
			WillReturnRows(sqlmock.NewRows([]string{
				"bus_id", "route_id", "latitude", "longitude", "status", "last_updated",
			}).
				AddRow(1001, 1, 6.9271, 79.8612, "On Time", now).
				AddRow(1002, 1, 7.2906, 80.6337, "Delayed", now))

		mock.ExpectQuery(`SELECT (.+) FROM bus_daily_locations`).
			WithArgs(&routeID).
			WillReturnRows(sqlmock.NewRows([]string{"bus_id", "recorded_on", "latitude", "longitude", "status"}).
				AddRow(1001, day, 6.90, 79.85, "On Time"))

		buses, err := repo.List(&routeID)
		require.NoError(t, err)
		require.Len(t, buses, 2)
		assert.Len(t, buses[0].DailyLocations, 1)
		assert.Len(t, buses[1].DailyLocations, 0)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty Result Skips History Query", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM buses`).
			WithArgs(nil).
			WillReturnRows(sqlmock.NewRows([]string{
				"bus_id", "route_id", "latitude", "longitude", "status", "last_updated",
			}))

		buses, err := repo.List(nil)
		require.NoError(t, err)
		assert.Len(t, buses, 0)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateBus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewBusRepository(mockDB)

	t.Run("Live Fields", func(t *testing.T) {
		status := "Delayed"

		mock.ExpectExec(`UPDATE buses`).
			WithArgs(status, 1001).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Update(1001, &models.UpdateBusRequest{Status: &status})
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		status := "Delayed"

		mock.ExpectExec(`UPDATE buses`).
			WithArgs(status, 9999).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(9999, &models.UpdateBusRequest{Status: &status})
		assert.ErrorIs(t, err, ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Daily Only Replaces History", func(t *testing.T) {
		day := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT 1 FROM buses`).
			WithArgs(1001).
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
		mock.ExpectExec(`DELETE FROM bus_daily_locations`).
			WithArgs(1001).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO bus_daily_locations`).
			WithArgs(1001, day, 7.29, 80.63, models.BusStatusDelayed).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Update(1001, &models.UpdateBusRequest{
			DailyLocations: []models.DailyLocation{
				{Date: day, Location: models.Coordinate{Latitude: 7.29, Longitude: 80.63}, Status: models.BusStatusDelayed},
			},
		})
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Daily Only Missing Bus", func(t *testing.T) {
		mock.ExpectQuery(`SELECT 1 FROM buses`).
			WithArgs(4242).
			WillReturnError(sql.ErrNoRows)

		err := repo.Update(4242, &models.UpdateBusRequest{
			DailyLocations: []models.DailyLocation{},
		})
		assert.ErrorIs(t, err, ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateBusLocation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewBusRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`UPDATE buses`).
			WithArgs(7.2906, 80.6337, sqlmock.AnyArg(), 1001).
			WillReturnRows(sqlmock.NewRows([]string{
				"bus_id", "route_id", "latitude", "longitude", "status", "last_updated",
			}).AddRow(1001, 1, 7.2906, 80.6337, "On Time", now))

		bus, err := repo.UpdateLocation(1001, 7.2906, 80.6337)
		require.NoError(t, err)
		assert.Equal(t, 7.2906, bus.CurrentLocation.Latitude)
		assert.Equal(t, 80.6337, bus.CurrentLocation.Longitude)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE buses`).
			WithArgs(7.2906, 80.6337, sqlmock.AnyArg(), 9999).
			WillReturnError(sql.ErrNoRows)

		bus, err := repo.UpdateLocation(9999, 7.2906, 80.6337)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, bus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateBusStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewBusRepository(mockDB)

	now := time.Now()

	mock.ExpectQuery(`UPDATE buses`).
		WithArgs(models.BusStatusDelayed, sqlmock.AnyArg(), 1001).
		WillReturnRows(sqlmock.NewRows([]string{
			"bus_id", "route_id", "latitude", "longitude", "status", "last_updated",
		}).AddRow(1001, 1, 6.9271, 79.8612, "Delayed", now))

	bus, err := repo.UpdateStatus(1001, models.BusStatusDelayed)
	require.NoError(t, err)
	assert.Equal(t, models.BusStatusDelayed, bus.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewBusRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM buses`).
			WithArgs(1001).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(1001)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM buses`).
			WithArgs(9999).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(9999)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
