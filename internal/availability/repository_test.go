package availability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"evently-booking/internal/shared/apperrors"
)

func setupMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	return NewRepository(gdb), mock
}

func ledgerColumns() []string {
	return []string{"event_id", "event_name", "total_capacity", "available", "reserved", "confirmed", "price", "version", "last_updated"}
}

func ledgerRow(available, reserved, confirmed int, version int64) *sqlmock.Rows {
	total := available + reserved + confirmed
	return sqlmock.NewRows(ledgerColumns()).
		AddRow(int64(1), "Concert", total, available, reserved, confirmed, 25.0, version, time.Now().UTC())
}

func TestReserve(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
			WillReturnRows(ledgerRow(10, 0, 0, 1))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "event_availability" SET .+ WHERE event_id = \$\d+ AND version = \$\d+ AND available >= \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Reserve(context.Background(), 1, 2)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient_capacity", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
			WillReturnRows(ledgerRow(1, 9, 0, 5))

		err := repo.Reserve(context.Background(), 1, 2)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientCapacity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row_missing", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
			WillReturnRows(sqlmock.NewRows(ledgerColumns()))

		err := repo.Reserve(context.Background(), 1, 2)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("version_conflict", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
			WillReturnRows(ledgerRow(10, 0, 0, 1))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "event_availability" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		// Re-read shows capacity was fine, so the miss was a version race.
		mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
			WillReturnRows(ledgerRow(10, 0, 0, 2))

		err := repo.Reserve(context.Background(), 1, 2)
		assert.ErrorIs(t, err, apperrors.ErrVersionConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost_race_to_last_ticket", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
			WillReturnRows(ledgerRow(2, 8, 0, 1))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "event_availability" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		// Another writer took the remaining tickets first.
		mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
			WillReturnRows(ledgerRow(0, 10, 0, 2))

		err := repo.Reserve(context.Background(), 1, 2)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientCapacity)
	})
}

func TestConfirm(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
			WillReturnRows(ledgerRow(7, 3, 0, 2))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "event_availability" SET .+ WHERE event_id = \$\d+ AND version = \$\d+ AND reserved >= \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Confirm(context.Background(), 1, 3)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing_reserved", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
			WillReturnRows(ledgerRow(10, 0, 0, 1))

		err := repo.Confirm(context.Background(), 1, 3)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientCapacity)
	})
}

func TestReleaseReserved(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
		WillReturnRows(ledgerRow(0, 10, 0, 6))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "event_availability" SET .+ WHERE event_id = \$\d+ AND version = \$\d+ AND reserved >= \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReleaseReserved(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseConfirmed(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
		WillReturnRows(ledgerRow(0, 0, 10, 4))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "event_availability" SET .+ WHERE event_id = \$\d+ AND version = \$\d+ AND confirmed >= \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReleaseConfirmed(context.Background(), 1, 1)
	assert.NoError(t, err)
}

func TestUpdateTotal(t *testing.T) {
	t.Run("clamps_available_in_sql", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
			WillReturnRows(ledgerRow(5, 3, 2, 1))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "event_availability" SET "available"=GREATEST\(0, \$\d+ - reserved - confirmed\)`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
			WillReturnRows(ledgerRow(15, 3, 2, 2))

		row, err := repo.UpdateTotal(context.Background(), 1, 20)
		require.NoError(t, err)
		assert.Equal(t, 20, row.TotalCapacity)
		assert.Equal(t, 15, row.Available)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("version_conflict", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
			WillReturnRows(ledgerRow(5, 3, 2, 1))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "event_availability" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
			WillReturnRows(ledgerRow(5, 3, 2, 9))

		_, err := repo.UpdateTotal(context.Background(), 1, 20)
		assert.ErrorIs(t, err, apperrors.ErrVersionConflict)
	})
}

func TestCreate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "event_availability"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		row := &EventAvailability{EventID: 1, EventName: "Concert", TotalCapacity: 10, Available: 10}
		err := repo.Create(context.Background(), row)
		require.NoError(t, err)
		assert.Equal(t, int64(1), row.Version)
		assert.False(t, row.LastUpdated.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "event_availability"`).
			WillReturnError(fmt.Errorf(`duplicate key value violates unique constraint "event_availability_pkey"`))
		mock.ExpectRollback()
		mock.ExpectQuery(`SELECT \* FROM "event_availability" WHERE event_id =`).
			WillReturnRows(ledgerRow(10, 0, 0, 1))

		err := repo.Create(context.Background(), &EventAvailability{EventID: 1, TotalCapacity: 10, Available: 10})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDelete(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "event_availability" WHERE event_id =`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	// Deleting an absent row stays quiet for redelivery tolerance.
	err := repo.Delete(context.Background(), 404)
	assert.NoError(t, err)
}

func TestUpdateCatalogInfo(t *testing.T) {
	t.Run("skips_empty_name", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "event_availability" SET "last_updated"=\$\d+,"price"=\$\d+ WHERE event_id =`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.UpdateCatalogInfo(context.Background(), 1, "", 30.0)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing_row", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "event_availability" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.UpdateCatalogInfo(context.Background(), 1, "New Name", 30.0)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestGetStats(t *testing.T) {
	repo, mock := setupMockRepo(t)

	rows := sqlmock.NewRows([]string{
		"total_events", "total_capacity", "total_available", "total_reserved",
		"total_confirmed", "sold_out_events", "average_utilization",
	}).AddRow(3, 300, 120, 30, 150, 1, 60.0)

	mock.ExpectQuery(`SELECT COUNT\(\*\) as total_events`).WillReturnRows(rows)

	stats, err := repo.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalEvents)
	assert.Equal(t, int64(120), stats.TotalAvailable)
	assert.Equal(t, int64(1), stats.SoldOutEvents)
	assert.InDelta(t, 60.0, stats.AverageUtilization, 0.001)
}
