package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-parking/internal/parking"
)

func newSQLStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db, discardLogger()), mock
}

func TestSQLStore_Migrate(t *testing.T) {
	store, mock := newSQLStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS parking_tickets").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Save(t *testing.T) {
	store, mock := newSQLStore(t)
	ticket := parking.NewTicket("KA-01", 102, parking.Car, 20, entry)
	pass := parking.NewMonthlyPass("KA-02", entry)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM parking_tickets").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO parking_tickets").
		WithArgs("KA-01", ticket.ID, 102, "Car", 20.0, entry).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM monthly_passes").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO monthly_passes").
		WithArgs("KA-02", pass.ID, entry, entry.Add(parking.PassValidity), true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO parking_revenue").
		WithArgs(150.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Save(context.Background(), parking.Snapshot{
		Tickets: []parking.Ticket{ticket},
		Passes:  []parking.MonthlyPass{pass},
		Revenue: 150,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_SaveRollsBackOnError(t *testing.T) {
	store, mock := newSQLStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM parking_tickets").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.Save(context.Background(), parking.Snapshot{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear tickets")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Load(t *testing.T) {
	store, mock := newSQLStore(t)
	expiry := entry.Add(parking.PassValidity)

	mock.ExpectQuery("FROM parking_tickets").
		WillReturnRows(sqlmock.NewRows([]string{"vehicle_id", "ticket_id", "slot_id", "vehicle_class", "hourly_rate", "entry_time"}).
			AddRow("KA-01", "TKT-1700000000-102", 102, "Car", 20.0, entry).
			AddRow("TR-09", "TKT-1700000000-112", 112, "Truck", 40.0, entry))
	mock.ExpectQuery("FROM monthly_passes").
		WillReturnRows(sqlmock.NewRows([]string{"vehicle_id", "pass_id", "started_at", "expires_at", "active"}).
			AddRow("KA-02", "PASS-1700000000-abcdef12", entry, expiry, true))
	mock.ExpectQuery("SELECT total FROM parking_revenue").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(60.0))

	snapshot, err := store.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshot.Tickets, 2)
	assert.Equal(t, parking.Ticket{
		ID:         "TKT-1700000000-102",
		VehicleID:  "KA-01",
		SlotID:     102,
		Class:      parking.Car,
		HourlyRate: 20,
		EntryTime:  entry,
	}, snapshot.Tickets[0])
	assert.Equal(t, parking.Truck, snapshot.Tickets[1].Class)

	require.Len(t, snapshot.Passes, 1)
	assert.Equal(t, expiry, snapshot.Passes[0].ExpiresAt)
	assert.True(t, snapshot.Passes[0].IsValid(entry.Add(time.Hour)))

	assert.Equal(t, 60.0, snapshot.Revenue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_LoadWithoutRevenueRow(t *testing.T) {
	store, mock := newSQLStore(t)

	mock.ExpectQuery("FROM parking_tickets").
		WillReturnRows(sqlmock.NewRows([]string{"vehicle_id", "ticket_id", "slot_id", "vehicle_class", "hourly_rate", "entry_time"}))
	mock.ExpectQuery("FROM monthly_passes").
		WillReturnRows(sqlmock.NewRows([]string{"vehicle_id", "pass_id", "started_at", "expires_at", "active"}))
	mock.ExpectQuery("SELECT total FROM parking_revenue").
		WillReturnRows(sqlmock.NewRows([]string{"total"}))

	snapshot, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot.Tickets)
	assert.Empty(t, snapshot.Passes)
	assert.Zero(t, snapshot.Revenue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_LoadQueryError(t *testing.T) {
	store, mock := newSQLStore(t)

	mock.ExpectQuery("FROM parking_tickets").WillReturnError(errors.New("relation does not exist"))

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load tickets")
}
