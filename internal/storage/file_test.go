package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-parking/internal/parking"
)

var entry = time.Unix(1700000000, 0).UTC()

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), discardLogger())
	require.NoError(t, err)
	return store
}

func writeStateFile(t *testing.T, store *FileStore, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), name), []byte(content), 0o644))
}

func TestFileStore_LoadMissingFilesIsEmpty(t *testing.T) {
	store := newFileStore(t)

	snapshot, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot.Tickets)
	assert.Empty(t, snapshot.Passes)
	assert.Zero(t, snapshot.Revenue)
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()

	pass := parking.NewMonthlyPass("KA-02", entry)
	want := parking.Snapshot{
		Tickets: []parking.Ticket{
			parking.NewTicket("KA-01", 102, parking.Car, 20, entry),
			parking.NewTicket("TR-09", 312, parking.Truck, 40, entry.Add(time.Hour)),
		},
		Passes:  []parking.MonthlyPass{pass},
		Revenue: 130.5,
	}

	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStore_WritesLineFormat(t *testing.T) {
	store := newFileStore(t)

	err := store.Save(context.Background(), parking.Snapshot{
		Tickets: []parking.Ticket{parking.NewTicket("KA-01", 102, parking.Car, 20, entry)},
		Passes: []parking.MonthlyPass{{
			ID:        "PASS-1700000000-abcdef12",
			VehicleID: "KA-02",
			StartedAt: entry,
			ExpiresAt: entry.Add(parking.PassValidity),
			Active:    true,
		}},
		Revenue: 20,
	})
	require.NoError(t, err)

	tickets, err := os.ReadFile(filepath.Join(store.Dir(), TicketsFile))
	require.NoError(t, err)
	assert.Equal(t, "KA-01,102,20,1700000000,Car\n", string(tickets))

	passes, err := os.ReadFile(filepath.Join(store.Dir(), PassesFile))
	require.NoError(t, err)
	assert.Equal(t, "KA-02,PASS-1700000000-abcdef12,1700000000,1702592000\n", string(passes))

	revenue, err := os.ReadFile(filepath.Join(store.Dir(), RevenueFile))
	require.NoError(t, err)
	assert.Equal(t, "20\n", string(revenue))

	leftovers, err := filepath.Glob(filepath.Join(store.Dir(), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileStore_SkipsMalformedLines(t *testing.T) {
	store := newFileStore(t)
	writeStateFile(t, store, TicketsFile, "KA-01,102,20,1700000000\n"+
		"broken line\n"+
		"KA-03,abc,20,1700000000\n"+
		"\n"+
		"KA-04,103,20,1700000000,Boat\n"+
		"KA-05,104,20,1700000000,car\n")
	writeStateFile(t, store, PassesFile, "KA-02,PASS-1,1700000000,1702592000\nKA-06,PASS-2,oops,1\n")
	writeStateFile(t, store, RevenueFile, "not-a-number\n")

	snapshot, err := store.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshot.Tickets, 2)
	assert.Equal(t, "KA-01", snapshot.Tickets[0].VehicleID)
	assert.Equal(t, parking.VehicleClass(""), snapshot.Tickets[0].Class)
	assert.Equal(t, "TKT-1700000000-102", snapshot.Tickets[0].ID)
	assert.Equal(t, parking.Car, snapshot.Tickets[1].Class)

	require.Len(t, snapshot.Passes, 1)
	assert.Equal(t, "PASS-1", snapshot.Passes[0].ID)
	assert.True(t, snapshot.Passes[0].Active)

	assert.Zero(t, snapshot.Revenue)
}

func TestFileStore_SkipsOversizedLine(t *testing.T) {
	store := newFileStore(t)
	writeStateFile(t, store, TicketsFile, "KA-01,101,10,1700000000,Bike\n"+
		strings.Repeat("X", 70000)+",102,10,1700000000,Bike\n"+
		"KA-02,103,10,1700000000,Bike\n"+
		"KA-03,104,10,1700000000,Bike")

	snapshot, err := store.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshot.Tickets, 3)
	assert.Equal(t, "KA-01", snapshot.Tickets[0].VehicleID)
	assert.Equal(t, "KA-02", snapshot.Tickets[1].VehicleID)
	assert.Equal(t, "KA-03", snapshot.Tickets[2].VehicleID)
}

func TestFileStore_EngineRejectsIDsThatCannotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	layouts := []parking.FloorLayout{{Number: 1, Bikes: 2}}

	lot, err := parking.NewParkingLot(ctx, store, layouts, parking.WithLogger(discardLogger()))
	require.NoError(t, err)

	for _, id := range []string{strings.Repeat("K", 70000), " KA-01"} {
		_, err := lot.Park(ctx, id, parking.Bike)
		require.ErrorIs(t, err, parking.ErrInvalidVehicleID)
	}
	_, err = lot.Park(ctx, "KA-02", parking.Bike)
	require.NoError(t, err)

	reloaded, err := parking.NewParkingLot(ctx, store, layouts, parking.WithLogger(discardLogger()))
	require.NoError(t, err)

	_, ok := reloaded.LookupTicket("KA-02")
	assert.True(t, ok)
	assert.Equal(t, lot.Status(), reloaded.Status())
}

func TestFileStore_SaveFailsWhenDirIsGone(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewFileStore(dir, discardLogger())
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	err = store.Save(context.Background(), parking.Snapshot{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), TicketsFile)
}

func TestFileStore_EngineReloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	layouts := []parking.FloorLayout{
		{Number: 1, Bikes: 1},
		{Number: 2, Cars: 1},
		{Number: 3, Trucks: 1},
	}
	clock := parking.WithClock(func() time.Time { return entry })

	lot, err := parking.NewParkingLot(ctx, store, layouts, clock, parking.WithLogger(discardLogger()))
	require.NoError(t, err)

	parked := map[string]parking.VehicleClass{
		"BK-01": parking.Bike,
		"KA-01": parking.Car,
		"TR-01": parking.Truck,
	}
	wantSlot := map[string]int{"BK-01": 101, "KA-01": 201, "TR-01": 301}
	for v, class := range parked {
		_, err := lot.Park(ctx, v, class)
		require.NoError(t, err)
	}

	reloaded, err := parking.NewParkingLot(ctx, store, layouts, clock, parking.WithLogger(discardLogger()))
	require.NoError(t, err)

	for v := range parked {
		want, ok := lot.LookupTicket(v)
		require.True(t, ok)
		got, ok := reloaded.LookupTicket(v)
		require.True(t, ok, "ticket for %s not restored", v)
		assert.Equal(t, want, got)
		assert.Equal(t, wantSlot[v], got.SlotID)
	}

	assert.Equal(t, lot.Status(), reloaded.Status())
	assert.Zero(t, reloaded.RevenueSummary().TotalRevenue)
}

func TestFileStore_EngineRestoresLegacyTickets(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	writeStateFile(t, store, TicketsFile, "KA-01,101,10,1700000000\n"+
		"KA-02,102,20,1700000000\n"+
		"KA-03,102,20,1700000000\n"+
		"KA-04,999,20,1700000000\n"+
		"KA-05,103,15,1700000000\n")
	writeStateFile(t, store, RevenueFile, "75.5\n")

	layouts := []parking.FloorLayout{{Number: 1, Bikes: 1, Cars: 1, Trucks: 1}}
	lot, err := parking.NewParkingLot(ctx, store, layouts, parking.WithLogger(discardLogger()))
	require.NoError(t, err)

	bike, ok := lot.LookupTicket("KA-01")
	require.True(t, ok)
	assert.Equal(t, parking.Bike, bike.Class)

	car, ok := lot.LookupTicket("KA-02")
	require.True(t, ok)
	assert.Equal(t, parking.Car, car.Class)

	for _, skipped := range []string{"KA-03", "KA-04", "KA-05"} {
		_, ok := lot.LookupTicket(skipped)
		assert.False(t, ok, "%s should have been skipped", skipped)
	}

	summary := lot.RevenueSummary()
	assert.Equal(t, 2, summary.ActiveVehicles)
	assert.Equal(t, 75.5, summary.TotalRevenue)
}
