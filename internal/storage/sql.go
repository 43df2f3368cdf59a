package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"smart-parking/internal/logging"
	"smart-parking/internal/parking"
)

const schema = `
CREATE TABLE IF NOT EXISTS parking_tickets (
	vehicle_id    TEXT PRIMARY KEY,
	ticket_id     TEXT NOT NULL,
	slot_id       INTEGER NOT NULL,
	vehicle_class TEXT NOT NULL,
	hourly_rate   DOUBLE PRECISION NOT NULL,
	entry_time    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS monthly_passes (
	vehicle_id TEXT PRIMARY KEY,
	pass_id    TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE TABLE IF NOT EXISTS parking_revenue (
	id    INTEGER PRIMARY KEY,
	total DOUBLE PRECISION NOT NULL
);`

// SQLStore keeps the snapshot in PostgreSQL. Every Save rewrites the
// whole snapshot in one transaction.
type SQLStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLStore(db *sql.DB, logger *slog.Logger) *SQLStore {
	return &SQLStore{db: db, logger: logger}
}

// OpenPostgres opens a pool through the pgx stdlib driver and pings it.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logging.From(ctx, s.logger).Info("parking schema ready")
	return nil
}

func (s *SQLStore) Load(ctx context.Context) (parking.Snapshot, error) {
	var snapshot parking.Snapshot

	tickets, err := s.loadTickets(ctx)
	if err != nil {
		return parking.Snapshot{}, err
	}
	snapshot.Tickets = tickets

	passes, err := s.loadPasses(ctx)
	if err != nil {
		return parking.Snapshot{}, err
	}
	snapshot.Passes = passes

	err = s.db.QueryRowContext(ctx, `SELECT total FROM parking_revenue WHERE id = 1`).Scan(&snapshot.Revenue)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return parking.Snapshot{}, fmt.Errorf("load revenue: %w", err)
	}

	return snapshot, nil
}

func (s *SQLStore) loadTickets(ctx context.Context) ([]parking.Ticket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vehicle_id, ticket_id, slot_id, vehicle_class, hourly_rate, entry_time
		FROM parking_tickets
		ORDER BY slot_id`)
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}
	defer rows.Close()

	var tickets []parking.Ticket
	for rows.Next() {
		var (
			t     parking.Ticket
			class string
		)
		if err := rows.Scan(&t.VehicleID, &t.ID, &t.SlotID, &class, &t.HourlyRate, &t.EntryTime); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		t.Class = parking.VehicleClass(class)
		t.EntryTime = t.EntryTime.UTC()
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (s *SQLStore) loadPasses(ctx context.Context) ([]parking.MonthlyPass, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vehicle_id, pass_id, started_at, expires_at, active
		FROM monthly_passes
		ORDER BY vehicle_id`)
	if err != nil {
		return nil, fmt.Errorf("load passes: %w", err)
	}
	defer rows.Close()

	var passes []parking.MonthlyPass
	for rows.Next() {
		var p parking.MonthlyPass
		if err := rows.Scan(&p.VehicleID, &p.ID, &p.StartedAt, &p.ExpiresAt, &p.Active); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		p.StartedAt = p.StartedAt.UTC()
		p.ExpiresAt = p.ExpiresAt.UTC()
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

func (s *SQLStore) Save(ctx context.Context, snapshot parking.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM parking_tickets`); err != nil {
		return fmt.Errorf("clear tickets: %w", err)
	}
	for _, t := range snapshot.Tickets {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO parking_tickets (vehicle_id, ticket_id, slot_id, vehicle_class, hourly_rate, entry_time)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			t.VehicleID, t.ID, t.SlotID, string(t.Class), t.HourlyRate, t.EntryTime)
		if err != nil {
			return fmt.Errorf("insert ticket %s: %w", t.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM monthly_passes`); err != nil {
		return fmt.Errorf("clear passes: %w", err)
	}
	for _, p := range snapshot.Passes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO monthly_passes (vehicle_id, pass_id, started_at, expires_at, active)
			VALUES ($1, $2, $3, $4, $5)`,
			p.VehicleID, p.ID, p.StartedAt, p.ExpiresAt, p.Active)
		if err != nil {
			return fmt.Errorf("insert pass %s: %w", p.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO parking_revenue (id, total) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET total = EXCLUDED.total`,
		snapshot.Revenue)
	if err != nil {
		return fmt.Errorf("upsert revenue: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
