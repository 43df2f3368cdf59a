package storage

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"smart-parking/internal/logging"
	"smart-parking/internal/parking"
)

const (
	TicketsFile = "parking_tickets.txt"
	PassesFile  = "monthly_passes.txt"
	RevenueFile = "revenue.txt"

	writeAttempts = 3
	writeInterval = 25 * time.Millisecond
)

// FileStore keeps the snapshot as three comma separated text files:
//
//	parking_tickets.txt  vehicleId,slotId,hourlyRate,entryUnix[,class]
//	monthly_passes.txt   vehicleId,passId,startUnix,expiryUnix
//	revenue.txt          total
type FileStore struct {
	dir    string
	logger *slog.Logger
}

func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Load(ctx context.Context) (parking.Snapshot, error) {
	var snapshot parking.Snapshot

	err := s.readLines(ctx, TicketsFile, func(fields []string) error {
		ticket, err := parseTicket(fields)
		if err != nil {
			return err
		}
		snapshot.Tickets = append(snapshot.Tickets, ticket)
		return nil
	})
	if err != nil {
		return parking.Snapshot{}, err
	}

	err = s.readLines(ctx, PassesFile, func(fields []string) error {
		pass, err := parsePass(fields)
		if err != nil {
			return err
		}
		snapshot.Passes = append(snapshot.Passes, pass)
		return nil
	})
	if err != nil {
		return parking.Snapshot{}, err
	}

	revenue, err := s.readRevenue(ctx)
	if err != nil {
		return parking.Snapshot{}, err
	}
	snapshot.Revenue = revenue

	return snapshot, nil
}

func (s *FileStore) Save(ctx context.Context, snapshot parking.Snapshot) error {
	var tickets bytes.Buffer
	for _, ticket := range snapshot.Tickets {
		tickets.WriteString(formatTicket(ticket))
		tickets.WriteByte('\n')
	}

	var passes bytes.Buffer
	for _, pass := range snapshot.Passes {
		passes.WriteString(formatPass(pass))
		passes.WriteByte('\n')
	}

	revenue := formatFloat(snapshot.Revenue) + "\n"

	if err := s.writeFile(ctx, TicketsFile, tickets.Bytes()); err != nil {
		return err
	}
	if err := s.writeFile(ctx, PassesFile, passes.Bytes()); err != nil {
		return err
	}
	return s.writeFile(ctx, RevenueFile, []byte(revenue))
}

// maxLineLength bounds a single record; longer lines are skipped.
const maxLineLength = 4096

// readLines feeds each non-empty line to parse; lines parse rejects are
// skipped. A missing or unreadable file reads as empty.
func (s *FileStore) readLines(ctx context.Context, name string, parse func([]string) error) error {
	log := logging.From(ctx, s.logger)

	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		log.Error("failed to open state file, treating as empty", "file", name, "error", err)
		return nil
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	lineNo := 0
	for {
		raw, readErr := reader.ReadString('\n')
		if raw != "" {
			lineNo++
			line := strings.TrimSpace(raw)
			switch {
			case len(line) > maxLineLength:
				log.Warn("skipping oversized line", "file", name, "line", lineNo, "length", len(line))
			case line == "":
			default:
				if err := parse(strings.Split(line, ",")); err != nil {
					log.Warn("skipping malformed line", "file", name, "line", lineNo, "error", err)
				}
			}
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				log.Error("failed to read state file", "file", name, "line", lineNo, "error", readErr)
			}
			break
		}
	}
	return ctx.Err()
}

func (s *FileStore) readRevenue(ctx context.Context) (float64, error) {
	var revenue float64
	err := s.readLines(ctx, RevenueFile, func(fields []string) error {
		if len(fields) != 1 {
			return fmt.Errorf("expected 1 field, got %d", len(fields))
		}
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return err
		}
		revenue = v
		return nil
	})
	return revenue, err
}

// writeFile replaces name atomically through a temp file and rename.
func (s *FileStore) writeFile(ctx context.Context, name string, data []byte) error {
	path := filepath.Join(s.dir, name)

	write := func() (struct{}, error) {
		tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
		if err != nil {
			return struct{}{}, err
		}
		defer os.Remove(tmp.Name())

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return struct{}{}, err
		}
		if err := tmp.Close(); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, os.Rename(tmp.Name(), path)
	}

	_, err := backoff.Retry(ctx, write,
		backoff.WithBackOff(backoff.NewConstantBackOff(writeInterval)),
		backoff.WithMaxTries(writeAttempts),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func parseTicket(fields []string) (parking.Ticket, error) {
	if len(fields) != 4 && len(fields) != 5 {
		return parking.Ticket{}, fmt.Errorf("expected 4 or 5 fields, got %d", len(fields))
	}

	slotID, err := strconv.Atoi(fields[1])
	if err != nil {
		return parking.Ticket{}, fmt.Errorf("slot id: %w", err)
	}
	rate, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return parking.Ticket{}, fmt.Errorf("hourly rate: %w", err)
	}
	entry, err := parseUnix(fields[3])
	if err != nil {
		return parking.Ticket{}, fmt.Errorf("entry time: %w", err)
	}

	ticket := parking.Ticket{
		ID:         parking.TicketID(entry, slotID),
		VehicleID:  fields[0],
		SlotID:     slotID,
		HourlyRate: rate,
		EntryTime:  entry,
	}
	if len(fields) == 5 {
		class, err := parking.ParseVehicleClass(fields[4])
		if err != nil {
			return parking.Ticket{}, err
		}
		ticket.Class = class
	}
	return ticket, nil
}

func formatTicket(t parking.Ticket) string {
	return strings.Join([]string{
		t.VehicleID,
		strconv.Itoa(t.SlotID),
		formatFloat(t.HourlyRate),
		strconv.FormatInt(t.EntryTime.Unix(), 10),
		string(t.Class),
	}, ",")
}

func parsePass(fields []string) (parking.MonthlyPass, error) {
	if len(fields) != 4 {
		return parking.MonthlyPass{}, fmt.Errorf("expected 4 fields, got %d", len(fields))
	}

	start, err := parseUnix(fields[2])
	if err != nil {
		return parking.MonthlyPass{}, fmt.Errorf("start time: %w", err)
	}
	expiry, err := parseUnix(fields[3])
	if err != nil {
		return parking.MonthlyPass{}, fmt.Errorf("expiry time: %w", err)
	}

	return parking.MonthlyPass{
		ID:        fields[1],
		VehicleID: fields[0],
		StartedAt: start,
		ExpiresAt: expiry,
		Active:    true,
	}, nil
}

func formatPass(p parking.MonthlyPass) string {
	return strings.Join([]string{
		p.VehicleID,
		p.ID,
		strconv.FormatInt(p.StartedAt.Unix(), 10),
		strconv.FormatInt(p.ExpiresAt.Unix(), 10),
	}, ",")
}

func parseUnix(s string) (time.Time, error) {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).UTC(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
