package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"smart-parking/internal/parking"
)

const (
	ModeCLI    = "cli"
	ModeServer = "server"
	ModeBoth   = "both"

	StoreFile     = "file"
	StorePostgres = "postgres"
)

type Config struct {
	Mode        string
	Port        string
	Environment string

	StoreKind   string
	DataDir     string
	DatabaseURL string

	Floors []parking.FloorLayout

	ServiceName  string
	OTLPEndpoint string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, applying defaults for unset keys.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	cfg := &Config{
		Mode:         get("APP_MODE", ModeCLI),
		Port:         get("APP_PORT", "8080"),
		Environment:  get("ENVIRONMENT", "development"),
		StoreKind:    get("PARKING_STORE", StoreFile),
		DataDir:      get("PARKING_DATA_DIR", "data"),
		DatabaseURL:  get("DATABASE_URL", ""),
		ServiceName:  get("OTEL_SERVICE_NAME", "smart-parking"),
		OTLPEndpoint: get("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
	}

	if layout := get("PARKING_LAYOUT", ""); layout != "" {
		floors, err := ParseLayout(layout)
		if err != nil {
			return nil, err
		}
		cfg.Floors = floors
	} else {
		n, err := strconv.Atoi(get("PARKING_FLOORS", "3"))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("PARKING_FLOORS must be a positive integer")
		}
		cfg.Floors = parking.DefaultLayout(n)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseLayout reads "bikes/cars/trucks" per floor, floors separated by ';'.
// Floors are numbered from 1 in the order given.
func ParseLayout(s string) ([]parking.FloorLayout, error) {
	var layouts []parking.FloorLayout
	for i, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		counts := strings.Split(part, "/")
		if len(counts) != 3 {
			return nil, fmt.Errorf("PARKING_LAYOUT floor %d: want bikes/cars/trucks, got %q", i+1, part)
		}
		var n [3]int
		for j, c := range counts {
			v, err := strconv.Atoi(strings.TrimSpace(c))
			if err != nil || v < 0 {
				return nil, fmt.Errorf("PARKING_LAYOUT floor %d: invalid count %q", i+1, c)
			}
			n[j] = v
		}
		layouts = append(layouts, parking.FloorLayout{
			Number: len(layouts) + 1,
			Bikes:  n[0],
			Cars:   n[1],
			Trucks: n[2],
		})
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("PARKING_LAYOUT has no floors")
	}
	return layouts, nil
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeCLI, ModeServer, ModeBoth:
	default:
		return fmt.Errorf("invalid mode: %s. Must be cli, server, or both", c.Mode)
	}

	switch c.StoreKind {
	case StoreFile:
		if c.DataDir == "" {
			return fmt.Errorf("PARKING_DATA_DIR is required for the file store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when PARKING_STORE=postgres")
		}
	default:
		return fmt.Errorf("invalid PARKING_STORE: %s. Must be file or postgres", c.StoreKind)
	}

	if c.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}
	return nil
}
