package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart-parking/internal/config"
	"smart-parking/internal/logging"
	"smart-parking/internal/parking"
	"smart-parking/internal/server"
	"smart-parking/internal/storage"
)

var (
	mode = flag.String("mode", "", "Mode to run: cli, server, or both (overrides APP_MODE)")
	port = flag.String("port", "", "Port for HTTP server (overrides APP_PORT)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *port != "" {
		cfg.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryProvider, err := parking.NewTelemetryProvider(ctx, parking.TelemetryConfig{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTLPEndpoint,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	logger := logging.Init(cfg.ServiceName, cfg.Environment)
	logging.Debug(ctx, "configuration loaded",
		"mode", cfg.Mode,
		"port", cfg.Port,
		"data_dir", cfg.DataDir,
		"otlp_endpoint", cfg.OTLPEndpoint,
	)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logging.Error(ctx, "failed to open store", "store", cfg.StoreKind, "error", err)
		shutdownTelemetry(telemetryProvider, logger)
		os.Exit(1)
	}
	defer closeStore()

	lot, err := parking.NewParkingLot(ctx, store, cfg.Floors, parking.WithLogger(logger))
	if err != nil {
		logger.Error("failed to build parking lot", "error", err)
		shutdownTelemetry(telemetryProvider, logger)
		os.Exit(1)
	}

	instrumented, err := parking.NewInstrumentedParkingLot(lot, telemetryProvider)
	if err != nil {
		logger.Error("failed to instrument parking lot", "error", err)
		shutdownTelemetry(telemetryProvider, logger)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logging.Info(ctx, "parking lot ready",
		"mode", cfg.Mode,
		"store", cfg.StoreKind,
		"floors", len(cfg.Floors),
		"slots", lot.TotalSlots(),
	)

	switch cfg.Mode {
	case config.ModeCLI:
		runCLI(ctx, cancel, instrumented, telemetryProvider, sigChan, logger)
	case config.ModeServer:
		runServer(ctx, cancel, instrumented, cfg, sigChan, logger)
	case config.ModeBoth:
		runBoth(ctx, cancel, instrumented, telemetryProvider, cfg, sigChan, logger)
	}

	saveState(lot, logger)
	shutdownTelemetry(telemetryProvider, logger)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (parking.Store, func(), error) {
	switch cfg.StoreKind {
	case config.StorePostgres:
		db, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewSQLStore(db, logger)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, closeDB(db, logger), nil
	default:
		store, err := storage.NewFileStore(cfg.DataDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func closeDB(db *sql.DB, logger *slog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}
}

func runCLI(ctx context.Context, cancel context.CancelFunc, lot *parking.InstrumentedParkingLot, telemetryProvider *parking.TelemetryProvider, sigChan chan os.Signal, logger *slog.Logger) {
	go func() {
		<-sigChan
		logger.Info("shutting down")
		cancel()
	}()

	shell := parking.NewShell(lot, telemetryProvider, os.Stdin, os.Stdout)
	shell.Run(ctx)
}

func runServer(ctx context.Context, cancel context.CancelFunc, lot *parking.InstrumentedParkingLot, cfg *config.Config, sigChan chan os.Signal, logger *slog.Logger) {
	srv := server.NewServer(cfg.Port, lot, cfg.ServiceName, logger)

	go func() {
		<-sigChan
		logger.Info("received shutdown signal")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}

		cancel()
	}()

	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
	}
}

func runBoth(ctx context.Context, cancel context.CancelFunc, lot *parking.InstrumentedParkingLot, telemetryProvider *parking.TelemetryProvider, cfg *config.Config, sigChan chan os.Signal, logger *slog.Logger) {
	srv := server.NewServer(cfg.Port, lot, cfg.ServiceName, logger)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	cliDone := make(chan bool, 1)
	go func() {
		shell := parking.NewShell(lot, telemetryProvider, os.Stdin, os.Stdout)
		shell.Run(ctx)
		cliDone <- true
	}()

	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	select {
	case err := <-serverDone:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	case <-cliDone:
		logger.Info("CLI exited")
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
}

func saveState(lot *parking.ParkingLot, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := lot.Save(ctx); err != nil {
		logger.Error("failed to save parking state at shutdown", "error", err)
		return
	}
	logger.Info("parking state saved")
}

func shutdownTelemetry(telemetryProvider *parking.TelemetryProvider, logger *slog.Logger) {
	logger.Info("shutting down telemetry")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down telemetry: %v", err)
	}
}
