package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smart-parking/internal/logging"
	"smart-parking/internal/parking"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
	registry   *prometheus.Registry
	logger     *slog.Logger
}

func NewServer(port string, parkingLot *parking.InstrumentedParkingLot, serviceName string, logger *slog.Logger) *Server {
	handler := NewHandler(parkingLot, serviceName, logger)
	registry := newRegistry(parkingLot)

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parking_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	registry.MustRegister(requests, duration)

	r := chi.NewRouter()

	r.Use(RecoveryMiddleware(logger))
	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware(serviceName))
	r.Use(LoggingMiddleware(logger))
	r.Use(MetricsMiddleware(requests, duration))
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}).ServeHTTP)

	r.Route("/api/parking-lot", func(r chi.Router) {
		r.Post("/park", handler.ParkVehicle)
		r.Post("/leave", handler.LeaveSlot)
		r.Get("/status", handler.GetStatus)
		r.Get("/tickets/{vehicle}", handler.GetTicket)
		r.Post("/passes", handler.PurchasePass)
		r.Get("/passes/{vehicle}", handler.GetPass)
		r.Get("/revenue", handler.GetRevenue)
	})

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		registry:   registry,
		logger:     logger,
	}
}

// newRegistry exposes the lot's live state next to the Go runtime metrics.
func newRegistry(parkingLot *parking.InstrumentedParkingLot) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	for _, class := range parking.VehicleClasses() {
		registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "parking_available_slots",
			Help:        "Free slots per vehicle class.",
			ConstLabels: prometheus.Labels{"vehicle_class": string(class)},
		}, func() float64 {
			return float64(parkingLot.AvailableCount(class))
		}))
	}

	registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "parking_active_tickets",
			Help: "Open tickets.",
		}, func() float64 {
			return float64(parkingLot.RevenueSummary().ActiveVehicles)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "parking_revenue_collected",
			Help: "Total fees collected.",
		}, func() float64 {
			return parkingLot.RevenueSummary().TotalRevenue
		}),
	)

	return registry
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	logging.From(context.Background(), s.logger).Info("starting HTTP server", "addr", s.GetAddress())
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.From(ctx, s.logger).Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
