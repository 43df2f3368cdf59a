package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"smart-parking/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type ParkVehicleRequest struct {
	VehicleID    string `json:"vehicle_id"`
	VehicleClass string `json:"vehicle_class"`
}

type LeaveRequest struct {
	VehicleID     string `json:"vehicle_id"`
	PaymentMethod string `json:"payment_method"`
}

type PassRequest struct {
	VehicleID string `json:"vehicle_id"`
}

// ExitResponse flattens the exit result with display-ready amounts.
type ExitResponse struct {
	parking.ExitResult
	AmountDisplay string `json:"amount_display,omitempty"`
}

type RevenueResponse struct {
	parking.RevenueSummary
	TotalDisplay string `json:"total_display"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteErrorData(ctx, w, status, message, nil)
}

// WriteErrorData is WriteError with a payload, for failures that still
// carry a result (an unsaved park, the pass that blocked a purchase).
func WriteErrorData(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Success: false,
		Data:    data,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
