package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"smart-parking/internal/logging"
	"smart-parking/internal/parking"
)

type Handler struct {
	parkingLot  *parking.InstrumentedParkingLot
	serviceName string
	logger      *slog.Logger
}

func NewHandler(parkingLot *parking.InstrumentedParkingLot, serviceName string, logger *slog.Logger) *Handler {
	return &Handler{
		parkingLot:  parkingLot,
		serviceName: serviceName,
		logger:      logger,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Meta:    extractMeta(r.Context()),
	})
}

func (h *Handler) ParkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ParkVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	class, err := parking.ParseVehicleClass(req.VehicleClass)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "vehicle_class must be one of Bike, Car, Truck")
		return
	}

	result, err := h.parkingLot.Park(ctx, req.VehicleID, class)
	if err != nil {
		var data any
		if errors.Is(err, parking.ErrPersistenceWrite) {
			data = result
		}
		h.writeFailure(w, r, err, data)
		return
	}

	WriteSuccess(ctx, w, "Vehicle parked successfully", result)
}

func (h *Handler) LeaveSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req LeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.VehicleID == "" {
		WriteError(ctx, w, http.StatusBadRequest, "vehicle_id is required")
		return
	}

	result, err := h.parkingLot.Exit(ctx, req.VehicleID, req.PaymentMethod)
	resp := ExitResponse{ExitResult: result}
	if result.Payment != nil {
		resp.AmountDisplay = parking.FormatAmount(result.Payment.Amount)
	}
	if err != nil {
		var data any
		if errors.Is(err, parking.ErrPersistenceWrite) {
			data = resp
		}
		h.writeFailure(w, r, err, data)
		return
	}

	message := "Vehicle exited successfully"
	if result.PassHolder {
		message = "Monthly pass holder - no charges"
	}
	WriteSuccess(ctx, w, message, resp)
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	WriteSuccess(ctx, w, "", h.parkingLot.GetStatus(ctx))
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vehicleID := chi.URLParam(r, "vehicle")

	ticket, ok := h.parkingLot.GetTicket(ctx, vehicleID)
	if !ok {
		WriteError(ctx, w, http.StatusNotFound, "No active ticket found for this vehicle")
		return
	}

	WriteSuccess(ctx, w, "", ticket)
}

func (h *Handler) PurchasePass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req PassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	purchase, err := h.parkingLot.PurchasePass(ctx, req.VehicleID)
	if err != nil {
		var data any
		switch {
		case errors.Is(err, parking.ErrPersistenceWrite):
			data = purchase
		case errors.Is(err, parking.ErrAlreadyValidPass):
			data = parking.PassStatus{Pass: purchase.Pass, Valid: true}
		}
		h.writeFailure(w, r, err, data)
		return
	}

	WriteSuccess(ctx, w, "Monthly pass purchased successfully", purchase)
}

func (h *Handler) GetPass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vehicleID := chi.URLParam(r, "vehicle")

	status, ok := h.parkingLot.GetPass(ctx, vehicleID)
	if !ok {
		WriteError(ctx, w, http.StatusNotFound, "No monthly pass found for this vehicle")
		return
	}

	WriteSuccess(ctx, w, "", status)
}

func (h *Handler) GetRevenue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary := h.parkingLot.GetRevenue(ctx)
	WriteSuccess(ctx, w, "", RevenueResponse{
		RevenueSummary: summary,
		TotalDisplay:   parking.FormatAmount(summary.TotalRevenue),
	})
}

func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error, data any) {
	ctx := r.Context()
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.From(ctx, h.logger).Error("parking operation failed",
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	WriteErrorData(ctx, w, status, err.Error(), data)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, parking.ErrPersistenceWrite):
		return http.StatusServiceUnavailable
	case errors.Is(err, parking.ErrInvalidVehicleClass), errors.Is(err, parking.ErrInvalidVehicleID):
		return http.StatusBadRequest
	case errors.Is(err, parking.ErrNoActiveTicket):
		return http.StatusNotFound
	case errors.Is(err, parking.ErrSlotUnavailable),
		errors.Is(err, parking.ErrVehicleAlreadyParked),
		errors.Is(err, parking.ErrAlreadyValidPass):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
