package handler

import (
	"context"
	"net/http"

	"github.com/graceworks/shelterops/internal/middleware"
	"github.com/graceworks/shelterops/internal/model"
	"github.com/graceworks/shelterops/internal/transport"
)

// TransportService is the slice of the transport service this handler
// needs.
type TransportService interface {
	Submit(ctx context.Context, resident model.ResidentIdentity, in transport.SubmitInput) (*model.TransportRequest, error)
	Schedule(ctx context.Context, staff model.StaffIdentity, id int64, driverName, staffNotes string) (*model.TransportRequest, error)
	Complete(ctx context.Context, staff model.StaffIdentity, id int64) (*model.TransportRequest, error)
	Cancel(ctx context.Context, staff model.StaffIdentity, id int64, reason string) (*model.TransportRequest, error)
	Pending(ctx context.Context, shelter string) ([]*model.TransportRequest, error)
	Board(ctx context.Context, shelter string, date string) ([]*model.TransportRequest, error)
}

// TransportHandler exposes the transport request workflow.
type TransportHandler struct {
	service TransportService
}

// NewTransportHandler creates a TransportHandler.
func NewTransportHandler(service TransportService) *TransportHandler {
	return &TransportHandler{service: service}
}

type submitTransportRequest struct {
	NeededAt       string `json:"needed_at"`
	PickupLocation string `json:"pickup_location"`
	Destination    string `json:"destination"`
	Reason         string `json:"reason"`
	Notes          string `json:"notes"`
	CallbackPhone  string `json:"callback_phone"`
}

// Submit handles POST /api/resident/transport.
func (h *TransportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	resident, err := middleware.ResidentFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req submitTransportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	request, err := h.service.Submit(r.Context(), resident, transport.SubmitInput{
		NeededAt:       req.NeededAt,
		PickupLocation: req.PickupLocation,
		Destination:    req.Destination,
		Reason:         req.Reason,
		Notes:          req.Notes,
		CallbackPhone:  req.CallbackPhone,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransportResponse(request))
}

// Pending handles GET /api/staff/transport/pending.
func (h *TransportHandler) Pending(w http.ResponseWriter, r *http.Request) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	requests, err := h.service.Pending(r.Context(), staff.Shelter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransportResponses(requests))
}

// Board handles GET /api/staff/transport/board?date=YYYY-MM-DD. Without
// a date it shows today.
func (h *TransportHandler) Board(w http.ResponseWriter, r *http.Request) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	requests, err := h.service.Board(r.Context(), staff.Shelter, r.URL.Query().Get("date"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransportResponses(requests))
}

type scheduleTransportRequest struct {
	DriverName string `json:"driver_name"`
	StaffNotes string `json:"staff_notes"`
}

// Schedule handles POST /api/staff/transport/{id}/schedule.
func (h *TransportHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req scheduleTransportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	request, err := h.service.Schedule(r.Context(), staff, id, req.DriverName, req.StaffNotes)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransportResponse(request))
}

// Complete handles POST /api/staff/transport/{id}/complete.
func (h *TransportHandler) Complete(w http.ResponseWriter, r *http.Request) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	request, err := h.service.Complete(r.Context(), staff, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransportResponse(request))
}

type cancelTransportRequest struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /api/staff/transport/{id}/cancel.
func (h *TransportHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req cancelTransportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	request, err := h.service.Cancel(r.Context(), staff, id, req.Reason)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransportResponse(request))
}
