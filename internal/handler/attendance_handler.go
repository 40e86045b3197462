package handler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/graceworks/shelterops/internal/attendance"
	"github.com/graceworks/shelterops/internal/export"
	"github.com/graceworks/shelterops/internal/middleware"
	"github.com/graceworks/shelterops/internal/model"
)

// AttendanceService is the slice of the attendance service this handler
// needs.
type AttendanceService interface {
	Board(ctx context.Context, shelter string) ([]attendance.BoardEntry, error)
	RecordEvent(ctx context.Context, in attendance.RecordInput) (*model.AttendanceEvent, error)
	TripHistory(ctx context.Context, shelter string, residentID int64) (*attendance.ResidentTrips, error)
	ShelterTrips(ctx context.Context, shelter string) ([]attendance.ResidentTrips, error)
}

// AttendanceHandler exposes the attendance board, staff-recorded events,
// trip history, and the spreadsheet export.
type AttendanceHandler struct {
	service AttendanceService
	// recordEventMetric feeds the per-event-type counter; never nil.
	recordEventMetric func(eventType string)
}

// NewAttendanceHandler creates an AttendanceHandler.
func NewAttendanceHandler(service AttendanceService, recordEventMetric func(eventType string)) *AttendanceHandler {
	if recordEventMetric == nil {
		recordEventMetric = func(string) {}
	}
	return &AttendanceHandler{service: service, recordEventMetric: recordEventMetric}
}

// Board handles GET /api/staff/attendance.
func (h *AttendanceHandler) Board(w http.ResponseWriter, r *http.Request) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	entries, err := h.service.Board(r.Context(), staff.Shelter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBoardResponse(entries))
}

type recordEventRequest struct {
	Note         string `json:"note"`
	ExpectedBack string `json:"expected_back"`
}

type recordEventResponse struct {
	EventType string `json:"event_type"`
	EventTime string `json:"event_time"`
}

// CheckIn handles POST /api/staff/attendance/{id}/check-in.
func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.recordEvent(w, r, model.EventCheckIn)
}

// CheckOut handles POST /api/staff/attendance/{id}/check-out.
func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.recordEvent(w, r, model.EventCheckOut)
}

// recordEvent appends one attendance event with the acting staff member
// stamped on it.
func (h *AttendanceHandler) recordEvent(w http.ResponseWriter, r *http.Request, eventType model.AttendanceEventType) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	residentID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req recordEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	staffUserID := staff.StaffUserID
	event, err := h.service.RecordEvent(r.Context(), attendance.RecordInput{
		Shelter:      staff.Shelter,
		ResidentID:   residentID,
		EventType:    eventType,
		Note:         req.Note,
		ExpectedBack: req.ExpectedBack,
		StaffUserID:  &staffUserID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.recordEventMetric(string(event.EventType))
	writeJSON(w, http.StatusCreated, recordEventResponse{
		EventType: string(event.EventType),
		EventTime: event.EventTime,
	})
}

type tripHistoryResponse struct {
	Resident residentResponse `json:"resident"`
	Trips    []tripResponse   `json:"trips"`
}

// TripHistory handles GET /api/staff/residents/{id}/trips.
func (h *AttendanceHandler) TripHistory(w http.ResponseWriter, r *http.Request) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	residentID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	trips, err := h.service.TripHistory(r.Context(), staff.Shelter, residentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tripHistoryResponse{
		Resident: toResidentResponse(&trips.Resident),
		Trips:    toTripResponses(trips.Trips),
	})
}

// Export handles GET /api/staff/attendance/export. It streams the
// current board and trip history as an xlsx workbook.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	board, err := h.service.Board(r.Context(), staff.Shelter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	trips, err := h.service.ShelterTrips(r.Context(), staff.Shelter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// Build the workbook in memory first so an encoding failure can still
	// become a clean 500 instead of a truncated download.
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, staff.Shelter, board, trips); err != nil {
		slog.Error("failed to build attendance workbook", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	filename := export.Filename(staff.Shelter, time.Now())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
