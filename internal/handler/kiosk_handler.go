package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/graceworks/shelterops/internal/attendance"
	"github.com/graceworks/shelterops/internal/model"
)

// KioskResidentService resolves a resident from their shelter and code
// without opening a session.
type KioskResidentService interface {
	LookupByCode(ctx context.Context, shelter, code string) (*model.Resident, error)
}

// KioskAttendanceService records the attendance event the kiosk submits.
type KioskAttendanceService interface {
	RecordEvent(ctx context.Context, in attendance.RecordInput) (*model.AttendanceEvent, error)
}

// KioskHandler is the shared-tablet check-in/check-out endpoint. It is
// sessionless: every request carries the resident code, and the router
// puts it behind the login-grade rate limit.
type KioskHandler struct {
	residents  KioskResidentService
	attendance KioskAttendanceService
	// recordEventMetric feeds the per-event-type counter; never nil.
	recordEventMetric func(eventType string)
	// recordCodeFailure feeds the failed-code counter; never nil.
	recordCodeFailure func()
}

// NewKioskHandler creates a KioskHandler.
func NewKioskHandler(residents KioskResidentService, attendanceService KioskAttendanceService, recordEventMetric func(eventType string), recordCodeFailure func()) *KioskHandler {
	if recordEventMetric == nil {
		recordEventMetric = func(string) {}
	}
	if recordCodeFailure == nil {
		recordCodeFailure = func() {}
	}
	return &KioskHandler{
		residents:         residents,
		attendance:        attendanceService,
		recordEventMetric: recordEventMetric,
		recordCodeFailure: recordCodeFailure,
	}
}

type kioskAttendanceRequest struct {
	Shelter      string `json:"shelter"`
	Code         string `json:"code"`
	Action       string `json:"action"`
	Note         string `json:"note"`
	ExpectedBack string `json:"expected_back"`
}

type kioskAttendanceResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	EventType string `json:"event_type"`
	EventTime string `json:"event_time"`
}

// RecordAttendance handles POST /api/kiosk/attendance. The event is
// recorded without a staff attribution.
func (h *KioskHandler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req kioskAttendanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resident, err := h.residents.LookupByCode(r.Context(), req.Shelter, req.Code)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeInvalidResidentCode {
			h.recordCodeFailure()
		}
		handleServiceError(w, err)
		return
	}

	event, err := h.attendance.RecordEvent(r.Context(), attendance.RecordInput{
		Shelter:      req.Shelter,
		ResidentID:   resident.ID,
		EventType:    model.AttendanceEventType(req.Action),
		Note:         req.Note,
		ExpectedBack: req.ExpectedBack,
		StaffUserID:  nil,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.recordEventMetric(string(event.EventType))
	writeJSON(w, http.StatusCreated, kioskAttendanceResponse{
		FirstName: resident.FirstName,
		LastName:  resident.LastName,
		EventType: string(event.EventType),
		EventTime: event.EventTime,
	})
}
