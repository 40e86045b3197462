package handler

import (
	"time"

	"github.com/graceworks/shelterops/internal/attendance"
	"github.com/graceworks/shelterops/internal/model"
)

// leaveResponse is the API shape of a leave request.
type leaveResponse struct {
	ID                 int64      `json:"id"`
	Shelter            string     `json:"shelter"`
	ResidentIdentifier string     `json:"resident_identifier"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Destination        string     `json:"destination"`
	Reason             string     `json:"reason"`
	ResidentNotes      string     `json:"resident_notes"`
	LeaveAt            time.Time  `json:"leave_at"`
	ReturnAt           time.Time  `json:"return_at"`
	Status             string     `json:"status"`
	SubmittedAt        time.Time  `json:"submitted_at"`
	DecidedAt          *time.Time `json:"decided_at,omitempty"`
	DecisionNote       string     `json:"decision_note,omitempty"`
	CheckInAt          *time.Time `json:"check_in_at,omitempty"`
}

func toLeaveResponse(request *model.LeaveRequest) leaveResponse {
	return leaveResponse{
		ID:                 request.ID,
		Shelter:            request.Shelter,
		ResidentIdentifier: request.ResidentIdentifier,
		FirstName:          request.FirstName,
		LastName:           request.LastName,
		Destination:        request.Destination,
		Reason:             request.Reason,
		ResidentNotes:      request.ResidentNotes,
		LeaveAt:            request.LeaveAt,
		ReturnAt:           request.ReturnAt,
		Status:             string(request.Status),
		SubmittedAt:        request.SubmittedAt,
		DecidedAt:          request.DecidedAt,
		DecisionNote:       request.DecisionNote,
		CheckInAt:          request.CheckInAt,
	}
}

func toLeaveResponses(requests []*model.LeaveRequest) []leaveResponse {
	out := make([]leaveResponse, len(requests))
	for i, request := range requests {
		out[i] = toLeaveResponse(request)
	}
	return out
}

// transportResponse is the API shape of a transport request.
type transportResponse struct {
	ID                 int64      `json:"id"`
	Shelter            string     `json:"shelter"`
	ResidentIdentifier string     `json:"resident_identifier"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	NeededAt           time.Time  `json:"needed_at"`
	PickupLocation     string     `json:"pickup_location"`
	Destination        string     `json:"destination"`
	Reason             string     `json:"reason"`
	ResidentNotes      string     `json:"resident_notes"`
	CallbackPhone      string     `json:"callback_phone"`
	Status             string     `json:"status"`
	SubmittedAt        time.Time  `json:"submitted_at"`
	ScheduledAt        *time.Time `json:"scheduled_at,omitempty"`
	DriverName         string     `json:"driver_name,omitempty"`
	StaffNotes         string     `json:"staff_notes,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelReason       string     `json:"cancel_reason,omitempty"`
}

func toTransportResponse(request *model.TransportRequest) transportResponse {
	return transportResponse{
		ID:                 request.ID,
		Shelter:            request.Shelter,
		ResidentIdentifier: request.ResidentIdentifier,
		FirstName:          request.FirstName,
		LastName:           request.LastName,
		NeededAt:           request.NeededAt,
		PickupLocation:     request.PickupLocation,
		Destination:        request.Destination,
		Reason:             request.Reason,
		ResidentNotes:      request.ResidentNotes,
		CallbackPhone:      request.CallbackPhone,
		Status:             string(request.Status),
		SubmittedAt:        request.SubmittedAt,
		ScheduledAt:        request.ScheduledAt,
		DriverName:         request.DriverName,
		StaffNotes:         request.StaffNotes,
		CompletedAt:        request.CompletedAt,
		CancelledAt:        request.CancelledAt,
		CancelReason:       request.CancelReason,
	}
}

func toTransportResponses(requests []*model.TransportRequest) []transportResponse {
	out := make([]transportResponse, len(requests))
	for i, request := range requests {
		out[i] = toTransportResponse(request)
	}
	return out
}

// residentResponse is the API shape of a directory row.
type residentResponse struct {
	ID         int64  `json:"id"`
	Shelter    string `json:"shelter"`
	Identifier string `json:"identifier"`
	Code       string `json:"code,omitempty"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	IsActive   bool   `json:"is_active"`
}

func toResidentResponse(resident *model.Resident) residentResponse {
	out := residentResponse{
		ID:         resident.ID,
		Shelter:    resident.Shelter,
		Identifier: resident.Identifier,
		FirstName:  resident.FirstName,
		LastName:   resident.LastName,
		Phone:      resident.Phone,
		IsActive:   resident.IsActive,
	}
	if resident.Code != nil {
		out.Code = *resident.Code
	}
	return out
}

func toResidentResponses(residents []*model.Resident) []residentResponse {
	out := make([]residentResponse, len(residents))
	for i, resident := range residents {
		out[i] = toResidentResponse(resident)
	}
	return out
}

// staffUserResponse is the API shape of a staff account. The password
// hash never leaves the server.
type staffUserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

func toStaffUserResponse(user *model.StaffUser) staffUserResponse {
	return staffUserResponse{
		ID:       user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		IsActive: user.IsActive,
	}
}

func toStaffUserResponses(users []*model.StaffUser) []staffUserResponse {
	out := make([]staffUserResponse, len(users))
	for i, user := range users {
		out[i] = toStaffUserResponse(user)
	}
	return out
}

// boardEntryResponse is one attendance board row.
type boardEntryResponse struct {
	Resident residentResponse `json:"resident"`
	Status   statusResponse   `json:"status"`
}

// statusResponse is the derived presence state.
type statusResponse struct {
	IsOut                    bool       `json:"is_out"`
	LastEventType            string     `json:"last_event_type,omitempty"`
	LastEventTime            *time.Time `json:"last_event_time,omitempty"`
	CheckoutTime             *time.Time `json:"checkout_time,omitempty"`
	ExpectedBackTime         *time.Time `json:"expected_back_time,omitempty"`
	CheckinAfterCheckoutTime *time.Time `json:"checkin_after_checkout_time,omitempty"`
	IsOverdue                bool       `json:"is_overdue"`
}

func toBoardResponse(entries []attendance.BoardEntry) []boardEntryResponse {
	out := make([]boardEntryResponse, len(entries))
	for i, entry := range entries {
		resident := entry.Resident
		out[i] = boardEntryResponse{
			Resident: toResidentResponse(&resident),
			Status: statusResponse{
				IsOut:                    entry.Status.IsOut,
				LastEventType:            string(entry.Status.LastEventType),
				LastEventTime:            entry.Status.LastEventTime,
				CheckoutTime:             entry.Status.CheckoutTime,
				ExpectedBackTime:         entry.Status.ExpectedBackTime,
				CheckinAfterCheckoutTime: entry.Status.CheckinAfterCheckoutTime,
				IsOverdue:                entry.Status.IsOverdue,
			},
		}
	}
	return out
}

// tripResponse is one checkout/return interval.
type tripResponse struct {
	CheckedOutAt   time.Time  `json:"checked_out_at"`
	ExpectedBackAt *time.Time `json:"expected_back_at,omitempty"`
	CheckedInAt    *time.Time `json:"checked_in_at,omitempty"`
	Note           string     `json:"note,omitempty"`
	Late           bool       `json:"late"`
	Open           bool       `json:"open"`
}

func toTripResponses(trips []attendance.Trip) []tripResponse {
	out := make([]tripResponse, len(trips))
	for i, trip := range trips {
		out[i] = tripResponse{
			CheckedOutAt:   trip.CheckedOutAt,
			ExpectedBackAt: trip.ExpectedBackAt,
			CheckedInAt:    trip.CheckedInAt,
			Note:           trip.Note,
			Late:           trip.Late,
			Open:           trip.Open,
		}
	}
	return out
}
