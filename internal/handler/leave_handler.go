package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/graceworks/shelterops/internal/leave"
	"github.com/graceworks/shelterops/internal/middleware"
	"github.com/graceworks/shelterops/internal/model"
)

// LeaveService is the slice of the leave service this handler needs.
type LeaveService interface {
	Submit(ctx context.Context, resident model.ResidentIdentity, in leave.SubmitInput) (*model.LeaveRequest, error)
	Approve(ctx context.Context, staff model.StaffIdentity, id int64, note string) (*model.LeaveRequest, error)
	Deny(ctx context.Context, staff model.StaffIdentity, id int64, note string) (*model.LeaveRequest, error)
	CheckIn(ctx context.Context, staff model.StaffIdentity, id int64) (*model.LeaveRequest, error)
	Pending(ctx context.Context, shelter string) ([]*model.LeaveRequest, error)
	AwayNow(ctx context.Context, shelter string) ([]*model.LeaveRequest, error)
	Overdue(ctx context.Context, shelter string) ([]*model.LeaveRequest, error)
}

// LeaveHandler exposes the leave request workflow: residents submit,
// staff review.
type LeaveHandler struct {
	service LeaveService
	// recordDecision feeds the decision counter; never nil.
	recordDecision func(decision string)
}

// NewLeaveHandler creates a LeaveHandler.
func NewLeaveHandler(service LeaveService, recordDecision func(decision string)) *LeaveHandler {
	if recordDecision == nil {
		recordDecision = func(string) {}
	}
	return &LeaveHandler{service: service, recordDecision: recordDecision}
}

type submitLeaveRequest struct {
	Destination string `json:"destination"`
	Reason      string `json:"reason"`
	Notes       string `json:"notes"`
	LeaveAt     string `json:"leave_at"`
	ReturnAt    string `json:"return_at"`
	Agreement   bool   `json:"agreement"`
}

// Submit handles POST /api/resident/leave.
func (h *LeaveHandler) Submit(w http.ResponseWriter, r *http.Request) {
	resident, err := middleware.ResidentFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req submitLeaveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	request, err := h.service.Submit(r.Context(), resident, leave.SubmitInput{
		Destination: req.Destination,
		Reason:      req.Reason,
		Notes:       req.Notes,
		LeaveAt:     req.LeaveAt,
		ReturnAt:    req.ReturnAt,
		Agreement:   req.Agreement,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveResponse(request))
}

// Pending handles GET /api/staff/leave/pending.
func (h *LeaveHandler) Pending(w http.ResponseWriter, r *http.Request) {
	h.listFor(w, r, h.service.Pending)
}

// AwayNow handles GET /api/staff/leave/away-now.
func (h *LeaveHandler) AwayNow(w http.ResponseWriter, r *http.Request) {
	h.listFor(w, r, h.service.AwayNow)
}

// Overdue handles GET /api/staff/leave/overdue.
func (h *LeaveHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	h.listFor(w, r, h.service.Overdue)
}

func (h *LeaveHandler) listFor(w http.ResponseWriter, r *http.Request, list func(context.Context, string) ([]*model.LeaveRequest, error)) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	requests, err := list(r.Context(), staff.Shelter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveResponses(requests))
}

type leaveDecisionRequest struct {
	Note string `json:"note"`
}

// Approve handles POST /api/staff/leave/{id}/approve.
func (h *LeaveHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "approve", h.service.Approve)
}

// Deny handles POST /api/staff/leave/{id}/deny.
func (h *LeaveHandler) Deny(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "deny", h.service.Deny)
}

func (h *LeaveHandler) decide(w http.ResponseWriter, r *http.Request, decision string, apply func(context.Context, model.StaffIdentity, int64, string) (*model.LeaveRequest, error)) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req leaveDecisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	request, err := apply(r.Context(), staff, id, req.Note)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.recordDecision(decision)
	writeJSON(w, http.StatusOK, toLeaveResponse(request))
}

// CheckIn handles POST /api/staff/leave/{id}/check-in.
func (h *LeaveHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	request, err := h.service.CheckIn(r.Context(), staff, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.recordDecision("check_in")
	writeJSON(w, http.StatusOK, toLeaveResponse(request))
}

// parseIDParam reads the {id} route parameter. On a malformed id it
// writes a 400 and reports false.
func parseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("The id in the URL is not a valid number."))
		return 0, false
	}
	return id, true
}
