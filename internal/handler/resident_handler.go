package handler

import (
	"context"
	"net/http"

	"github.com/graceworks/shelterops/internal/middleware"
	"github.com/graceworks/shelterops/internal/model"
	"github.com/graceworks/shelterops/internal/resident"
)

// ResidentDirectoryService is the slice of the resident service the
// directory handler needs.
type ResidentDirectoryService interface {
	Create(ctx context.Context, staff model.StaffIdentity, in resident.CreateInput) (*model.Resident, error)
	List(ctx context.Context, shelter string, includeInactive bool) ([]*model.Resident, error)
	SetActive(ctx context.Context, staff model.StaffIdentity, id int64, active bool) error
}

// ResidentHandler exposes the staff-facing resident directory.
type ResidentHandler struct {
	service ResidentDirectoryService
}

// NewResidentHandler creates a ResidentHandler.
func NewResidentHandler(service ResidentDirectoryService) *ResidentHandler {
	return &ResidentHandler{service: service}
}

// List handles GET /api/staff/residents?show=active|all. The default is
// active residents only.
func (h *ResidentHandler) List(w http.ResponseWriter, r *http.Request) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	includeInactive := r.URL.Query().Get("show") == "all"
	residents, err := h.service.List(r.Context(), staff.Shelter, includeInactive)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResidentResponses(residents))
}

type createResidentRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Create handles POST /api/staff/residents.
func (h *ResidentHandler) Create(w http.ResponseWriter, r *http.Request) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createResidentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), staff, resident.CreateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResidentResponse(created))
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetActive handles POST /api/staff/residents/{id}/set-active.
// Deactivation keeps the row; history stays intact.
func (h *ResidentHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req setActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.SetActive(r.Context(), staff, id, req.Active); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
