package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/graceworks/shelterops/internal/middleware"
	"github.com/graceworks/shelterops/internal/model"
)

// StaffAuthService is the slice of the staff service this handler needs.
type StaffAuthService interface {
	Login(ctx context.Context, username, password string) (*model.StaffUser, *model.StaffSession, error)
	Logout(ctx context.Context, staff model.StaffIdentity) error
	SelectShelter(ctx context.Context, staff model.StaffIdentity, shelter string) error
	Shelters() []string
}

// StaffAuthHandler handles staff login, logout, shelter selection, and
// the session probe.
type StaffAuthHandler struct {
	service StaffAuthService
	cookies CookieConfig
	// recordLoginFailure feeds the failed-login counter; never nil.
	recordLoginFailure func()
}

// NewStaffAuthHandler creates a StaffAuthHandler.
func NewStaffAuthHandler(service StaffAuthService, cookies CookieConfig, recordLoginFailure func()) *StaffAuthHandler {
	if recordLoginFailure == nil {
		recordLoginFailure = func() {}
	}
	return &StaffAuthHandler{
		service:            service,
		cookies:            cookies,
		recordLoginFailure: recordLoginFailure,
	}
}

type staffLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type staffMeResponse struct {
	Username string   `json:"username"`
	Role     string   `json:"role"`
	Shelter  string   `json:"shelter,omitempty"`
	Shelters []string `json:"shelters"`
}

// Login handles POST /api/staff/login.
func (h *StaffAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req staffLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, session, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeInvalidLogin {
			h.recordLoginFailure()
		}
		handleServiceError(w, err)
		return
	}

	h.cookies.setSessionCookie(w, middleware.StaffSessionCookie, session.ID, h.cookies.StaffMaxAge)
	writeJSON(w, http.StatusOK, staffMeResponse{
		Username: user.Username,
		Role:     string(user.Role),
		Shelters: h.service.Shelters(),
	})
}

// Logout handles POST /api/staff/logout.
func (h *StaffAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Logout(r.Context(), staff); err != nil {
		handleServiceError(w, err)
		return
	}

	h.cookies.clearSessionCookie(w, middleware.StaffSessionCookie)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me handles GET /api/staff/me.
func (h *StaffAuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSON(w, http.StatusOK, staffMeResponse{
		Username: staff.Username,
		Role:     string(staff.Role),
		Shelter:  staff.Shelter,
		Shelters: h.service.Shelters(),
	})
}

type selectShelterRequest struct {
	Shelter string `json:"shelter"`
}

// SelectShelter handles PUT /api/staff/shelter.
func (h *StaffAuthHandler) SelectShelter(w http.ResponseWriter, r *http.Request) {
	staff, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req selectShelterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.SelectShelter(r.Context(), staff, req.Shelter); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, staffMeResponse{
		Username: staff.Username,
		Role:     string(staff.Role),
		Shelter:  req.Shelter,
		Shelters: h.service.Shelters(),
	})
}
