package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/graceworks/shelterops/internal/middleware"
	"github.com/graceworks/shelterops/internal/model"
)

// AdminUserService is the slice of the staff service the admin handler
// needs.
type AdminUserService interface {
	CreateUser(ctx context.Context, actor model.StaffIdentity, username, password string, role model.StaffRole) (*model.StaffUser, error)
	DeleteUser(ctx context.Context, actor model.StaffIdentity, username string) error
	ListUsers(ctx context.Context) ([]*model.StaffUser, error)
}

// AdminHandler manages staff accounts. All routes are admin-only; the
// role gate sits in the router.
type AdminHandler struct {
	service AdminUserService
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(service AdminUserService) *AdminHandler {
	return &AdminHandler{service: service}
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ListUsers handles GET /api/staff/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffUserResponses(users))
}

// CreateUser handles POST /api/staff/admin/users.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), actor, req.Username, req.Password, model.StaffRole(req.Role))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStaffUserResponse(user))
}

// DeleteUser handles DELETE /api/staff/admin/users/{username}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.StaffFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	username := chi.URLParam(r, "username")
	if err := h.service.DeleteUser(r.Context(), actor, username); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
