// Package middleware provides the HTTP middleware chain: sessions,
// rate limiting, CSRF, CORS, logging, recovery, and security headers.
//
// Two independent identity contexts flow through it. Staff authenticate
// with username and password and carry a role; residents authenticate
// with their 8-digit code and are pinned to one shelter. Each kind of
// session is resolved here and injected into the request context as an
// explicit identity value; nothing below the handlers reads ambient
// session state.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/graceworks/shelterops/internal/model"
)

const (
	// StaffSessionCookie carries the staff session id, HTTP only.
	StaffSessionCookie = "staff_session"
	// ResidentSessionCookie carries the resident session id, HTTP only.
	ResidentSessionCookie = "resident_session"
)

// contextKey is a type-safe key for context values.
type contextKey string

var (
	staffContextKey    = contextKey("staff_identity")
	residentContextKey = contextKey("resident_identity")
)

// StaffSessionFinder is the slice of the staff session repository the
// middleware needs.
type StaffSessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.StaffSession, error)
}

// StaffUserFinder resolves the account behind a staff session.
type StaffUserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.StaffUser, error)
}

// ResidentSessionFinder is the slice of the resident session repository
// the middleware needs.
type ResidentSessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.ResidentSession, error)
}

// ResidentFinder resolves the resident behind a resident session.
type ResidentFinder interface {
	FindByID(ctx context.Context, id int64) (*model.Resident, error)
}

// NewStaffSessionMiddleware validates the staff session cookie, loads
// the account, and injects a StaffIdentity into the request context.
// Requests without a valid session get 401. A deactivated account kills
// its sessions on the next request.
func NewStaffSessionMiddleware(sessions StaffSessionFinder, users StaffUserFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(StaffSessionCookie)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			session, err := sessions.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find staff session", "error", err)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if session == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			user, err := users.FindByID(r.Context(), session.StaffUserID)
			if err != nil {
				slog.Error("failed to find staff user for session", "error", err)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if user == nil || !user.IsActive {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			identity := model.StaffIdentity{
				StaffUserID: user.ID,
				Username:    user.Username,
				Role:        user.Role,
				SessionID:   session.ID,
			}
			if session.Shelter != nil {
				identity.Shelter = *session.Shelter
			}

			ctx := context.WithValue(r.Context(), staffContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewResidentSessionMiddleware validates the resident session cookie,
// loads the resident, and injects a ResidentIdentity into the request
// context. Deactivated residents lose access on their next request.
func NewResidentSessionMiddleware(sessions ResidentSessionFinder, residents ResidentFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(ResidentSessionCookie)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			session, err := sessions.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find resident session", "error", err)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if session == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			resident, err := residents.FindByID(r.Context(), session.ResidentID)
			if err != nil {
				slog.Error("failed to find resident for session", "error", err)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if resident == nil || !resident.IsActive {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			identity := model.ResidentIdentity{
				ResidentID: resident.ID,
				Identifier: resident.Identifier,
				FirstName:  resident.FirstName,
				LastName:   resident.LastName,
				Phone:      resident.Phone,
				Shelter:    session.Shelter,
				SessionID:  session.ID,
			}
			if resident.Code != nil {
				identity.Code = *resident.Code
			}

			ctx := context.WithValue(r.Context(), residentContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireShelter rejects staff requests whose session has no shelter
// selected yet. Placed after the staff session middleware on every
// shelter-scoped route group.
func RequireShelter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		staff, err := StaffFromContext(r.Context())
		if err != nil {
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
			return
		}
		if staff.Shelter == "" {
			WriteErrorResponse(w, http.StatusConflict, model.NewShelterNotSelectedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects staff requests whose role fails the allow check.
func RequireRole(allow func(model.StaffRole) bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			staff, err := StaffFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if !allow(staff.Role) {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// StaffFromContext returns the staff identity injected by the staff
// session middleware.
func StaffFromContext(ctx context.Context) (model.StaffIdentity, error) {
	identity, ok := ctx.Value(staffContextKey).(model.StaffIdentity)
	if !ok || identity.StaffUserID == 0 {
		return model.StaffIdentity{}, fmt.Errorf("staff identity not found in context")
	}
	return identity, nil
}

// ResidentFromContext returns the resident identity injected by the
// resident session middleware.
func ResidentFromContext(ctx context.Context) (model.ResidentIdentity, error) {
	identity, ok := ctx.Value(residentContextKey).(model.ResidentIdentity)
	if !ok || identity.ResidentID == 0 {
		return model.ResidentIdentity{}, fmt.Errorf("resident identity not found in context")
	}
	return identity, nil
}

// ContextWithStaff injects a staff identity. For tests and context
// construction outside the middleware.
func ContextWithStaff(ctx context.Context, identity model.StaffIdentity) context.Context {
	return context.WithValue(ctx, staffContextKey, identity)
}

// ContextWithResident injects a resident identity.
func ContextWithResident(ctx context.Context, identity model.ResidentIdentity) context.Context {
	return context.WithValue(ctx, residentContextKey, identity)
}
