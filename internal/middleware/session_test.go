package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/graceworks/shelterops/internal/model"
)

// --- mocks ---

type mockStaffSessionFinder struct {
	findFn func(ctx context.Context, id string) (*model.StaffSession, error)
}

func (m *mockStaffSessionFinder) FindByID(ctx context.Context, id string) (*model.StaffSession, error) {
	return m.findFn(ctx, id)
}

type mockStaffUserFinder struct {
	findFn func(ctx context.Context, id int64) (*model.StaffUser, error)
}

func (m *mockStaffUserFinder) FindByID(ctx context.Context, id int64) (*model.StaffUser, error) {
	return m.findFn(ctx, id)
}

type mockResidentSessionFinder struct {
	findFn func(ctx context.Context, id string) (*model.ResidentSession, error)
}

func (m *mockResidentSessionFinder) FindByID(ctx context.Context, id string) (*model.ResidentSession, error) {
	return m.findFn(ctx, id)
}

type mockResidentFinder struct {
	findFn func(ctx context.Context, id int64) (*model.Resident, error)
}

func (m *mockResidentFinder) FindByID(ctx context.Context, id int64) (*model.Resident, error) {
	return m.findFn(ctx, id)
}

func staffSessionFixture() (*mockStaffSessionFinder, *mockStaffUserFinder) {
	shelter := "Haven"
	sessions := &mockStaffSessionFinder{
		findFn: func(ctx context.Context, id string) (*model.StaffSession, error) {
			if id != "valid-session" {
				return nil, nil
			}
			return &model.StaffSession{
				ID:          id,
				StaffUserID: 7,
				Shelter:     &shelter,
				ExpiresAt:   time.Now().Add(time.Hour),
			}, nil
		},
	}
	users := &mockStaffUserFinder{
		findFn: func(ctx context.Context, id int64) (*model.StaffUser, error) {
			return &model.StaffUser{
				ID:       id,
				Username: "jordan",
				Role:     model.RoleStaff,
				IsActive: true,
			}, nil
		},
	}
	return sessions, users
}

// --- staff session middleware ---

func TestStaffSessionMiddleware_NoCookie_Unauthorized(t *testing.T) {
	sessions, users := staffSessionFixture()
	handler := NewStaffSessionMiddleware(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a session")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/staff/leave/pending", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestStaffSessionMiddleware_UnknownSession_Unauthorized(t *testing.T) {
	sessions, users := staffSessionFixture()
	handler := NewStaffSessionMiddleware(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for an unknown session")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: StaffSessionCookie, Value: "expired-or-bogus"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestStaffSessionMiddleware_LookupError_Unauthorized(t *testing.T) {
	sessions := &mockStaffSessionFinder{
		findFn: func(ctx context.Context, id string) (*model.StaffSession, error) {
			return nil, errors.New("db down")
		},
	}
	_, users := staffSessionFixture()
	handler := NewStaffSessionMiddleware(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run when the session lookup fails")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: StaffSessionCookie, Value: "valid-session"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestStaffSessionMiddleware_DeactivatedUser_Unauthorized(t *testing.T) {
	sessions, _ := staffSessionFixture()
	users := &mockStaffUserFinder{
		findFn: func(ctx context.Context, id int64) (*model.StaffUser, error) {
			return &model.StaffUser{ID: id, Username: "jordan", Role: model.RoleStaff, IsActive: false}, nil
		},
	}
	handler := NewStaffSessionMiddleware(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("a deactivated account must not pass the session check")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: StaffSessionCookie, Value: "valid-session"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestStaffSessionMiddleware_ValidSession_InjectsIdentity(t *testing.T) {
	sessions, users := staffSessionFixture()
	var got model.StaffIdentity
	handler := NewStaffSessionMiddleware(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := StaffFromContext(r.Context())
		if err != nil {
			t.Fatalf("StaffFromContext returned error: %v", err)
		}
		got = identity
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: StaffSessionCookie, Value: "valid-session"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got.StaffUserID != 7 {
		t.Errorf("StaffUserID = %d, want 7", got.StaffUserID)
	}
	if got.Username != "jordan" {
		t.Errorf("Username = %q, want %q", got.Username, "jordan")
	}
	if got.Role != model.RoleStaff {
		t.Errorf("Role = %q, want %q", got.Role, model.RoleStaff)
	}
	if got.Shelter != "Haven" {
		t.Errorf("Shelter = %q, want %q", got.Shelter, "Haven")
	}
	if got.SessionID != "valid-session" {
		t.Errorf("SessionID = %q, want %q", got.SessionID, "valid-session")
	}
}

func TestStaffSessionMiddleware_NoShelterSelected_EmptyShelter(t *testing.T) {
	sessions := &mockStaffSessionFinder{
		findFn: func(ctx context.Context, id string) (*model.StaffSession, error) {
			return &model.StaffSession{ID: id, StaffUserID: 7}, nil
		},
	}
	_, users := staffSessionFixture()
	handler := NewStaffSessionMiddleware(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := StaffFromContext(r.Context())
		if identity.Shelter != "" {
			t.Errorf("Shelter = %q, want empty before selection", identity.Shelter)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: StaffSessionCookie, Value: "valid-session"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

// --- resident session middleware ---

func residentSessionFixture() (*mockResidentSessionFinder, *mockResidentFinder) {
	sessions := &mockResidentSessionFinder{
		findFn: func(ctx context.Context, id string) (*model.ResidentSession, error) {
			if id != "res-session" {
				return nil, nil
			}
			return &model.ResidentSession{
				ID:         id,
				ResidentID: 42,
				Shelter:    "Gratitude",
				ExpiresAt:  time.Now().Add(time.Hour),
			}, nil
		},
	}
	code := "12345678"
	residents := &mockResidentFinder{
		findFn: func(ctx context.Context, id int64) (*model.Resident, error) {
			return &model.Resident{
				ID:         id,
				Shelter:    "Gratitude",
				Identifier: "res-uuid",
				Code:       &code,
				FirstName:  "Pat",
				LastName:   "Doe",
				Phone:      "5551234567",
				IsActive:   true,
			}, nil
		},
	}
	return sessions, residents
}

func TestResidentSessionMiddleware_NoCookie_Unauthorized(t *testing.T) {
	sessions, residents := residentSessionFixture()
	handler := NewResidentSessionMiddleware(sessions, residents)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a session")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/resident/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestResidentSessionMiddleware_ValidSession_InjectsIdentity(t *testing.T) {
	sessions, residents := residentSessionFixture()
	var got model.ResidentIdentity
	handler := NewResidentSessionMiddleware(sessions, residents)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := ResidentFromContext(r.Context())
		if err != nil {
			t.Fatalf("ResidentFromContext returned error: %v", err)
		}
		got = identity
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: ResidentSessionCookie, Value: "res-session"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got.ResidentID != 42 {
		t.Errorf("ResidentID = %d, want 42", got.ResidentID)
	}
	if got.Shelter != "Gratitude" {
		t.Errorf("Shelter = %q, want %q", got.Shelter, "Gratitude")
	}
	if got.Code != "12345678" {
		t.Errorf("Code = %q, want %q", got.Code, "12345678")
	}
	if got.FullName() != "Pat Doe" {
		t.Errorf("FullName = %q, want %q", got.FullName(), "Pat Doe")
	}
}

func TestResidentSessionMiddleware_DeactivatedResident_Unauthorized(t *testing.T) {
	sessions, _ := residentSessionFixture()
	residents := &mockResidentFinder{
		findFn: func(ctx context.Context, id int64) (*model.Resident, error) {
			return &model.Resident{ID: id, IsActive: false}, nil
		},
	}
	handler := NewResidentSessionMiddleware(sessions, residents)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("a deactivated resident must not pass the session check")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: ResidentSessionCookie, Value: "res-session"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// --- shelter and role guards ---

func TestRequireShelter_NoShelter_Conflict(t *testing.T) {
	handler := RequireShelter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run before a shelter is selected")
	}))

	ctx := ContextWithStaff(context.Background(), model.StaffIdentity{StaffUserID: 1, Role: model.RoleStaff})
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestRequireShelter_ShelterSelected_Passes(t *testing.T) {
	called := false
	handler := RequireShelter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	ctx := ContextWithStaff(context.Background(), model.StaffIdentity{StaffUserID: 1, Role: model.RoleStaff, Shelter: "Abba"})
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))

	if !called {
		t.Error("handler should run once a shelter is selected")
	}
}

func TestRequireRole_Denied(t *testing.T) {
	handler := RequireRole(model.StaffRole.CanManageUsers)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("an RA must not reach user management")
	}))

	ctx := ContextWithStaff(context.Background(), model.StaffIdentity{StaffUserID: 1, Role: model.RoleRA, Shelter: "Abba"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRequireRole_Allowed(t *testing.T) {
	called := false
	handler := RequireRole(model.StaffRole.CanManageUsers)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	ctx := ContextWithStaff(context.Background(), model.StaffIdentity{StaffUserID: 1, Role: model.RoleAdmin, Shelter: "Abba"})
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))

	if !called {
		t.Error("an admin should reach user management")
	}
}

func TestStaffFromContext_Missing(t *testing.T) {
	if _, err := StaffFromContext(context.Background()); err == nil {
		t.Error("expected error for a context without a staff identity")
	}
}

func TestResidentFromContext_Missing(t *testing.T) {
	if _, err := ResidentFromContext(context.Background()); err == nil {
		t.Error("expected error for a context without a resident identity")
	}
}
