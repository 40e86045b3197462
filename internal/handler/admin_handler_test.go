package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/graceworks/shelterops/internal/model"
)

type mockAdminService struct {
	createUserFn func(ctx context.Context, actor model.StaffIdentity, username, password string, role model.StaffRole) (*model.StaffUser, error)
	deleteUserFn func(ctx context.Context, actor model.StaffIdentity, username string) error
	listUsersFn  func(ctx context.Context) ([]*model.StaffUser, error)
}

func (m *mockAdminService) CreateUser(ctx context.Context, actor model.StaffIdentity, username, password string, role model.StaffRole) (*model.StaffUser, error) {
	return m.createUserFn(ctx, actor, username, password, role)
}

func (m *mockAdminService) DeleteUser(ctx context.Context, actor model.StaffIdentity, username string) error {
	return m.deleteUserFn(ctx, actor, username)
}

func (m *mockAdminService) ListUsers(ctx context.Context) ([]*model.StaffUser, error) {
	return m.listUsersFn(ctx)
}

func adminIdentity() model.StaffIdentity {
	return model.StaffIdentity{StaffUserID: 1, Username: "admin", Role: model.RoleAdmin, SessionID: "sess-a"}
}

func TestAdminHandler_ListUsers_OmitsPasswordHash(t *testing.T) {
	service := &mockAdminService{
		listUsersFn: func(ctx context.Context) ([]*model.StaffUser, error) {
			return []*model.StaffUser{
				{ID: 1, Username: "admin", PasswordHash: "$2a$10$secret", Role: model.RoleAdmin, IsActive: true},
			}, nil
		},
	}
	h := NewAdminHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/staff/admin/users", nil).
		WithContext(staffContext(adminIdentity()))
	rec := httptest.NewRecorder()
	h.ListUsers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("response must not leak the password hash")
	}

	var resp []staffUserResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Username != "admin" {
		t.Errorf("response = %+v", resp)
	}
}

func TestAdminHandler_CreateUser(t *testing.T) {
	service := &mockAdminService{
		createUserFn: func(ctx context.Context, actor model.StaffIdentity, username, password string, role model.StaffRole) (*model.StaffUser, error) {
			if actor.Username != "admin" {
				t.Errorf("actor = %q, want admin", actor.Username)
			}
			if role != model.RoleCaseManager {
				t.Errorf("role = %q, want case_manager", role)
			}
			return &model.StaffUser{ID: 5, Username: username, Role: role, IsActive: true}, nil
		},
	}
	h := NewAdminHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/staff/admin/users",
		strings.NewReader(`{"username":"jdoe","password":"hunter22","role":"case_manager"}`)).
		WithContext(staffContext(adminIdentity()))
	rec := httptest.NewRecorder()
	h.CreateUser(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminHandler_CreateUser_DuplicateUsername(t *testing.T) {
	service := &mockAdminService{
		createUserFn: func(ctx context.Context, actor model.StaffIdentity, username, password string, role model.StaffRole) (*model.StaffUser, error) {
			return nil, model.NewUsernameTakenError(username)
		},
	}
	h := NewAdminHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/staff/admin/users",
		strings.NewReader(`{"username":"jdoe","password":"hunter22","role":"staff"}`)).
		WithContext(staffContext(adminIdentity()))
	rec := httptest.NewRecorder()
	h.CreateUser(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAdminHandler_DeleteUser(t *testing.T) {
	var deleted string
	service := &mockAdminService{
		deleteUserFn: func(ctx context.Context, actor model.StaffIdentity, username string) error {
			deleted = username
			return nil
		},
	}
	h := NewAdminHandler(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/staff/admin/users/jdoe", nil).
		WithContext(staffContext(adminIdentity()))
	req = withURLParam(req, "username", "jdoe")
	rec := httptest.NewRecorder()
	h.DeleteUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if deleted != "jdoe" {
		t.Errorf("deleted = %q, want jdoe", deleted)
	}
}

func TestAdminHandler_DeleteUser_Self(t *testing.T) {
	service := &mockAdminService{
		deleteUserFn: func(ctx context.Context, actor model.StaffIdentity, username string) error {
			return model.NewSelfDeleteError()
		},
	}
	h := NewAdminHandler(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/staff/admin/users/admin", nil).
		WithContext(staffContext(adminIdentity()))
	req = withURLParam(req, "username", "admin")
	rec := httptest.NewRecorder()
	h.DeleteUser(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
