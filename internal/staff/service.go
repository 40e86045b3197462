// Package staff handles staff authentication, shelter selection, and
// account administration.
//
// Roles are global; the shelter a session acts on is chosen after login
// and lives on the session row. Password checks go through bcrypt and
// login failures are deliberately uniform so a caller cannot tell an
// unknown username from a wrong password.
package staff

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/graceworks/shelterops/internal/audit"
	"github.com/graceworks/shelterops/internal/model"
	"github.com/graceworks/shelterops/internal/repository"
)

// Service implements staff login, shelter selection, and account
// management.
type Service struct {
	userRepo      repository.StaffUserRepository
	sessionRepo   repository.StaffSessionRepository
	audit         audit.Recorder
	shelters      []string
	sessionMaxAge time.Duration
}

// NewService creates the staff Service. shelters is the fixed roster a
// session may select from; sessionMaxAge bounds the login session
// lifetime.
func NewService(
	userRepo repository.StaffUserRepository,
	sessionRepo repository.StaffSessionRepository,
	auditRec audit.Recorder,
	shelters []string,
	sessionMaxAge time.Duration,
) *Service {
	return &Service{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		audit:         auditRec,
		shelters:      shelters,
		sessionMaxAge: sessionMaxAge,
	}
}

// Login authenticates a staff member and opens a session. Unknown
// username, wrong password, and deactivated account all fail the same
// way.
func (s *Service) Login(ctx context.Context, username, password string) (*model.StaffUser, *model.StaffSession, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up staff user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, nil, model.NewInvalidLoginError()
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, model.NewInvalidLoginError()
	}

	session := &model.StaffSession{
		ID:          uuid.NewString(),
		StaffUserID: user.ID,
		ExpiresAt:   time.Now().UTC().Add(s.sessionMaxAge),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create staff session: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType:  model.AuditEntityStaff,
		EntityID:    &user.ID,
		StaffUserID: &user.ID,
		ActionType:  model.AuditActionLogin,
		Details:     user.Username,
	})

	return user, session, nil
}

// Logout closes the session. Closing a session that is already gone is
// not an error.
func (s *Service) Logout(ctx context.Context, staff model.StaffIdentity) error {
	if err := s.sessionRepo.DeleteByID(ctx, staff.SessionID); err != nil {
		return fmt.Errorf("failed to delete staff session: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType:  model.AuditEntityStaff,
		EntityID:    &staff.StaffUserID,
		StaffUserID: &staff.StaffUserID,
		ActionType:  model.AuditActionLogout,
		Details:     staff.Username,
	})

	return nil
}

// SelectShelter records which shelter the session acts on. The name
// must come from the configured roster; switching shelters mid-session
// is allowed and simply repoints the session.
func (s *Service) SelectShelter(ctx context.Context, staff model.StaffIdentity, shelter string) error {
	if !s.ValidShelter(shelter) {
		return model.NewInvalidShelterError(shelter)
	}
	if err := s.sessionRepo.SetShelter(ctx, staff.SessionID, shelter); err != nil {
		return fmt.Errorf("failed to set session shelter: %w", err)
	}
	return nil
}

// ValidShelter reports whether the name is on the configured roster.
func (s *Service) ValidShelter(shelter string) bool {
	for _, name := range s.shelters {
		if name == shelter {
			return true
		}
	}
	return false
}

// Shelters returns the configured roster.
func (s *Service) Shelters() []string {
	return s.shelters
}

// CreateUser adds a staff account. Only admins get here (the router
// enforces that); this checks the inputs and the username collision.
func (s *Service) CreateUser(ctx context.Context, actor model.StaffIdentity, username, password string, role model.StaffRole) (*model.StaffUser, error) {
	if username == "" || password == "" {
		return nil, model.NewMissingFieldsError()
	}
	if !role.Valid() {
		return nil, model.NewInvalidRoleError(string(role))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.StaffUser{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewUsernameTakenError(username)
		}
		return nil, fmt.Errorf("failed to create staff user: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType:  model.AuditEntityStaff,
		EntityID:    &user.ID,
		StaffUserID: &actor.StaffUserID,
		ActionType:  model.AuditActionCreate,
		Details:     fmt.Sprintf("created %s (%s)", username, role),
	})

	return user, nil
}

// DeleteUser removes a staff account and all of its sessions. Admins
// cannot remove themselves; that would strand the deployment with no
// way back in.
func (s *Service) DeleteUser(ctx context.Context, actor model.StaffIdentity, username string) error {
	if username == actor.Username {
		return model.NewSelfDeleteError()
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to look up staff user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError(username)
	}

	ok, err := s.userRepo.DeleteByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to delete staff user: %w", err)
	}
	if !ok {
		return model.NewUserNotFoundError(username)
	}
	if err := s.sessionRepo.DeleteByStaffUserID(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete staff sessions: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType:  model.AuditEntityStaff,
		EntityID:    &user.ID,
		StaffUserID: &actor.StaffUserID,
		ActionType:  model.AuditActionDelete,
		Details:     fmt.Sprintf("deleted %s", username),
	})

	return nil
}

// ListUsers returns all staff accounts ordered by username.
func (s *Service) ListUsers(ctx context.Context) ([]*model.StaffUser, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff users: %w", err)
	}
	return users, nil
}

// EnsureAdmin creates the bootstrap admin account when no admin exists
// yet. Run by the migrate subcommand; it is a no-op when credentials
// are not configured or an admin is already present.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	count, err := s.userRepo.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admin users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	user := &model.StaffUser{
		Username:     username,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	return nil
}
