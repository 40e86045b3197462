package model

import "time"

// StaffRole is a staff member's authorization level. Roles are global;
// the shelter a staff member acts on is chosen per session.
type StaffRole string

const (
	// RoleAdmin manages staff accounts and everything below.
	RoleAdmin StaffRole = "admin"
	// RoleStaff runs day-to-day operations including the resident directory.
	RoleStaff StaffRole = "staff"
	// RoleCaseManager works boards and request workflows.
	RoleCaseManager StaffRole = "case_manager"
	// RoleRA (resident assistant) works boards and request workflows.
	RoleRA StaffRole = "ra"
)

// Valid reports whether r is a known role.
func (r StaffRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleCaseManager, RoleRA:
		return true
	}
	return false
}

// CanManageUsers reports whether the role may create or remove staff accounts.
func (r StaffRole) CanManageUsers() bool {
	return r == RoleAdmin
}

// CanManageResidents reports whether the role may add residents or change
// their active flag. Case managers and RAs work the boards but do not
// edit the directory.
func (r StaffRole) CanManageResidents() bool {
	return r == RoleAdmin || r == RoleStaff
}

// StaffUser is a staff account. Authentication is username + bcrypt hash.
type StaffUser struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         StaffRole
	IsActive     bool
	CreatedAt    time.Time
}

// StaffSession is a staff login session. Shelter is nil until the staff
// member picks one; shelter-scoped routes require it.
type StaffSession struct {
	ID          string
	StaffUserID int64
	Shelter     *string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}
