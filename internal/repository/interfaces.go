// Package repository defines the persistence interfaces. Services see
// these interfaces only; the SQL dialect stays behind them.
package repository

import (
	"context"
	"time"

	"github.com/graceworks/shelterops/internal/model"
)

// ResidentRepository persists resident directory records.
type ResidentRepository interface {
	// FindByID returns the resident with the given id, or nil when absent.
	FindByID(ctx context.Context, id int64) (*model.Resident, error)

	// FindByIDInShelter returns the resident only when it belongs to the
	// given shelter. Returns nil when absent.
	FindByIDInShelter(ctx context.Context, id int64, shelter string) (*model.Resident, error)

	// FindActiveByShelterAndCode looks up an active resident by shelter
	// and resident code. Returns nil when absent.
	FindActiveByShelterAndCode(ctx context.Context, shelter, code string) (*model.Resident, error)

	// ListByShelter returns the shelter's residents. Active residents sort
	// by last then first name; with includeInactive, active rows come
	// first.
	ListByShelter(ctx context.Context, shelter string, includeInactive bool) ([]*model.Resident, error)

	// Create inserts a resident and fills in the generated id. A duplicate
	// resident_code surfaces as a unique-violation error.
	Create(ctx context.Context, resident *model.Resident) error

	// SetActive flips the is_active flag. Returns false when no resident
	// matched the id and shelter.
	SetActive(ctx context.Context, id int64, shelter string, active bool) (bool, error)

	// AssignCode sets the resident code on a row that has none. Returns
	// false when the row already has a code. A duplicate code surfaces as
	// a unique-violation error.
	AssignCode(ctx context.Context, id int64, code string) (bool, error)
}

// AttendanceEventRepository persists the append-only attendance log.
type AttendanceEventRepository interface {
	// Append inserts an event and fills in the generated id. Events are
	// never updated or deleted.
	Append(ctx context.Context, event *model.AttendanceEvent) error

	// ListByResident returns a resident's events ordered by event_time
	// then id.
	ListByResident(ctx context.Context, residentID int64) ([]*model.AttendanceEvent, error)

	// ListByShelter returns all events in a shelter ordered by
	// resident_id, event_time, id, so callers can group per resident in
	// one pass.
	ListByShelter(ctx context.Context, shelter string) ([]*model.AttendanceEvent, error)
}

// LeaveRepository persists leave requests. The Mark* methods are
// conditional updates: they report false when the row was not in the
// expected state, which callers treat as a lost race, not an error.
type LeaveRepository interface {
	// Create inserts a leave request and fills in the generated id.
	Create(ctx context.Context, request *model.LeaveRequest) error

	// FindByIDInShelter returns the request only when it belongs to the
	// given shelter. Returns nil when absent.
	FindByIDInShelter(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error)

	// ListPending returns a shelter's pending requests, newest first.
	ListPending(ctx context.Context, shelter string) ([]*model.LeaveRequest, error)

	// ListAwayNow returns approved requests whose window has started and
	// that have not checked back in, soonest return first.
	ListAwayNow(ctx context.Context, shelter string, now time.Time) ([]*model.LeaveRequest, error)

	// ListOverdueCandidates returns approved, not-checked-in requests
	// with return_at on or before the horizon. The caller applies the
	// authoritative curfew cutoff per row.
	ListOverdueCandidates(ctx context.Context, shelter string, horizon time.Time) ([]*model.LeaveRequest, error)

	// MarkApproved transitions pending to approved.
	MarkApproved(ctx context.Context, id int64, shelter string, staffUserID int64, note string, decidedAt time.Time) (bool, error)

	// MarkDenied transitions pending to denied.
	MarkDenied(ctx context.Context, id int64, shelter string, staffUserID int64, note string, decidedAt time.Time) (bool, error)

	// MarkCheckedIn transitions approved to checked_in, guarded on
	// check_in_at still being unset.
	MarkCheckedIn(ctx context.Context, id int64, shelter string, staffUserID int64, checkInAt time.Time) (bool, error)
}

// TransportRepository persists transport requests with the same
// conditional-update contract as LeaveRepository.
type TransportRepository interface {
	// Create inserts a transport request and fills in the generated id.
	Create(ctx context.Context, request *model.TransportRequest) error

	// FindByIDInShelter returns the request only when it belongs to the
	// given shelter. Returns nil when absent.
	FindByIDInShelter(ctx context.Context, id int64, shelter string) (*model.TransportRequest, error)

	// ListPending returns a shelter's pending requests, newest first.
	ListPending(ctx context.Context, shelter string) ([]*model.TransportRequest, error)

	// ListActive returns pending and scheduled requests ordered by
	// needed_at. The board's calendar-day filter happens in the caller.
	ListActive(ctx context.Context, shelter string) ([]*model.TransportRequest, error)

	// MarkScheduled transitions pending to scheduled.
	MarkScheduled(ctx context.Context, id int64, shelter string, staffUserID int64, driverName, staffNotes string, scheduledAt time.Time) (bool, error)

	// MarkCompleted transitions scheduled to completed.
	MarkCompleted(ctx context.Context, id int64, shelter string, staffUserID int64, completedAt time.Time) (bool, error)

	// MarkCancelled transitions pending or scheduled to cancelled.
	MarkCancelled(ctx context.Context, id int64, shelter string, staffUserID int64, reason string, cancelledAt time.Time) (bool, error)
}

// StaffUserRepository persists staff accounts.
type StaffUserRepository interface {
	// FindByID returns the staff user with the given id, or nil when
	// absent.
	FindByID(ctx context.Context, id int64) (*model.StaffUser, error)

	// FindByUsername returns the staff user with the given username, or
	// nil when absent.
	FindByUsername(ctx context.Context, username string) (*model.StaffUser, error)

	// List returns all staff users ordered by username.
	List(ctx context.Context) ([]*model.StaffUser, error)

	// Create inserts a staff user and fills in the generated id. A
	// duplicate username surfaces as a unique-violation error.
	Create(ctx context.Context, user *model.StaffUser) error

	// DeleteByUsername removes the account. Returns false when no row
	// matched.
	DeleteByUsername(ctx context.Context, username string) (bool, error)

	// CountByRole returns how many accounts hold the given role.
	CountByRole(ctx context.Context, role model.StaffRole) (int, error)
}

// StaffSessionRepository persists staff login sessions.
type StaffSessionRepository interface {
	// Create inserts a session.
	Create(ctx context.Context, session *model.StaffSession) error

	// FindByID returns the session, or nil when absent or expired.
	FindByID(ctx context.Context, id string) (*model.StaffSession, error)

	// SetShelter records the shelter selected for the session.
	SetShelter(ctx context.Context, id string, shelter string) error

	// DeleteByID removes a session.
	DeleteByID(ctx context.Context, id string) error

	// DeleteByStaffUserID removes all of a staff member's sessions.
	DeleteByStaffUserID(ctx context.Context, staffUserID int64) error

	// DeleteExpired removes expired sessions and reports how many.
	DeleteExpired(ctx context.Context) (int64, error)
}

// ResidentSessionRepository persists resident self-service sessions.
type ResidentSessionRepository interface {
	// Create inserts a session.
	Create(ctx context.Context, session *model.ResidentSession) error

	// FindByID returns the session, or nil when absent or expired.
	FindByID(ctx context.Context, id string) (*model.ResidentSession, error)

	// SetSMSConsent records the resident's answer to the one-time
	// consent prompt.
	SetSMSConsent(ctx context.Context, id string, consent bool) error

	// DeleteByID removes a session.
	DeleteByID(ctx context.Context, id string) error

	// DeleteExpired removes expired sessions and reports how many.
	DeleteExpired(ctx context.Context) (int64, error)
}

// AuditRepository persists the append-only audit trail. The core only
// writes; entries are read out of band.
type AuditRepository interface {
	// Append inserts an audit entry and fills in the generated id.
	Append(ctx context.Context, entry *model.AuditEntry) error
}
