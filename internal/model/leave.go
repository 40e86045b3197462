package model

import "time"

// MaxLeaveDays is the longest allowed leave window. return_at may equal
// leave_at + MaxLeaveDays exactly; one second past is rejected.
const MaxLeaveDays = 7

// LeaveStatus is the workflow state of a leave request.
type LeaveStatus string

const (
	// LeavePending awaits a staff decision.
	LeavePending LeaveStatus = "pending"
	// LeaveApproved is a granted leave not yet returned from.
	LeaveApproved LeaveStatus = "approved"
	// LeaveDenied is a refused leave. Terminal.
	LeaveDenied LeaveStatus = "denied"
	// LeaveCheckedIn is an approved leave the resident returned from. Terminal.
	LeaveCheckedIn LeaveStatus = "checked_in"
)

// leaveTransitions is the single source of truth for legal status moves.
// Anything not listed is rejected before any mutation is attempted; the
// conditional UPDATE in the repository enforces the same rule again under
// concurrent staff actions.
var leaveTransitions = map[LeaveStatus][]LeaveStatus{
	LeavePending:  {LeaveApproved, LeaveDenied},
	LeaveApproved: {LeaveCheckedIn},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s LeaveStatus) CanTransitionTo(next LeaveStatus) bool {
	for _, allowed := range leaveTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s LeaveStatus) Terminal() bool {
	return len(leaveTransitions[s]) == 0
}

// Valid reports whether s is a known status.
func (s LeaveStatus) Valid() bool {
	switch s {
	case LeavePending, LeaveApproved, LeaveDenied, LeaveCheckedIn:
		return true
	}
	return false
}

// LeaveRequest is a resident's request to be away from the shelter for a
// bounded window. Identity fields are snapshotted from the resident
// session at submission time so the request stays readable even if the
// resident record is later edited or deactivated.
type LeaveRequest struct {
	ID                 int64
	Shelter            string
	ResidentIdentifier string
	FirstName          string
	LastName           string
	ResidentPhone      string
	Destination        string
	Reason             string
	ResidentNotes      string
	LeaveAt            time.Time
	ReturnAt           time.Time
	Status             LeaveStatus
	SubmittedAt        time.Time
	DecidedAt          *time.Time
	DecidedBy          *int64
	DecisionNote       string
	CheckInAt          *time.Time
	CheckInBy          *int64
}
