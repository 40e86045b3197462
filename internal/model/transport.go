package model

import "time"

// TransportStatus is the workflow state of a transportation request.
type TransportStatus string

const (
	// TransportPending awaits scheduling by staff.
	TransportPending TransportStatus = "pending"
	// TransportScheduled has a driver assigned.
	TransportScheduled TransportStatus = "scheduled"
	// TransportCompleted is a finished ride. Terminal.
	TransportCompleted TransportStatus = "completed"
	// TransportCancelled is a called-off request. Terminal.
	TransportCancelled TransportStatus = "cancelled"
)

// transportTransitions mirrors leaveTransitions: the one place transition
// legality is defined.
var transportTransitions = map[TransportStatus][]TransportStatus{
	TransportPending:   {TransportScheduled, TransportCancelled},
	TransportScheduled: {TransportCompleted, TransportCancelled},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s TransportStatus) CanTransitionTo(next TransportStatus) bool {
	for _, allowed := range transportTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s TransportStatus) Terminal() bool {
	return len(transportTransitions[s]) == 0
}

// Valid reports whether s is a known status.
func (s TransportStatus) Valid() bool {
	switch s {
	case TransportPending, TransportScheduled, TransportCompleted, TransportCancelled:
		return true
	}
	return false
}

// TransportRequest is a resident's request for a ride. Like LeaveRequest,
// resident identity is snapshotted at submission time.
type TransportRequest struct {
	ID                 int64
	Shelter            string
	ResidentIdentifier string
	FirstName          string
	LastName           string
	NeededAt           time.Time
	PickupLocation     string
	Destination        string
	Reason             string
	ResidentNotes      string
	CallbackPhone      string
	Status             TransportStatus
	SubmittedAt        time.Time
	ScheduledAt        *time.Time
	ScheduledBy        *int64
	DriverName         string
	StaffNotes         string
	CompletedAt        *time.Time
	CompletedBy        *int64
	CancelledAt        *time.Time
	CancelledBy        *int64
	CancelReason       string
}
