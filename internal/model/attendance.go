package model

// AttendanceEventType is the kind of attendance event.
type AttendanceEventType string

const (
	// EventCheckIn records a resident returning to the building.
	EventCheckIn AttendanceEventType = "check_in"
	// EventCheckOut records a resident leaving the building.
	EventCheckOut AttendanceEventType = "check_out"
)

// Valid reports whether t is a known event type.
func (t AttendanceEventType) Valid() bool {
	return t == EventCheckIn || t == EventCheckOut
}

// AttendanceEvent is one append-only entry in a resident's presence
// timeline. Events are never updated or deleted; ordering by
// (EventTime, ID) is the authoritative timeline per resident and shelter.
//
// EventTime and ExpectedBackTime are kept as raw ISO-8601 UTC strings
// ("2006-01-02T15:04:05"): the table inherits rows from the legacy system,
// which stored timestamps as text and occasionally wrote malformed values.
// ISO strings sort lexicographically in chronological order, and the
// reducer treats parsing as fallible per record rather than trusting the
// column.
type AttendanceEvent struct {
	ID         int64
	ResidentID int64
	Shelter    string
	EventType  AttendanceEventType
	EventTime  string
	// StaffUserID is nil for kiosk-originated events.
	StaffUserID *int64
	Note        string
	// ExpectedBackTime is only meaningful on check_out events.
	ExpectedBackTime string
}
