package model

// StaffIdentity is the request-scoped identity of an authenticated staff
// member. Handlers build it from the session and pass it explicitly into
// services; nothing below the handler layer reads ambient session state.
type StaffIdentity struct {
	StaffUserID int64
	Username    string
	Role        StaffRole
	// Shelter is the shelter the session is acting on. Empty until the
	// staff member has selected one.
	Shelter string
	// SessionID ties audit-relevant actions back to the login.
	SessionID string
}

// ResidentIdentity is the request-scoped identity of an authenticated
// resident, snapshotted from the resident record at login.
type ResidentIdentity struct {
	ResidentID int64
	Identifier string
	FirstName  string
	LastName   string
	Phone      string
	Shelter    string
	Code       string
	SessionID  string
}

// FullName returns the display name "First Last".
func (r ResidentIdentity) FullName() string {
	return r.FirstName + " " + r.LastName
}
