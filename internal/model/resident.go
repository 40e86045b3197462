// Package model defines the domain records for shelter operations.
package model

import "time"

// ResidentCodeLength is the number of decimal digits in a resident code.
// The code is a staff-issued self-service token, unique system-wide,
// printed on the resident's welcome card.
const ResidentCodeLength = 8

// Resident is a person currently or formerly housed at a shelter.
// Residents are soft-deleted via IsActive; attendance history is keyed to
// the row and must survive deactivation.
type Resident struct {
	ID        int64
	Shelter   string
	// Identifier is an opaque stable handle (UUID) used to tie leave and
	// transport requests to a resident without exposing the numeric id.
	Identifier string
	// Code is the 8-digit self-service token. Nil for legacy rows that
	// have not been backfilled yet.
	Code      *string
	FirstName string
	LastName  string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
}

// FullName returns the display name "First Last".
func (r *Resident) FullName() string {
	return r.FirstName + " " + r.LastName
}

// ResidentSession is a code-gated self-service session, pinned to one
// shelter. There is no password; possession of the 8-digit code is the
// whole authentication factor.
type ResidentSession struct {
	ID         string
	ResidentID int64
	Shelter    string
	// SMSConsent records the one-time consent interstitial. Nil until the
	// resident has answered; the view layer gates on that.
	SMSConsent *bool
	ExpiresAt  time.Time
	CreatedAt  time.Time
}
