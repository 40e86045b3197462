package model

import "fmt"

// APIError is the unified error format surfaced to clients. Category and
// Action drive how the front end presents the failure.
type APIError struct {
	Code     string // machine-readable error code
	Message  string // human-readable description
	Category string // one of: auth, validation, workflow, system
	Action   string // suggested next step for the user
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Error codes.
const (
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeInvalidShelter      = "INVALID_SHELTER"
	ErrCodeShelterNotSelected  = "SHELTER_NOT_SELECTED"
	ErrCodeMissingFields       = "MISSING_FIELDS"
	ErrCodeInvalidDateTime     = "INVALID_DATETIME"
	ErrCodeReturnBeforeLeave   = "RETURN_BEFORE_LEAVE"
	ErrCodeMaxLeaveExceeded    = "MAX_LEAVE_EXCEEDED"
	ErrCodeAgreementRequired   = "AGREEMENT_REQUIRED"
	ErrCodeNeededTimeInPast    = "NEEDED_TIME_IN_PAST"
	ErrCodeNoteRequired        = "NOTE_REQUIRED"
	ErrCodeDriverRequired      = "DRIVER_REQUIRED"
	ErrCodeReasonRequired      = "REASON_REQUIRED"
	ErrCodeStaleTransition     = "STALE_TRANSITION"
	ErrCodeRequestNotFound     = "REQUEST_NOT_FOUND"
	ErrCodeResidentNotFound    = "RESIDENT_NOT_FOUND"
	ErrCodeInvalidLogin        = "INVALID_LOGIN"
	ErrCodeInvalidResidentCode = "INVALID_RESIDENT_CODE"
	ErrCodeUsernameTaken       = "USERNAME_TAKEN"
	ErrCodeInvalidRole         = "INVALID_ROLE"
	ErrCodeSelfDelete          = "SELF_DELETE"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeCodeSpaceExhausted  = "CODE_SPACE_EXHAUSTED"
)

// NewUnauthorizedError reports a request with no valid session.
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Sign in to continue.",
		Category: "auth",
		Action:   "Log in and try again.",
	}
}

// NewForbiddenError reports a request the current role may not perform.
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "You do not have permission to do that.",
		Category: "auth",
		Action:   "Ask an admin if you need this access.",
	}
}

// NewInvalidRequestError reports a request body or parameter the server
// could not make sense of.
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  message,
		Category: "validation",
		Action:   "Correct the request and try again.",
	}
}

// NewInvalidShelterError rejects a shelter name outside the configured roster.
func NewInvalidShelterError(shelter string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidShelter,
		Message:  fmt.Sprintf("Select a valid shelter: %q is not one of ours.", shelter),
		Category: "validation",
		Action:   "Pick a shelter from the list.",
	}
}

// NewShelterNotSelectedError rejects shelter-scoped staff actions before a
// shelter has been chosen for the session.
func NewShelterNotSelectedError() *APIError {
	return &APIError{
		Code:     ErrCodeShelterNotSelected,
		Message:  "No shelter selected for this session.",
		Category: "auth",
		Action:   "Select a shelter first.",
	}
}

// NewMissingFieldsError rejects a submission with empty required fields.
func NewMissingFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingFields,
		Message:  "Complete all required fields.",
		Category: "validation",
		Action:   "Fill in every required field and resubmit.",
	}
}

// NewInvalidDateTimeError rejects an unparseable date or time input.
func NewInvalidDateTimeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDateTime,
		Message:  "Invalid date or time.",
		Category: "validation",
		Action:   "Enter dates as YYYY-MM-DDTHH:MM.",
	}
}

// NewReturnBeforeLeaveError rejects a leave window that ends before it starts.
func NewReturnBeforeLeaveError() *APIError {
	return &APIError{
		Code:     ErrCodeReturnBeforeLeave,
		Message:  "Return must be after leave.",
		Category: "validation",
		Action:   "Set the return time later than the leave time.",
	}
}

// NewMaxLeaveExceededError rejects a leave window longer than MaxLeaveDays.
func NewMaxLeaveExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeMaxLeaveExceeded,
		Message:  fmt.Sprintf("Maximum leave is %d days.", MaxLeaveDays),
		Category: "validation",
		Action:   fmt.Sprintf("Shorten the leave to %d days or less.", MaxLeaveDays),
	}
}

// NewAgreementRequiredError rejects a leave submission without the signed
// agreement flag.
func NewAgreementRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeAgreementRequired,
		Message:  "You must accept the agreement.",
		Category: "validation",
		Action:   "Check the agreement box and resubmit.",
	}
}

// NewNeededTimeInPastError rejects a transport request for a past pickup time.
func NewNeededTimeInPastError() *APIError {
	return &APIError{
		Code:     ErrCodeNeededTimeInPast,
		Message:  "Needed time cannot be in the past.",
		Category: "validation",
		Action:   "Pick a future date and time.",
	}
}

// NewNoteRequiredError rejects a denial without an explanation.
func NewNoteRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeNoteRequired,
		Message:  "Denial note required.",
		Category: "validation",
		Action:   "Explain the denial so the resident can follow up.",
	}
}

// NewDriverRequiredError rejects scheduling a ride with no driver named.
func NewDriverRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeDriverRequired,
		Message:  "Driver name required.",
		Category: "validation",
		Action:   "Enter the driver who will take the ride.",
	}
}

// NewReasonRequiredError rejects a cancellation without a reason.
func NewReasonRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeReasonRequired,
		Message:  "Cancel reason required.",
		Category: "validation",
		Action:   "Say why the ride is being cancelled.",
	}
}

// NewStaleTransitionError reports a state change that lost the race: the
// row was no longer in the expected status when the conditional update
// ran. The earlier action stands; this one did nothing.
func NewStaleTransitionError(expected string) *APIError {
	return &APIError{
		Code:     ErrCodeStaleTransition,
		Message:  fmt.Sprintf("Not %s.", expected),
		Category: "workflow",
		Action:   "Reload the list; another staff member got there first.",
	}
}

// NewRequestNotFoundError reports a request id that does not exist in
// this shelter.
func NewRequestNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeRequestNotFound,
		Message:  fmt.Sprintf("Request %d not found for this shelter.", id),
		Category: "workflow",
		Action:   "Reload the list.",
	}
}

// NewResidentNotFoundError reports a resident id that does not exist in
// this shelter.
func NewResidentNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeResidentNotFound,
		Message:  fmt.Sprintf("Resident %d not found for this shelter.", id),
		Category: "workflow",
		Action:   "Reload the resident list.",
	}
}

// NewInvalidLoginError reports a failed staff login. Deliberately vague:
// it does not reveal whether the username exists.
func NewInvalidLoginError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidLogin,
		Message:  "Invalid login.",
		Category: "auth",
		Action:   "Check your username and password.",
	}
}

// NewInvalidResidentCodeError reports a failed resident code
// authentication. The same error covers a malformed code and a code that
// matches no active resident, so callers cannot probe the code space.
func NewInvalidResidentCodeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidResidentCode,
		Message:  "Invalid code.",
		Category: "auth",
		Action:   "Enter the 8-digit code from your resident card, or ask staff for help.",
	}
}

// NewUsernameTakenError reports a staff username collision.
func NewUsernameTakenError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUsernameTaken,
		Message:  fmt.Sprintf("Username %q already exists.", username),
		Category: "validation",
		Action:   "Pick a different username.",
	}
}

// NewInvalidRoleError rejects an unknown staff role.
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("Invalid role: %q.", role),
		Category: "validation",
		Action:   "Use one of: admin, staff, case_manager, ra.",
	}
}

// NewSelfDeleteError rejects an admin removing their own account.
func NewSelfDeleteError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfDelete,
		Message:  "You cannot delete yourself.",
		Category: "validation",
		Action:   "Have another admin remove this account.",
	}
}

// NewUserNotFoundError reports an unknown staff username.
func NewUserNotFoundError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("User %q not found.", username),
		Category: "workflow",
		Action:   "Reload the user list.",
	}
}

// NewCodeSpaceExhaustedError reports that resident code generation gave up
// after repeated uniqueness collisions.
func NewCodeSpaceExhaustedError() *APIError {
	return &APIError{
		Code:     ErrCodeCodeSpaceExhausted,
		Message:  "Could not issue a unique resident code.",
		Category: "system",
		Action:   "Try again; if this keeps happening contact support.",
	}
}
