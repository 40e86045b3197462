// Package leave runs the leave request workflow: resident submission,
// staff decisions, return check-in, and the away/overdue views staff
// watch during a shift.
//
// Transitions are guarded twice. The transition table on LeaveStatus
// rejects illegal moves up front, and every mutation is a conditional
// UPDATE keyed on the expected current status, so two staff members
// acting on the same request cannot both win. The loser sees a stale
// rejection and reloads.
package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/graceworks/shelterops/internal/audit"
	"github.com/graceworks/shelterops/internal/clock"
	"github.com/graceworks/shelterops/internal/model"
	"github.com/graceworks/shelterops/internal/notify"
	"github.com/graceworks/shelterops/internal/repository"
	"github.com/graceworks/shelterops/internal/security"
)

// overdueScanWindow bounds the SQL prefilter for the overdue view. The
// authoritative cutoff (10 PM local on the return date) is applied per
// row in Go; the window only has to be wide enough that no return date
// whose cutoff may already have passed escapes the scan.
const overdueScanWindow = 24 * time.Hour

// SubmitInput is a resident's leave submission as it arrives from the
// form. Datetimes are raw local strings; parsing and zone conversion
// happen during validation.
type SubmitInput struct {
	Destination string
	Reason      string
	Notes       string
	LeaveAt     string
	ReturnAt    string
	Agreement   bool
}

// Service implements the leave request workflow.
type Service struct {
	leaveRepo repository.LeaveRepository
	sanitizer security.TextSanitizerService
	sms       notify.SMSSender
	audit     audit.Recorder
}

// NewService creates the leave Service.
func NewService(
	leaveRepo repository.LeaveRepository,
	sanitizer security.TextSanitizerService,
	sms notify.SMSSender,
	auditRec audit.Recorder,
) *Service {
	return &Service{
		leaveRepo: leaveRepo,
		sanitizer: sanitizer,
		sms:       sms,
		audit:     auditRec,
	}
}

// Submit validates and files a new leave request for the authenticated
// resident. Identity fields are snapshotted from the session, never from
// the form. Nothing is written unless every validation passes.
func (s *Service) Submit(ctx context.Context, resident model.ResidentIdentity, in SubmitInput) (*model.LeaveRequest, error) {
	destination := s.sanitizer.Sanitize(in.Destination)
	reason := s.sanitizer.Sanitize(in.Reason)
	notes := s.sanitizer.Sanitize(in.Notes)

	if destination == "" || reason == "" || in.LeaveAt == "" || in.ReturnAt == "" {
		return nil, model.NewMissingFieldsError()
	}

	leaveAt, err := clock.ParseInput(in.LeaveAt)
	if err != nil {
		return nil, model.NewInvalidDateTimeError()
	}
	returnAt, err := clock.ParseInput(in.ReturnAt)
	if err != nil {
		return nil, model.NewInvalidDateTimeError()
	}

	if !returnAt.After(leaveAt) {
		return nil, model.NewReturnBeforeLeaveError()
	}
	// The boundary is inclusive: return at exactly leave + MaxLeaveDays
	// is accepted, one second past is not.
	if returnAt.After(leaveAt.AddDate(0, 0, model.MaxLeaveDays)) {
		return nil, model.NewMaxLeaveExceededError()
	}
	if !in.Agreement {
		return nil, model.NewAgreementRequiredError()
	}

	request := &model.LeaveRequest{
		Shelter:            resident.Shelter,
		ResidentIdentifier: resident.Identifier,
		FirstName:          resident.FirstName,
		LastName:           resident.LastName,
		ResidentPhone:      resident.Phone,
		Destination:        destination,
		Reason:             reason,
		ResidentNotes:      notes,
		LeaveAt:            leaveAt,
		ReturnAt:           returnAt,
		Status:             model.LeavePending,
		SubmittedAt:        time.Now().UTC(),
	}
	if err := s.leaveRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create leave request: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType: model.AuditEntityLeave,
		EntityID:   &request.ID,
		Shelter:    &request.Shelter,
		ActionType: model.AuditActionCreate,
		Details:    fmt.Sprintf("resident %s, leave %s to %s", resident.Identifier, clock.FormatDisplay(leaveAt), clock.FormatDisplay(returnAt)),
	})

	return request, nil
}

// Approve grants a pending request. The approval commits first; the
// notification happens after and can only add audit entries, never undo
// the decision.
func (s *Service) Approve(ctx context.Context, staff model.StaffIdentity, id int64, note string) (*model.LeaveRequest, error) {
	request, err := s.findForTransition(ctx, id, staff.Shelter, model.LeaveApproved, "pending")
	if err != nil {
		return nil, err
	}

	decisionNote := s.sanitizer.Sanitize(note)
	ok, err := s.leaveRepo.MarkApproved(ctx, id, staff.Shelter, staff.StaffUserID, decisionNote, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to approve leave request: %w", err)
	}
	if !ok {
		return nil, model.NewStaleTransitionError("pending")
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType:  model.AuditEntityLeave,
		EntityID:    &id,
		Shelter:     &staff.Shelter,
		StaffUserID: &staff.StaffUserID,
		ActionType:  model.AuditActionApprove,
		Details:     decisionNote,
	})

	s.sendApprovalSMS(ctx, staff, request)

	return s.reload(ctx, id, staff.Shelter)
}

// Deny refuses a pending request. The note is mandatory so the resident
// always learns why; it is checked before any mutation.
func (s *Service) Deny(ctx context.Context, staff model.StaffIdentity, id int64, note string) (*model.LeaveRequest, error) {
	decisionNote := s.sanitizer.Sanitize(note)
	if decisionNote == "" {
		return nil, model.NewNoteRequiredError()
	}

	if _, err := s.findForTransition(ctx, id, staff.Shelter, model.LeaveDenied, "pending"); err != nil {
		return nil, err
	}

	ok, err := s.leaveRepo.MarkDenied(ctx, id, staff.Shelter, staff.StaffUserID, decisionNote, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to deny leave request: %w", err)
	}
	if !ok {
		return nil, model.NewStaleTransitionError("pending")
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType:  model.AuditEntityLeave,
		EntityID:    &id,
		Shelter:     &staff.Shelter,
		StaffUserID: &staff.StaffUserID,
		ActionType:  model.AuditActionDeny,
		Details:     decisionNote,
	})

	return s.reload(ctx, id, staff.Shelter)
}

// CheckIn records the resident's return from an approved leave. Guarded
// on check_in_at still being unset, so a second check-in attempt is
// rejected even when the status column alone still reads approved.
func (s *Service) CheckIn(ctx context.Context, staff model.StaffIdentity, id int64) (*model.LeaveRequest, error) {
	request, err := s.findForTransition(ctx, id, staff.Shelter, model.LeaveCheckedIn, "awaiting check-in")
	if err != nil {
		return nil, err
	}
	if request.CheckInAt != nil {
		return nil, model.NewStaleTransitionError("awaiting check-in")
	}

	ok, err := s.leaveRepo.MarkCheckedIn(ctx, id, staff.Shelter, staff.StaffUserID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to check in leave request: %w", err)
	}
	if !ok {
		return nil, model.NewStaleTransitionError("awaiting check-in")
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType:  model.AuditEntityLeave,
		EntityID:    &id,
		Shelter:     &staff.Shelter,
		StaffUserID: &staff.StaffUserID,
		ActionType:  model.AuditActionCheckIn,
		Details:     "",
	})

	return s.reload(ctx, id, staff.Shelter)
}

// Pending lists the shelter's undecided requests, newest first.
func (s *Service) Pending(ctx context.Context, shelter string) ([]*model.LeaveRequest, error) {
	requests, err := s.leaveRepo.ListPending(ctx, shelter)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending leave requests: %w", err)
	}
	return requests, nil
}

// AwayNow lists approved leaves whose window has started and that have
// not checked back in, soonest return first.
func (s *Service) AwayNow(ctx context.Context, shelter string) ([]*model.LeaveRequest, error) {
	requests, err := s.leaveRepo.ListAwayNow(ctx, shelter, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list away residents: %w", err)
	}
	return requests, nil
}

// Overdue lists away leaves whose curfew cutoff has passed: 10 PM local
// time on the return date, a grace window to the end of the return day
// rather than the return instant itself. The cutoff is evaluated per row
// at call time; nothing is precomputed or cached.
func (s *Service) Overdue(ctx context.Context, shelter string) ([]*model.LeaveRequest, error) {
	now := time.Now().UTC()
	candidates, err := s.leaveRepo.ListOverdueCandidates(ctx, shelter, now.Add(overdueScanWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue candidates: %w", err)
	}

	overdue := make([]*model.LeaveRequest, 0, len(candidates))
	for _, request := range candidates {
		if now.After(clock.OverdueCutoff(request.ReturnAt)) {
			overdue = append(overdue, request)
		}
	}
	return overdue, nil
}

// findForTransition loads the request and rejects the transition up
// front when the row is visibly not in a state that allows it. The
// conditional UPDATE remains the authority under races.
func (s *Service) findForTransition(ctx context.Context, id int64, shelter string, next model.LeaveStatus, expected string) (*model.LeaveRequest, error) {
	request, err := s.leaveRepo.FindByIDInShelter(ctx, id, shelter)
	if err != nil {
		return nil, fmt.Errorf("failed to find leave request: %w", err)
	}
	if request == nil {
		return nil, model.NewRequestNotFoundError(id)
	}
	if !request.Status.CanTransitionTo(next) {
		return nil, model.NewStaleTransitionError(expected)
	}
	return request, nil
}

// sendApprovalSMS notifies the resident of the approval. Outcomes are
// recorded in the audit trail; nothing here can fail the approval.
func (s *Service) sendApprovalSMS(ctx context.Context, staff model.StaffIdentity, request *model.LeaveRequest) {
	message := notify.ApprovalMessage(request.FirstName, request.LastName, request.LeaveAt, request.ReturnAt)
	sent, err := s.sms.Send(ctx, request.ResidentPhone, message)
	if err != nil {
		slog.Warn("approval sms failed",
			"leave_id", request.ID,
			"shelter", request.Shelter,
			"error", err,
		)
		s.audit.Record(ctx, model.AuditEntry{
			EntityType:  model.AuditEntityLeave,
			EntityID:    &request.ID,
			Shelter:     &request.Shelter,
			StaffUserID: &staff.StaffUserID,
			ActionType:  model.AuditActionSMSFailed,
			Details:     err.Error(),
		})
		return
	}
	if sent {
		s.audit.Record(ctx, model.AuditEntry{
			EntityType:  model.AuditEntityLeave,
			EntityID:    &request.ID,
			Shelter:     &request.Shelter,
			StaffUserID: &staff.StaffUserID,
			ActionType:  model.AuditActionSMSSent,
			Details:     "",
		})
	}
}

func (s *Service) reload(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error) {
	request, err := s.leaveRepo.FindByIDInShelter(ctx, id, shelter)
	if err != nil {
		return nil, fmt.Errorf("failed to reload leave request: %w", err)
	}
	if request == nil {
		return nil, model.NewRequestNotFoundError(id)
	}
	return request, nil
}
