// Package transport runs the transportation request workflow: resident
// submission, staff scheduling, completion, and cancellation, plus the
// day board drivers work from.
//
// The workflow is guarded the same way leave is: the transition table on
// TransportStatus rejects illegal moves up front and every mutation is a
// conditional UPDATE keyed on the expected current status.
package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/graceworks/shelterops/internal/audit"
	"github.com/graceworks/shelterops/internal/clock"
	"github.com/graceworks/shelterops/internal/model"
	"github.com/graceworks/shelterops/internal/repository"
	"github.com/graceworks/shelterops/internal/security"
)

// submitSlack forgives a needed-at time slightly in the past. Filling
// out the form takes a minute; a pickup time that was valid when typed
// should not bounce at submit.
const submitSlack = 60 * time.Second

// SubmitInput is a resident's transport submission as it arrives from
// the form.
type SubmitInput struct {
	NeededAt       string
	PickupLocation string
	Destination    string
	Reason         string
	Notes          string
	CallbackPhone  string
}

// Service implements the transport request workflow.
type Service struct {
	transportRepo repository.TransportRepository
	sanitizer     security.TextSanitizerService
	audit         audit.Recorder
}

// NewService creates the transport Service.
func NewService(
	transportRepo repository.TransportRepository,
	sanitizer security.TextSanitizerService,
	auditRec audit.Recorder,
) *Service {
	return &Service{
		transportRepo: transportRepo,
		sanitizer:     sanitizer,
		audit:         auditRec,
	}
}

// Submit validates and files a new transport request for the
// authenticated resident. Identity fields come from the session, never
// the form.
func (s *Service) Submit(ctx context.Context, resident model.ResidentIdentity, in SubmitInput) (*model.TransportRequest, error) {
	pickup := s.sanitizer.Sanitize(in.PickupLocation)
	destination := s.sanitizer.Sanitize(in.Destination)
	reason := s.sanitizer.Sanitize(in.Reason)
	notes := s.sanitizer.Sanitize(in.Notes)
	callback := s.sanitizer.Sanitize(in.CallbackPhone)

	if pickup == "" || destination == "" || reason == "" || in.NeededAt == "" {
		return nil, model.NewMissingFieldsError()
	}

	neededAt, err := clock.ParseInput(in.NeededAt)
	if err != nil {
		return nil, model.NewInvalidDateTimeError()
	}
	if neededAt.Before(time.Now().UTC().Add(-submitSlack)) {
		return nil, model.NewNeededTimeInPastError()
	}

	request := &model.TransportRequest{
		Shelter:            resident.Shelter,
		ResidentIdentifier: resident.Identifier,
		FirstName:          resident.FirstName,
		LastName:           resident.LastName,
		NeededAt:           neededAt,
		PickupLocation:     pickup,
		Destination:        destination,
		Reason:             reason,
		ResidentNotes:      notes,
		CallbackPhone:      callback,
		Status:             model.TransportPending,
		SubmittedAt:        time.Now().UTC(),
	}
	if err := s.transportRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create transport request: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType: model.AuditEntityTransport,
		EntityID:   &request.ID,
		Shelter:    &request.Shelter,
		ActionType: model.AuditActionCreate,
		Details:    fmt.Sprintf("resident %s, needed %s", resident.Identifier, clock.FormatDisplay(neededAt)),
	})

	return request, nil
}

// Schedule assigns a driver to a pending request. The driver name is
// mandatory; a ride without one is not scheduled, it is a wish.
func (s *Service) Schedule(ctx context.Context, staff model.StaffIdentity, id int64, driverName, staffNotes string) (*model.TransportRequest, error) {
	driver := s.sanitizer.Sanitize(driverName)
	if driver == "" {
		return nil, model.NewDriverRequiredError()
	}
	notes := s.sanitizer.Sanitize(staffNotes)

	if _, err := s.findForTransition(ctx, id, staff.Shelter, model.TransportScheduled, "pending"); err != nil {
		return nil, err
	}

	ok, err := s.transportRepo.MarkScheduled(ctx, id, staff.Shelter, staff.StaffUserID, driver, notes, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to schedule transport request: %w", err)
	}
	if !ok {
		return nil, model.NewStaleTransitionError("pending")
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType:  model.AuditEntityTransport,
		EntityID:    &id,
		Shelter:     &staff.Shelter,
		StaffUserID: &staff.StaffUserID,
		ActionType:  model.AuditActionSchedule,
		Details:     fmt.Sprintf("driver %s", driver),
	})

	return s.reload(ctx, id, staff.Shelter)
}

// Complete closes out a scheduled ride.
func (s *Service) Complete(ctx context.Context, staff model.StaffIdentity, id int64) (*model.TransportRequest, error) {
	if _, err := s.findForTransition(ctx, id, staff.Shelter, model.TransportCompleted, "scheduled"); err != nil {
		return nil, err
	}

	ok, err := s.transportRepo.MarkCompleted(ctx, id, staff.Shelter, staff.StaffUserID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to complete transport request: %w", err)
	}
	if !ok {
		return nil, model.NewStaleTransitionError("scheduled")
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType:  model.AuditEntityTransport,
		EntityID:    &id,
		Shelter:     &staff.Shelter,
		StaffUserID: &staff.StaffUserID,
		ActionType:  model.AuditActionComplete,
		Details:     "",
	})

	return s.reload(ctx, id, staff.Shelter)
}

// Cancel calls off a pending or scheduled ride. The reason is mandatory
// so the resident and the next shift know what happened.
func (s *Service) Cancel(ctx context.Context, staff model.StaffIdentity, id int64, reason string) (*model.TransportRequest, error) {
	cancelReason := s.sanitizer.Sanitize(reason)
	if cancelReason == "" {
		return nil, model.NewReasonRequiredError()
	}

	if _, err := s.findForTransition(ctx, id, staff.Shelter, model.TransportCancelled, "pending or scheduled"); err != nil {
		return nil, err
	}

	ok, err := s.transportRepo.MarkCancelled(ctx, id, staff.Shelter, staff.StaffUserID, cancelReason, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to cancel transport request: %w", err)
	}
	if !ok {
		return nil, model.NewStaleTransitionError("pending or scheduled")
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType:  model.AuditEntityTransport,
		EntityID:    &id,
		Shelter:     &staff.Shelter,
		StaffUserID: &staff.StaffUserID,
		ActionType:  model.AuditActionCancel,
		Details:     cancelReason,
	})

	return s.reload(ctx, id, staff.Shelter)
}

// Pending lists the shelter's unscheduled requests, newest first.
func (s *Service) Pending(ctx context.Context, shelter string) ([]*model.TransportRequest, error) {
	requests, err := s.transportRepo.ListPending(ctx, shelter)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transport requests: %w", err)
	}
	return requests, nil
}

// Board lists the shelter's open rides for one local calendar day,
// ordered by needed time. date is "YYYY-MM-DD" local; empty means today.
// Day membership is decided by local-date string equality, so a 11 PM
// and a 1 AM pickup on the same local date land on the same board even
// when their UTC dates differ.
func (s *Service) Board(ctx context.Context, shelter string, date string) ([]*model.TransportRequest, error) {
	if date == "" {
		date = clock.LocalDateString(time.Now().UTC())
	} else if _, err := time.Parse(clock.DateLayout, date); err != nil {
		return nil, model.NewInvalidDateTimeError()
	}

	active, err := s.transportRepo.ListActive(ctx, shelter)
	if err != nil {
		return nil, fmt.Errorf("failed to list active transport requests: %w", err)
	}

	board := make([]*model.TransportRequest, 0, len(active))
	for _, request := range active {
		if clock.LocalDateString(request.NeededAt) == date {
			board = append(board, request)
		}
	}
	return board, nil
}

func (s *Service) findForTransition(ctx context.Context, id int64, shelter string, next model.TransportStatus, expected string) (*model.TransportRequest, error) {
	request, err := s.transportRepo.FindByIDInShelter(ctx, id, shelter)
	if err != nil {
		return nil, fmt.Errorf("failed to find transport request: %w", err)
	}
	if request == nil {
		return nil, model.NewRequestNotFoundError(id)
	}
	if !request.Status.CanTransitionTo(next) {
		return nil, model.NewStaleTransitionError(expected)
	}
	return request, nil
}

func (s *Service) reload(ctx context.Context, id int64, shelter string) (*model.TransportRequest, error) {
	request, err := s.transportRepo.FindByIDInShelter(ctx, id, shelter)
	if err != nil {
		return nil, fmt.Errorf("failed to reload transport request: %w", err)
	}
	if request == nil {
		return nil, model.NewRequestNotFoundError(id)
	}
	return request, nil
}
