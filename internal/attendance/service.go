package attendance

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

// BoardEntry pairs a resident with their derived presence state for the
// attendance board.
type BoardEntry struct {
	Resident model.Resident
	Status   Status
}

// ResidentTrips is the trip history for one resident's print view.
type ResidentTrips struct {
	Resident model.Resident
	Trips    []Trip
}

// RecordInput describes one check-in or check-out to append to the log.
type RecordInput struct {
	Shelter    string
	ResidentID int64
	EventType  model.AttendanceEventType
	Note       string
	// ExpectedBack is the raw form value for a check-out's expected
	// return, empty when not given. Ignored on check-ins.
	ExpectedBack string
	// StaffUserID is nil when the resident recorded the event themselves
	// at the kiosk.
	StaffUserID *int64
}

// Service answers attendance queries and appends new events.
type Service struct {
	residentRepo repository.ResidentRepository
	eventRepo    repository.AttendanceEventRepository
	sanitizer    security.TextSanitizerService
	audit        audit.Recorder
}

// NewService creates the attendance Service.
func NewService(
	residentRepo repository.ResidentRepository,
	eventRepo repository.AttendanceEventRepository,
	sanitizer security.TextSanitizerService,
	auditRec audit.Recorder,
) *Service {
	return &Service{
		residentRepo: residentRepo,
		eventRepo:    eventRepo,
		sanitizer:    sanitizer,
		audit:        auditRec,
	}
}

// Board returns every active resident of the shelter with their presence
// state as of this call. Residents are ordered the way the repository
// lists them; events are grouped per resident before reduction.
func (s *Service) Board(ctx context.Context, shelter string) ([]BoardEntry, error) {
	residents, err := s.residentRepo.ListByShelter(ctx, shelter, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list residents: %w", err)
	}
	events, err := s.eventRepo.ListByShelter(ctx, shelter)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance events: %w", err)
	}

	byResident := make(map[int64][]*model.AttendanceEvent, len(residents))
	for _, ev := range events {
		byResident[ev.ResidentID] = append(byResident[ev.ResidentID], ev)
	}

	now := time.Now()
	entries := make([]BoardEntry, len(residents))
	for i, resident := range residents {
		entries[i] = BoardEntry{
			Resident: *resident,
			Status:   ComputeStatus(byResident[resident.ID], now),
		}
	}
	return entries, nil
}

// RecordEvent validates and appends one attendance event, and audits it.
func (s *Service) RecordEvent(ctx context.Context, in RecordInput) (*model.AttendanceEvent, error) {
	if !in.EventType.Valid() {
		return nil, model.NewInvalidRequestError(fmt.Sprintf("Unknown attendance action %q.", in.EventType))
	}

	resident, err := s.residentRepo.FindByIDInShelter(ctx, in.ResidentID, in.Shelter)
	if err != nil {
		return nil, fmt.Errorf("failed to find resident: %w", err)
	}
	if resident == nil || !resident.IsActive {
		return nil, model.NewResidentNotFoundError(in.ResidentID)
	}

	expectedBack := ""
	if in.EventType == model.EventCheckOut && in.ExpectedBack != "" {
		back, err := clock.ParseInput(in.ExpectedBack)
		if err != nil {
			return nil, model.NewInvalidDateTimeError()
		}
		expectedBack = clock.FormatStored(back)
	}

	event := &model.AttendanceEvent{
		ResidentID:       resident.ID,
		Shelter:          in.Shelter,
		EventType:        in.EventType,
		EventTime:        clock.FormatStored(time.Now()),
		StaffUserID:      in.StaffUserID,
		Note:             s.sanitizer.Sanitize(in.Note),
		ExpectedBackTime: expectedBack,
	}
	if err := s.eventRepo.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to append attendance event: %w", err)
	}

	action := model.AuditActionCheckIn
	if in.EventType == model.EventCheckOut {
		action = model.AuditActionCheckOut
	}
	s.audit.Record(ctx, model.AuditEntry{
		EntityType:  model.AuditEntityAttendance,
		EntityID:    &event.ID,
		Shelter:     &event.Shelter,
		StaffUserID: in.StaffUserID,
		ActionType:  action,
		Details:     fmt.Sprintf("resident %d", resident.ID),
	})

	return event, nil
}

// ShelterTrips rebuilds trip history for every active resident of the
// shelter in one pass, for the export workbook. Events are fetched once
// and grouped per resident, like Board.
func (s *Service) ShelterTrips(ctx context.Context, shelter string) ([]ResidentTrips, error) {
	residents, err := s.residentRepo.ListByShelter(ctx, shelter, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list residents: %w", err)
	}
	events, err := s.eventRepo.ListByShelter(ctx, shelter)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance events: %w", err)
	}

	byResident := make(map[int64][]*model.AttendanceEvent, len(residents))
	for _, ev := range events {
		byResident[ev.ResidentID] = append(byResident[ev.ResidentID], ev)
	}

	trips := make([]ResidentTrips, len(residents))
	for i, resident := range residents {
		trips[i] = ResidentTrips{
			Resident: *resident,
			Trips:    BuildTripHistory(byResident[resident.ID]),
		}
	}
	return trips, nil
}

// TripHistory rebuilds the checkout/return intervals for one resident.
func (s *Service) TripHistory(ctx context.Context, shelter string, residentID int64) (*ResidentTrips, error) {
	resident, err := s.residentRepo.FindByIDInShelter(ctx, residentID, shelter)
	if err != nil {
		return nil, fmt.Errorf("failed to find resident: %w", err)
	}
	if resident == nil {
		return nil, model.NewResidentNotFoundError(residentID)
	}

	events, err := s.eventRepo.ListByResident(ctx, residentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance events: %w", err)
	}

	return &ResidentTrips{
		Resident: *resident,
		Trips:    BuildTripHistory(events),
	}, nil
}
