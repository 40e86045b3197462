// Package resident manages the resident directory and the code gate.
//
// Residents authenticate with an 8-digit code printed on their welcome
// card; there is no password. The code space is small on purpose (it has
// to be typed on a kiosk), so generation retries on collision, the login
// endpoint sits behind an IP rate limit, and every failure is uniform so
// a caller cannot probe which codes exist.
package resident

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/graceworks/shelterops/internal/audit"
	"github.com/graceworks/shelterops/internal/model"
	"github.com/graceworks/shelterops/internal/repository"
	"github.com/graceworks/shelterops/internal/security"
)

// codeAttempts bounds how many times code generation retries after a
// uniqueness collision before giving up.
const codeAttempts = 10

// codeSpace is 10^ResidentCodeLength.
const codeSpace = 100_000_000

var codePattern = regexp.MustCompile(`^[0-9]{8}$`)

// CreateInput is a new resident as entered by staff.
type CreateInput struct {
	FirstName string
	LastName  string
	Phone     string
}

// Service implements the resident directory and code-gated
// authentication.
type Service struct {
	residentRepo  repository.ResidentRepository
	sessionRepo   repository.ResidentSessionRepository
	sanitizer     security.TextSanitizerService
	audit         audit.Recorder
	shelters      []string
	sessionMaxAge time.Duration
}

// NewService creates the resident Service.
func NewService(
	residentRepo repository.ResidentRepository,
	sessionRepo repository.ResidentSessionRepository,
	sanitizer security.TextSanitizerService,
	auditRec audit.Recorder,
	shelters []string,
	sessionMaxAge time.Duration,
) *Service {
	return &Service{
		residentRepo:  residentRepo,
		sessionRepo:   sessionRepo,
		sanitizer:     sanitizer,
		audit:         auditRec,
		shelters:      shelters,
		sessionMaxAge: sessionMaxAge,
	}
}

// Create adds a resident to the staff member's shelter and issues their
// code. The identifier is an opaque UUID that outlives later edits to
// the row; requests snapshot it instead of the numeric id.
func (s *Service) Create(ctx context.Context, staff model.StaffIdentity, in CreateInput) (*model.Resident, error) {
	firstName := s.sanitizer.Sanitize(in.FirstName)
	lastName := s.sanitizer.Sanitize(in.LastName)
	phone := s.sanitizer.Sanitize(in.Phone)

	if firstName == "" || lastName == "" {
		return nil, model.NewMissingFieldsError()
	}

	resident := &model.Resident{
		Shelter:    staff.Shelter,
		Identifier: uuid.NewString(),
		FirstName:  firstName,
		LastName:   lastName,
		Phone:      phone,
		IsActive:   true,
	}

	// Insert under a fresh code; a collision on the unique code column
	// means regenerate and try again, any other failure is real.
	var inserted bool
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate resident code: %w", err)
		}
		resident.Code = &code

		err = s.residentRepo.Create(ctx, resident)
		if err == nil {
			inserted = true
			break
		}
		if !repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create resident: %w", err)
		}
	}
	if !inserted {
		slog.Error("resident code space exhausted",
			"shelter", staff.Shelter,
			"attempts", codeAttempts,
		)
		return nil, model.NewCodeSpaceExhaustedError()
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType:  model.AuditEntityResident,
		EntityID:    &resident.ID,
		Shelter:     &resident.Shelter,
		StaffUserID: &staff.StaffUserID,
		ActionType:  model.AuditActionCreate,
		Details:     resident.FullName(),
	})

	return resident, nil
}

// List returns the shelter's residents, backfilling codes for legacy
// rows that predate the code gate. Backfill failures are logged and the
// row is returned without a code; the listing itself never fails over
// notification-grade work.
func (s *Service) List(ctx context.Context, shelter string, includeInactive bool) ([]*model.Resident, error) {
	residents, err := s.residentRepo.ListByShelter(ctx, shelter, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list residents: %w", err)
	}

	for _, resident := range residents {
		if resident.Code != nil {
			continue
		}
		if err := s.backfillCode(ctx, resident); err != nil {
			slog.Warn("resident code backfill failed",
				"resident_id", resident.ID,
				"shelter", resident.Shelter,
				"error", err,
			)
		}
	}

	return residents, nil
}

// backfillCode issues a code for a legacy row. AssignCode only writes
// when the column is still null, so a concurrent backfill loses cleanly
// and we pick up the winner's code with a reload.
func (s *Service) backfillCode(ctx context.Context, resident *model.Resident) error {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return fmt.Errorf("failed to generate resident code: %w", err)
		}

		ok, err := s.residentRepo.AssignCode(ctx, resident.ID, code)
		if err != nil {
			if repository.IsUniqueViolation(err) {
				continue
			}
			return fmt.Errorf("failed to assign resident code: %w", err)
		}
		if !ok {
			// Someone else filled it in; read theirs back.
			current, err := s.residentRepo.FindByID(ctx, resident.ID)
			if err != nil {
				return fmt.Errorf("failed to reload resident: %w", err)
			}
			if current != nil {
				resident.Code = current.Code
			}
			return nil
		}

		resident.Code = &code
		s.audit.Record(ctx, model.AuditEntry{
			EntityType: model.AuditEntityResident,
			EntityID:   &resident.ID,
			Shelter:    &resident.Shelter,
			ActionType: model.AuditActionCodeIssued,
			Details:    "backfilled legacy row",
		})
		return nil
	}
	return model.NewCodeSpaceExhaustedError()
}

// SetActive flips a resident's active flag. Deactivation is the only
// removal; attendance history stays keyed to the row.
func (s *Service) SetActive(ctx context.Context, staff model.StaffIdentity, id int64, active bool) error {
	ok, err := s.residentRepo.SetActive(ctx, id, staff.Shelter, active)
	if err != nil {
		return fmt.Errorf("failed to set resident active flag: %w", err)
	}
	if !ok {
		return model.NewResidentNotFoundError(id)
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType:  model.AuditEntityResident,
		EntityID:    &id,
		Shelter:     &staff.Shelter,
		StaffUserID: &staff.StaffUserID,
		ActionType:  model.AuditActionSetActive,
		Details:     fmt.Sprintf("active=%t", active),
	})

	return nil
}

// AuthenticateByCode opens a self-service session for the resident
// holding the code. A malformed code and a code that matches no active
// resident fail identically.
func (s *Service) AuthenticateByCode(ctx context.Context, shelter, code string) (*model.Resident, *model.ResidentSession, error) {
	if !s.validShelter(shelter) {
		return nil, nil, model.NewInvalidShelterError(shelter)
	}

	resident, err := s.lookup(ctx, shelter, code)
	if err != nil {
		return nil, nil, err
	}

	session := &model.ResidentSession{
		ID:         uuid.NewString(),
		ResidentID: resident.ID,
		Shelter:    shelter,
		ExpiresAt:  time.Now().UTC().Add(s.sessionMaxAge),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create resident session: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType: model.AuditEntityResident,
		EntityID:   &resident.ID,
		Shelter:    &shelter,
		ActionType: model.AuditActionLogin,
		Details:    resident.Identifier,
	})

	return resident, session, nil
}

// LookupByCode resolves a code without opening a session. The kiosk
// authenticates every action this way.
func (s *Service) LookupByCode(ctx context.Context, shelter, code string) (*model.Resident, error) {
	if !s.validShelter(shelter) {
		return nil, model.NewInvalidShelterError(shelter)
	}
	return s.lookup(ctx, shelter, code)
}

// Logout closes the resident's session.
func (s *Service) Logout(ctx context.Context, resident model.ResidentIdentity) error {
	if err := s.sessionRepo.DeleteByID(ctx, resident.SessionID); err != nil {
		return fmt.Errorf("failed to delete resident session: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType: model.AuditEntityResident,
		EntityID:   &resident.ResidentID,
		Shelter:    &resident.Shelter,
		ActionType: model.AuditActionLogout,
		Details:    resident.Identifier,
	})

	return nil
}

// SetSMSConsent records the resident's answer to the one-time consent
// prompt on the session.
func (s *Service) SetSMSConsent(ctx context.Context, resident model.ResidentIdentity, consent bool) error {
	if err := s.sessionRepo.SetSMSConsent(ctx, resident.SessionID, consent); err != nil {
		return fmt.Errorf("failed to record sms consent: %w", err)
	}

	s.audit.Record(ctx, model.AuditEntry{
		EntityType: model.AuditEntityResident,
		EntityID:   &resident.ResidentID,
		Shelter:    &resident.Shelter,
		ActionType: model.AuditActionConsent,
		Details:    fmt.Sprintf("consent=%t", consent),
	})

	return nil
}

// Shelters returns the configured roster.
func (s *Service) Shelters() []string {
	return s.shelters
}

func (s *Service) lookup(ctx context.Context, shelter, code string) (*model.Resident, error) {
	if !codePattern.MatchString(code) {
		return nil, model.NewInvalidResidentCodeError()
	}

	resident, err := s.residentRepo.FindActiveByShelterAndCode(ctx, shelter, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up resident by code: %w", err)
	}
	if resident == nil {
		return nil, model.NewInvalidResidentCodeError()
	}
	return resident, nil
}

func (s *Service) validShelter(shelter string) bool {
	for _, name := range s.shelters {
		if name == shelter {
			return true
		}
	}
	return false
}

// randomCode draws an 8-digit code uniformly from crypto/rand.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", model.ResidentCodeLength, n.Int64()), nil
}
