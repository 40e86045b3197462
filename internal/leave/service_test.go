package leave

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/graceworks/shelterops/internal/clock"
	"github.com/graceworks/shelterops/internal/model"
	"github.com/graceworks/shelterops/internal/security"
)

// --- mocks ---

type mockLeaveRepo struct {
	createFn                func(ctx context.Context, request *model.LeaveRequest) error
	findByIDInShelterFn     func(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error)
	listPendingFn           func(ctx context.Context, shelter string) ([]*model.LeaveRequest, error)
	listAwayNowFn           func(ctx context.Context, shelter string, now time.Time) ([]*model.LeaveRequest, error)
	listOverdueCandidatesFn func(ctx context.Context, shelter string, horizon time.Time) ([]*model.LeaveRequest, error)
	markApprovedFn          func(ctx context.Context, id int64, shelter string, staffUserID int64, note string, decidedAt time.Time) (bool, error)
	markDeniedFn            func(ctx context.Context, id int64, shelter string, staffUserID int64, note string, decidedAt time.Time) (bool, error)
	markCheckedInFn         func(ctx context.Context, id int64, shelter string, staffUserID int64, checkInAt time.Time) (bool, error)
}

func (m *mockLeaveRepo) Create(ctx context.Context, request *model.LeaveRequest) error {
	if m.createFn != nil {
		return m.createFn(ctx, request)
	}
	return nil
}
func (m *mockLeaveRepo) FindByIDInShelter(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error) {
	return m.findByIDInShelterFn(ctx, id, shelter)
}
func (m *mockLeaveRepo) ListPending(ctx context.Context, shelter string) ([]*model.LeaveRequest, error) {
	return m.listPendingFn(ctx, shelter)
}
func (m *mockLeaveRepo) ListAwayNow(ctx context.Context, shelter string, now time.Time) ([]*model.LeaveRequest, error) {
	return m.listAwayNowFn(ctx, shelter, now)
}
func (m *mockLeaveRepo) ListOverdueCandidates(ctx context.Context, shelter string, horizon time.Time) ([]*model.LeaveRequest, error) {
	return m.listOverdueCandidatesFn(ctx, shelter, horizon)
}
func (m *mockLeaveRepo) MarkApproved(ctx context.Context, id int64, shelter string, staffUserID int64, note string, decidedAt time.Time) (bool, error) {
	return m.markApprovedFn(ctx, id, shelter, staffUserID, note, decidedAt)
}
func (m *mockLeaveRepo) MarkDenied(ctx context.Context, id int64, shelter string, staffUserID int64, note string, decidedAt time.Time) (bool, error) {
	return m.markDeniedFn(ctx, id, shelter, staffUserID, note, decidedAt)
}
func (m *mockLeaveRepo) MarkCheckedIn(ctx context.Context, id int64, shelter string, staffUserID int64, checkInAt time.Time) (bool, error) {
	return m.markCheckedInFn(ctx, id, shelter, staffUserID, checkInAt)
}

type mockSMS struct {
	sendFn func(ctx context.Context, rawPhone, body string) (bool, error)
	calls  int
}

func (m *mockSMS) Send(ctx context.Context, rawPhone, body string) (bool, error) {
	m.calls++
	if m.sendFn != nil {
		return m.sendFn(ctx, rawPhone, body)
	}
	return true, nil
}

type captureAudit struct {
	entries []model.AuditEntry
}

func (c *captureAudit) Record(ctx context.Context, entry model.AuditEntry) {
	c.entries = append(c.entries, entry)
}

func (c *captureAudit) actions() []model.AuditActionType {
	var actions []model.AuditActionType
	for _, e := range c.entries {
		actions = append(actions, e.ActionType)
	}
	return actions
}

func newTestService(repo *mockLeaveRepo, sms *mockSMS, auditRec *captureAudit) *Service {
	return NewService(repo, security.NewTextSanitizer(), sms, auditRec)
}

func testResident() model.ResidentIdentity {
	return model.ResidentIdentity{
		ResidentID: 8,
		Identifier: "uuid-8",
		FirstName:  "Jo",
		LastName:   "Ramirez",
		Phone:      "555-867-5309",
		Shelter:    "Haven",
		SessionID:  "rsess-1",
	}
}

func staffAt(shelter string) model.StaffIdentity {
	return model.StaffIdentity{StaffUserID: 3, Username: "pat", Role: model.RoleStaff, Shelter: shelter}
}

func requestIn(status model.LeaveStatus) *model.LeaveRequest {
	return &model.LeaveRequest{
		ID:            10,
		Shelter:       "Haven",
		FirstName:     "Jo",
		LastName:      "Ramirez",
		ResidentPhone: "555-867-5309",
		LeaveAt:       time.Now().UTC(),
		ReturnAt:      time.Now().UTC().Add(24 * time.Hour),
		Status:        status,
	}
}

// formInput renders an instant as a datetime-local form value in
// Central time.
func formInput(t time.Time) string {
	return t.In(clock.Central()).Format("2006-01-02T15:04")
}

// --- submit ---

func TestService_Submit_Success(t *testing.T) {
	var created *model.LeaveRequest
	repo := &mockLeaveRepo{
		createFn: func(ctx context.Context, request *model.LeaveRequest) error {
			request.ID = 10
			created = request
			return nil
		},
	}
	auditRec := &captureAudit{}

	leaveAt := time.Now().Add(time.Hour)
	returnAt := leaveAt.Add(48 * time.Hour)
	got, err := newTestService(repo, &mockSMS{}, auditRec).Submit(context.Background(), testResident(), SubmitInput{
		Destination: " <b>family</b> ",
		Reason:      "visit",
		Notes:       "back Sunday",
		LeaveAt:     formInput(leaveAt),
		ReturnAt:    formInput(returnAt),
		Agreement:   true,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if created == nil {
		t.Fatal("expected a request to be inserted")
	}
	if got.Destination != "family" {
		t.Errorf("Destination = %q, markup and whitespace should be stripped", got.Destination)
	}
	if got.Shelter != "Haven" || got.ResidentIdentifier != "uuid-8" || got.ResidentPhone != "555-867-5309" {
		t.Error("identity fields must be snapshotted from the session")
	}
	if got.Status != model.LeavePending {
		t.Errorf("Status = %q, want pending", got.Status)
	}
	if len(auditRec.entries) != 1 || auditRec.entries[0].ActionType != model.AuditActionCreate {
		t.Errorf("expected one create audit entry, got %+v", auditRec.entries)
	}
}

func TestService_Submit_SevenDayBoundaryInclusive(t *testing.T) {
	repo := &mockLeaveRepo{
		createFn: func(ctx context.Context, request *model.LeaveRequest) error {
			request.ID = 10
			return nil
		},
	}
	svc := newTestService(repo, &mockSMS{}, &captureAudit{})

	leaveAt := time.Date(2026, 6, 1, 10, 0, 0, 0, clock.Central())

	// Exactly seven days is allowed.
	_, err := svc.Submit(context.Background(), testResident(), SubmitInput{
		Destination: "family",
		Reason:      "visit",
		LeaveAt:     formInput(leaveAt),
		ReturnAt:    formInput(leaveAt.AddDate(0, 0, model.MaxLeaveDays)),
		Agreement:   true,
	})
	if err != nil {
		t.Fatalf("exactly %d days should be accepted: %v", model.MaxLeaveDays, err)
	}

	// One minute past the boundary is not.
	_, err = svc.Submit(context.Background(), testResident(), SubmitInput{
		Destination: "family",
		Reason:      "visit",
		LeaveAt:     formInput(leaveAt),
		ReturnAt:    formInput(leaveAt.AddDate(0, 0, model.MaxLeaveDays).Add(time.Minute)),
		Agreement:   true,
	})
	assertAPICode(t, err, model.ErrCodeMaxLeaveExceeded)
}

func TestService_Submit_ReturnBeforeLeave(t *testing.T) {
	svc := newTestService(&mockLeaveRepo{}, &mockSMS{}, &captureAudit{})
	leaveAt := time.Now().Add(24 * time.Hour)
	_, err := svc.Submit(context.Background(), testResident(), SubmitInput{
		Destination: "family",
		Reason:      "visit",
		LeaveAt:     formInput(leaveAt),
		ReturnAt:    formInput(leaveAt.Add(-time.Hour)),
		Agreement:   true,
	})
	assertAPICode(t, err, model.ErrCodeReturnBeforeLeave)
}

func TestService_Submit_AgreementRequired(t *testing.T) {
	createCalled := false
	repo := &mockLeaveRepo{
		createFn: func(ctx context.Context, request *model.LeaveRequest) error {
			createCalled = true
			return nil
		},
	}

	leaveAt := time.Now().Add(time.Hour)
	_, err := newTestService(repo, &mockSMS{}, &captureAudit{}).Submit(context.Background(), testResident(), SubmitInput{
		Destination: "family",
		Reason:      "visit",
		LeaveAt:     formInput(leaveAt),
		ReturnAt:    formInput(leaveAt.Add(24 * time.Hour)),
		Agreement:   false,
	})
	assertAPICode(t, err, model.ErrCodeAgreementRequired)
	if createCalled {
		t.Error("validation failures must not write requests")
	}
}

func TestService_Submit_MissingFields(t *testing.T) {
	svc := newTestService(&mockLeaveRepo{}, &mockSMS{}, &captureAudit{})
	_, err := svc.Submit(context.Background(), testResident(), SubmitInput{
		Destination: "family",
		Agreement:   true,
	})
	assertAPICode(t, err, model.ErrCodeMissingFields)
}

func TestService_Submit_BadDateTime(t *testing.T) {
	svc := newTestService(&mockLeaveRepo{}, &mockSMS{}, &captureAudit{})
	_, err := svc.Submit(context.Background(), testResident(), SubmitInput{
		Destination: "family",
		Reason:      "visit",
		LeaveAt:     "next tuesday",
		ReturnAt:    "after that",
		Agreement:   true,
	})
	assertAPICode(t, err, model.ErrCodeInvalidDateTime)
}

// --- approve / deny / check-in ---

func TestService_Approve_SendsSMSAndAudits(t *testing.T) {
	repo := &mockLeaveRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error) {
			return requestIn(model.LeavePending), nil
		},
		markApprovedFn: func(ctx context.Context, id int64, shelter string, staffUserID int64, note string, decidedAt time.Time) (bool, error) {
			return true, nil
		},
	}
	sms := &mockSMS{}
	auditRec := &captureAudit{}

	_, err := newTestService(repo, sms, auditRec).Approve(context.Background(), staffAt("Haven"), 10, "ok")
	if err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	if sms.calls != 1 {
		t.Errorf("sms calls = %d, want 1", sms.calls)
	}
	got := auditRec.actions()
	if len(got) != 2 || got[0] != model.AuditActionApprove || got[1] != model.AuditActionSMSSent {
		t.Errorf("audit actions = %v, want [approve sms_sent]", got)
	}
}

func TestService_Approve_SMSFailureIsSwallowed(t *testing.T) {
	repo := &mockLeaveRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error) {
			return requestIn(model.LeavePending), nil
		},
		markApprovedFn: func(ctx context.Context, id int64, shelter string, staffUserID int64, note string, decidedAt time.Time) (bool, error) {
			return true, nil
		},
	}
	sms := &mockSMS{
		sendFn: func(ctx context.Context, rawPhone, body string) (bool, error) {
			return false, errors.New("provider down")
		},
	}
	auditRec := &captureAudit{}

	// The approval stands even though the text never went out.
	_, err := newTestService(repo, sms, auditRec).Approve(context.Background(), staffAt("Haven"), 10, "ok")
	if err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	got := auditRec.actions()
	if len(got) != 2 || got[0] != model.AuditActionApprove || got[1] != model.AuditActionSMSFailed {
		t.Errorf("audit actions = %v, want [approve sms_failed]", got)
	}
}

func TestService_Approve_SkippedSMSLeavesNoSMSAudit(t *testing.T) {
	repo := &mockLeaveRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error) {
			return requestIn(model.LeavePending), nil
		},
		markApprovedFn: func(ctx context.Context, id int64, shelter string, staffUserID int64, note string, decidedAt time.Time) (bool, error) {
			return true, nil
		},
	}
	sms := &mockSMS{
		sendFn: func(ctx context.Context, rawPhone, body string) (bool, error) {
			return false, nil // sender disabled
		},
	}
	auditRec := &captureAudit{}

	_, err := newTestService(repo, sms, auditRec).Approve(context.Background(), staffAt("Haven"), 10, "ok")
	if err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	got := auditRec.actions()
	if len(got) != 1 || got[0] != model.AuditActionApprove {
		t.Errorf("audit actions = %v, want [approve] only", got)
	}
}

func TestService_Approve_NonPendingRejected(t *testing.T) {
	for _, status := range []model.LeaveStatus{model.LeaveApproved, model.LeaveDenied, model.LeaveCheckedIn} {
		repo := &mockLeaveRepo{
			findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error) {
				return requestIn(status), nil
			},
		}
		_, err := newTestService(repo, &mockSMS{}, &captureAudit{}).Approve(context.Background(), staffAt("Haven"), 10, "")
		assertAPICode(t, err, model.ErrCodeStaleTransition)
	}
}

func TestService_Approve_LostRaceSendsNoSMS(t *testing.T) {
	repo := &mockLeaveRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error) {
			return requestIn(model.LeavePending), nil
		},
		markApprovedFn: func(ctx context.Context, id int64, shelter string, staffUserID int64, note string, decidedAt time.Time) (bool, error) {
			return false, nil
		},
	}
	sms := &mockSMS{}

	_, err := newTestService(repo, sms, &captureAudit{}).Approve(context.Background(), staffAt("Haven"), 10, "")
	assertAPICode(t, err, model.ErrCodeStaleTransition)
	if sms.calls != 0 {
		t.Error("a lost race must not trigger the SMS")
	}
}

func TestService_Approve_UnknownRequest(t *testing.T) {
	repo := &mockLeaveRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error) {
			return nil, nil
		},
	}
	_, err := newTestService(repo, &mockSMS{}, &captureAudit{}).Approve(context.Background(), staffAt("Haven"), 404, "")
	assertAPICode(t, err, model.ErrCodeRequestNotFound)
}

func TestService_Deny_NoteRequired(t *testing.T) {
	repo := &mockLeaveRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error) {
			t.Error("the note check comes before any read")
			return nil, nil
		},
	}
	svc := newTestService(repo, &mockSMS{}, &captureAudit{})

	// Markup-only input sanitizes to empty and fails the same check.
	for _, note := range []string{"", "   ", "<b></b>"} {
		_, err := svc.Deny(context.Background(), staffAt("Haven"), 10, note)
		assertAPICode(t, err, model.ErrCodeNoteRequired)
	}
}

func TestService_Deny_SendsNoSMS(t *testing.T) {
	repo := &mockLeaveRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error) {
			return requestIn(model.LeavePending), nil
		},
		markDeniedFn: func(ctx context.Context, id int64, shelter string, staffUserID int64, note string, decidedAt time.Time) (bool, error) {
			return true, nil
		},
	}
	sms := &mockSMS{}
	auditRec := &captureAudit{}

	_, err := newTestService(repo, sms, auditRec).Deny(context.Background(), staffAt("Haven"), 10, "curfew history")
	if err != nil {
		t.Fatalf("Deny returned error: %v", err)
	}
	if sms.calls != 0 {
		t.Error("denials are not texted")
	}
	got := auditRec.actions()
	if len(got) != 1 || got[0] != model.AuditActionDeny {
		t.Errorf("audit actions = %v, want [deny]", got)
	}
}

func TestService_CheckIn_Success(t *testing.T) {
	repo := &mockLeaveRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error) {
			return requestIn(model.LeaveApproved), nil
		},
		markCheckedInFn: func(ctx context.Context, id int64, shelter string, staffUserID int64, checkInAt time.Time) (bool, error) {
			return true, nil
		},
	}
	auditRec := &captureAudit{}

	_, err := newTestService(repo, &mockSMS{}, auditRec).CheckIn(context.Background(), staffAt("Haven"), 10)
	if err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}
	got := auditRec.actions()
	if len(got) != 1 || got[0] != model.AuditActionCheckIn {
		t.Errorf("audit actions = %v, want [check_in]", got)
	}
}

func TestService_CheckIn_SecondAttemptRejected(t *testing.T) {
	checkInAt := time.Now().UTC()
	repo := &mockLeaveRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error) {
			r := requestIn(model.LeaveApproved)
			r.CheckInAt = &checkInAt
			return r, nil
		},
		markCheckedInFn: func(ctx context.Context, id int64, shelter string, staffUserID int64, checkInAt time.Time) (bool, error) {
			t.Error("a second check-in must not reach the store")
			return false, nil
		},
	}

	_, err := newTestService(repo, &mockSMS{}, &captureAudit{}).CheckIn(context.Background(), staffAt("Haven"), 10)
	assertAPICode(t, err, model.ErrCodeStaleTransition)
}

func TestService_CheckIn_FromPendingRejected(t *testing.T) {
	repo := &mockLeaveRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error) {
			return requestIn(model.LeavePending), nil
		},
	}
	_, err := newTestService(repo, &mockSMS{}, &captureAudit{}).CheckIn(context.Background(), staffAt("Haven"), 10)
	assertAPICode(t, err, model.ErrCodeStaleTransition)
}

// --- views ---

func TestService_Overdue_AppliesCurfewCutoffPerRow(t *testing.T) {
	now := time.Now().UTC()
	central := clock.Central()
	localNow := now.In(central)

	// Return date yesterday: its 10 PM cutoff has passed. Return date
	// tomorrow: it has not, even though the repo returned it as a
	// candidate.
	pastReturn := requestIn(model.LeaveApproved)
	pastReturn.ID = 1
	pastReturn.ReturnAt = time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 12, 0, 0, 0, central).AddDate(0, 0, -1)

	futureReturn := requestIn(model.LeaveApproved)
	futureReturn.ID = 2
	futureReturn.ReturnAt = time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 12, 0, 0, 0, central).AddDate(0, 0, 1)

	repo := &mockLeaveRepo{
		listOverdueCandidatesFn: func(ctx context.Context, shelter string, horizon time.Time) ([]*model.LeaveRequest, error) {
			if !horizon.After(now) {
				t.Error("the scan horizon should extend past now")
			}
			return []*model.LeaveRequest{pastReturn, futureReturn}, nil
		},
	}

	overdue, err := newTestService(repo, &mockSMS{}, &captureAudit{}).Overdue(context.Background(), "Haven")
	if err != nil {
		t.Fatalf("Overdue returned error: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != 1 {
		t.Errorf("overdue = %+v, want only the request whose curfew has passed", overdue)
	}
}

func TestService_Pending(t *testing.T) {
	repo := &mockLeaveRepo{
		listPendingFn: func(ctx context.Context, shelter string) ([]*model.LeaveRequest, error) {
			if shelter != "Haven" {
				t.Errorf("shelter = %q, want Haven", shelter)
			}
			return []*model.LeaveRequest{requestIn(model.LeavePending)}, nil
		},
	}
	got, err := newTestService(repo, &mockSMS{}, &captureAudit{}).Pending(context.Background(), "Haven")
	if err != nil {
		t.Fatalf("Pending returned error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 pending request, got %d", len(got))
	}
}

func TestService_AwayNow(t *testing.T) {
	repo := &mockLeaveRepo{
		listAwayNowFn: func(ctx context.Context, shelter string, now time.Time) ([]*model.LeaveRequest, error) {
			return []*model.LeaveRequest{requestIn(model.LeaveApproved)}, nil
		},
	}
	got, err := newTestService(repo, &mockSMS{}, &captureAudit{}).AwayNow(context.Background(), "Haven")
	if err != nil {
		t.Fatalf("AwayNow returned error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 away request, got %d", len(got))
	}
}

func assertAPICode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != code {
		t.Errorf("code = %q, want %q", apiErr.Code, code)
	}
}
