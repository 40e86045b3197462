package transport

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

type mockTransportRepo struct {
	createFn            func(ctx context.Context, request *model.TransportRequest) error
	findByIDInShelterFn func(ctx context.Context, id int64, shelter string) (*model.TransportRequest, error)
	listPendingFn       func(ctx context.Context, shelter string) ([]*model.TransportRequest, error)
	listActiveFn        func(ctx context.Context, shelter string) ([]*model.TransportRequest, error)
	markScheduledFn     func(ctx context.Context, id int64, shelter string, staffUserID int64, driverName, staffNotes string, scheduledAt time.Time) (bool, error)
	markCompletedFn     func(ctx context.Context, id int64, shelter string, staffUserID int64, completedAt time.Time) (bool, error)
	markCancelledFn     func(ctx context.Context, id int64, shelter string, staffUserID int64, reason string, cancelledAt time.Time) (bool, error)
}

func (m *mockTransportRepo) Create(ctx context.Context, request *model.TransportRequest) error {
	if m.createFn != nil {
		return m.createFn(ctx, request)
	}
	return nil
}
func (m *mockTransportRepo) FindByIDInShelter(ctx context.Context, id int64, shelter string) (*model.TransportRequest, error) {
	return m.findByIDInShelterFn(ctx, id, shelter)
}
func (m *mockTransportRepo) ListPending(ctx context.Context, shelter string) ([]*model.TransportRequest, error) {
	return m.listPendingFn(ctx, shelter)
}
func (m *mockTransportRepo) ListActive(ctx context.Context, shelter string) ([]*model.TransportRequest, error) {
	return m.listActiveFn(ctx, shelter)
}
func (m *mockTransportRepo) MarkScheduled(ctx context.Context, id int64, shelter string, staffUserID int64, driverName, staffNotes string, scheduledAt time.Time) (bool, error) {
	return m.markScheduledFn(ctx, id, shelter, staffUserID, driverName, staffNotes, scheduledAt)
}
func (m *mockTransportRepo) MarkCompleted(ctx context.Context, id int64, shelter string, staffUserID int64, completedAt time.Time) (bool, error) {
	return m.markCompletedFn(ctx, id, shelter, staffUserID, completedAt)
}
func (m *mockTransportRepo) MarkCancelled(ctx context.Context, id int64, shelter string, staffUserID int64, reason string, cancelledAt time.Time) (bool, error) {
	return m.markCancelledFn(ctx, id, shelter, staffUserID, reason, cancelledAt)
}

type captureAudit struct {
	entries []model.AuditEntry
}

func (c *captureAudit) Record(ctx context.Context, entry model.AuditEntry) {
	c.entries = append(c.entries, entry)
}

func newTestService(repo *mockTransportRepo, auditRec *captureAudit) *Service {
	return NewService(repo, security.NewTextSanitizer(), auditRec)
}

func testResident() model.ResidentIdentity {
	return model.ResidentIdentity{
		ResidentID: 8,
		Identifier: "uuid-8",
		FirstName:  "Jo",
		LastName:   "Ramirez",
		Shelter:    "Haven",
		SessionID:  "rsess-1",
	}
}

func staffAt(shelter string) model.StaffIdentity {
	return model.StaffIdentity{StaffUserID: 3, Username: "pat", Role: model.RoleStaff, Shelter: shelter}
}

func requestIn(status model.TransportStatus) *model.TransportRequest {
	return &model.TransportRequest{
		ID:      10,
		Shelter: "Haven",
		Status:  status,
	}
}

// futureInput renders a needed-at time an hour out in the form format.
func futureInput() string {
	return time.Now().In(clock.Central()).Add(time.Hour).Format("2006-01-02T15:04")
}

// --- tests ---

func TestService_Submit_Success(t *testing.T) {
	var created *model.TransportRequest
	repo := &mockTransportRepo{
		createFn: func(ctx context.Context, request *model.TransportRequest) error {
			request.ID = 10
			created = request
			return nil
		},
	}
	auditRec := &captureAudit{}

	got, err := newTestService(repo, auditRec).Submit(context.Background(), testResident(), SubmitInput{
		NeededAt:       futureInput(),
		PickupLocation: " <b>front door</b> ",
		Destination:    "clinic",
		Reason:         "appointment",
		Notes:          "wheelchair",
		CallbackPhone:  "555-867-5309",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if created == nil {
		t.Fatal("expected a request to be inserted")
	}
	if got.PickupLocation != "front door" {
		t.Errorf("PickupLocation = %q, markup and whitespace should be stripped", got.PickupLocation)
	}
	if got.Shelter != "Haven" || got.ResidentIdentifier != "uuid-8" {
		t.Error("identity fields must be snapshotted from the session")
	}
	if got.Status != model.TransportPending {
		t.Errorf("Status = %q, want pending", got.Status)
	}
	if len(auditRec.entries) != 1 || auditRec.entries[0].ActionType != model.AuditActionCreate {
		t.Errorf("expected one create audit entry, got %+v", auditRec.entries)
	}
}

func TestService_Submit_MissingFields(t *testing.T) {
	svc := newTestService(&mockTransportRepo{}, &captureAudit{})
	_, err := svc.Submit(context.Background(), testResident(), SubmitInput{
		NeededAt:    futureInput(),
		Destination: "clinic",
		Reason:      "appointment",
	})
	assertAPICode(t, err, model.ErrCodeMissingFields)
}

func TestService_Submit_BadDateTime(t *testing.T) {
	svc := newTestService(&mockTransportRepo{}, &captureAudit{})
	_, err := svc.Submit(context.Background(), testResident(), SubmitInput{
		NeededAt:       "tomorrow-ish",
		PickupLocation: "front door",
		Destination:    "clinic",
		Reason:         "appointment",
	})
	assertAPICode(t, err, model.ErrCodeInvalidDateTime)
}

func TestService_Submit_NeededTimeInPast(t *testing.T) {
	createCalled := false
	repo := &mockTransportRepo{
		createFn: func(ctx context.Context, request *model.TransportRequest) error {
			createCalled = true
			return nil
		},
	}

	past := time.Now().In(clock.Central()).Add(-2 * time.Hour).Format("2006-01-02T15:04")
	_, err := newTestService(repo, &captureAudit{}).Submit(context.Background(), testResident(), SubmitInput{
		NeededAt:       past,
		PickupLocation: "front door",
		Destination:    "clinic",
		Reason:         "appointment",
	})
	assertAPICode(t, err, model.ErrCodeNeededTimeInPast)
	if createCalled {
		t.Error("validation failures must not write requests")
	}
}

func TestService_Submit_SlackForgivesAMomentAgo(t *testing.T) {
	repo := &mockTransportRepo{
		createFn: func(ctx context.Context, request *model.TransportRequest) error {
			request.ID = 10
			return nil
		},
	}

	// 30 seconds ago is inside the one-minute slack.
	justPast := time.Now().In(clock.Central()).Add(-30 * time.Second).Format("2006-01-02T15:04:05")
	_, err := newTestService(repo, &captureAudit{}).Submit(context.Background(), testResident(), SubmitInput{
		NeededAt:       justPast,
		PickupLocation: "front door",
		Destination:    "clinic",
		Reason:         "appointment",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
}

func TestService_Schedule_Success(t *testing.T) {
	var gotDriver string
	repo := &mockTransportRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.TransportRequest, error) {
			return requestIn(model.TransportPending), nil
		},
		markScheduledFn: func(ctx context.Context, id int64, shelter string, staffUserID int64, driverName, staffNotes string, scheduledAt time.Time) (bool, error) {
			gotDriver = driverName
			return true, nil
		},
	}
	auditRec := &captureAudit{}

	_, err := newTestService(repo, auditRec).Schedule(context.Background(), staffAt("Haven"), 10, "Marcus", "van 2")
	if err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}
	if gotDriver != "Marcus" {
		t.Errorf("driver = %q, want Marcus", gotDriver)
	}
	if len(auditRec.entries) != 1 || auditRec.entries[0].ActionType != model.AuditActionSchedule {
		t.Errorf("expected one schedule audit entry, got %+v", auditRec.entries)
	}
}

func TestService_Schedule_DriverRequired(t *testing.T) {
	repo := &mockTransportRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.TransportRequest, error) {
			t.Error("the driver check comes before any read")
			return nil, nil
		},
	}
	_, err := newTestService(repo, &captureAudit{}).Schedule(context.Background(), staffAt("Haven"), 10, "  ", "")
	assertAPICode(t, err, model.ErrCodeDriverRequired)
}

func TestService_Schedule_NonPendingRejected(t *testing.T) {
	repo := &mockTransportRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.TransportRequest, error) {
			return requestIn(model.TransportCompleted), nil
		},
	}
	_, err := newTestService(repo, &captureAudit{}).Schedule(context.Background(), staffAt("Haven"), 10, "Marcus", "")
	assertAPICode(t, err, model.ErrCodeStaleTransition)
}

func TestService_Schedule_LostRace(t *testing.T) {
	repo := &mockTransportRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.TransportRequest, error) {
			return requestIn(model.TransportPending), nil
		},
		markScheduledFn: func(ctx context.Context, id int64, shelter string, staffUserID int64, driverName, staffNotes string, scheduledAt time.Time) (bool, error) {
			return false, nil
		},
	}
	auditRec := &captureAudit{}

	_, err := newTestService(repo, auditRec).Schedule(context.Background(), staffAt("Haven"), 10, "Marcus", "")
	assertAPICode(t, err, model.ErrCodeStaleTransition)
	if len(auditRec.entries) != 0 {
		t.Error("a lost race must not write audit entries")
	}
}

func TestService_Schedule_UnknownRequest(t *testing.T) {
	repo := &mockTransportRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.TransportRequest, error) {
			return nil, nil
		},
	}
	_, err := newTestService(repo, &captureAudit{}).Schedule(context.Background(), staffAt("Haven"), 404, "Marcus", "")
	assertAPICode(t, err, model.ErrCodeRequestNotFound)
}

func TestService_Complete_OnlyFromScheduled(t *testing.T) {
	repo := &mockTransportRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.TransportRequest, error) {
			return requestIn(model.TransportPending), nil
		},
	}
	_, err := newTestService(repo, &captureAudit{}).Complete(context.Background(), staffAt("Haven"), 10)
	assertAPICode(t, err, model.ErrCodeStaleTransition)
}

func TestService_Complete_Success(t *testing.T) {
	completed := requestIn(model.TransportScheduled)
	repo := &mockTransportRepo{
		findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.TransportRequest, error) {
			return completed, nil
		},
		markCompletedFn: func(ctx context.Context, id int64, shelter string, staffUserID int64, completedAt time.Time) (bool, error) {
			return true, nil
		},
	}
	auditRec := &captureAudit{}

	_, err := newTestService(repo, auditRec).Complete(context.Background(), staffAt("Haven"), 10)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if len(auditRec.entries) != 1 || auditRec.entries[0].ActionType != model.AuditActionComplete {
		t.Errorf("expected one complete audit entry, got %+v", auditRec.entries)
	}
}

func TestService_Cancel_ReasonRequired(t *testing.T) {
	svc := newTestService(&mockTransportRepo{}, &captureAudit{})
	_, err := svc.Cancel(context.Background(), staffAt("Haven"), 10, "")
	assertAPICode(t, err, model.ErrCodeReasonRequired)
}

func TestService_Cancel_FromPendingAndScheduled(t *testing.T) {
	for _, status := range []model.TransportStatus{model.TransportPending, model.TransportScheduled} {
		repo := &mockTransportRepo{
			findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.TransportRequest, error) {
				return requestIn(status), nil
			},
			markCancelledFn: func(ctx context.Context, id int64, shelter string, staffUserID int64, reason string, cancelledAt time.Time) (bool, error) {
				return true, nil
			},
		}

		_, err := newTestService(repo, &captureAudit{}).Cancel(context.Background(), staffAt("Haven"), 10, "resident cancelled")
		if err != nil {
			t.Errorf("Cancel from %s returned error: %v", status, err)
		}
	}
}

func TestService_Cancel_TerminalRejected(t *testing.T) {
	for _, status := range []model.TransportStatus{model.TransportCompleted, model.TransportCancelled} {
		repo := &mockTransportRepo{
			findByIDInShelterFn: func(ctx context.Context, id int64, shelter string) (*model.TransportRequest, error) {
				return requestIn(status), nil
			},
		}

		_, err := newTestService(repo, &captureAudit{}).Cancel(context.Background(), staffAt("Haven"), 10, "too late")
		assertAPICode(t, err, model.ErrCodeStaleTransition)
	}
}

func TestService_Board_FiltersByLocalDate(t *testing.T) {
	central := clock.Central()
	repo := &mockTransportRepo{
		listActiveFn: func(ctx context.Context, shelter string) ([]*model.TransportRequest, error) {
			return []*model.TransportRequest{
				{ID: 1, Status: model.TransportPending, NeededAt: time.Date(2026, 3, 14, 1, 0, 0, 0, central)},
				{ID: 2, Status: model.TransportScheduled, NeededAt: time.Date(2026, 3, 14, 23, 0, 0, 0, central)},
				{ID: 3, Status: model.TransportPending, NeededAt: time.Date(2026, 3, 15, 9, 0, 0, 0, central)},
			}, nil
		},
	}

	board, err := newTestService(repo, &captureAudit{}).Board(context.Background(), "Haven", "2026-03-14")
	if err != nil {
		t.Fatalf("Board returned error: %v", err)
	}
	// 1 AM and 11 PM local fall on different UTC dates but the same
	// local board day.
	if len(board) != 2 {
		t.Fatalf("expected 2 rides on the board, got %d", len(board))
	}
	if board[0].ID != 1 || board[1].ID != 2 {
		t.Errorf("board IDs = [%d %d], want [1 2]", board[0].ID, board[1].ID)
	}
}

func TestService_Board_DefaultsToToday(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockTransportRepo{
		listActiveFn: func(ctx context.Context, shelter string) ([]*model.TransportRequest, error) {
			return []*model.TransportRequest{
				{ID: 1, Status: model.TransportPending, NeededAt: now.Add(time.Minute)},
				{ID: 2, Status: model.TransportPending, NeededAt: now.AddDate(0, 0, 7)},
			}, nil
		},
	}

	board, err := newTestService(repo, &captureAudit{}).Board(context.Background(), "Haven", "")
	if err != nil {
		t.Fatalf("Board returned error: %v", err)
	}
	if len(board) != 1 || board[0].ID != 1 {
		t.Errorf("expected only today's ride, got %+v", board)
	}
}

func TestService_Board_BadDate(t *testing.T) {
	svc := newTestService(&mockTransportRepo{}, &captureAudit{})
	_, err := svc.Board(context.Background(), "Haven", "03/14/2026")
	assertAPICode(t, err, model.ErrCodeInvalidDateTime)
}

func TestService_Pending(t *testing.T) {
	repo := &mockTransportRepo{
		listPendingFn: func(ctx context.Context, shelter string) ([]*model.TransportRequest, error) {
			if shelter != "Haven" {
				t.Errorf("shelter = %q, want Haven", shelter)
			}
			return []*model.TransportRequest{requestIn(model.TransportPending)}, nil
		},
	}

	got, err := newTestService(repo, &captureAudit{}).Pending(context.Background(), "Haven")
	if err != nil {
		t.Fatalf("Pending returned error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 pending request, got %d", len(got))
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
