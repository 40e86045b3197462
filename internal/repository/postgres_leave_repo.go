package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/graceworks/shelterops/internal/model"
)

// PostgresLeaveRepo is the PostgreSQL leave request repository.
type PostgresLeaveRepo struct {
	db *sql.DB
}

// NewPostgresLeaveRepo creates a PostgresLeaveRepo.
func NewPostgresLeaveRepo(db *sql.DB) *PostgresLeaveRepo {
	return &PostgresLeaveRepo{db: db}
}

const leaveColumns = `id, shelter, resident_identifier, first_name, last_name, resident_phone,
	destination, reason, resident_notes, leave_at, return_at, status, submitted_at,
	decided_at, decided_by, decision_note, check_in_at, check_in_by`

func scanLeaveRequest(row interface{ Scan(...any) error }) (*model.LeaveRequest, error) {
	request := &model.LeaveRequest{}
	var status string
	var decidedAt, checkInAt sql.NullTime
	var decidedBy, checkInBy sql.NullInt64
	err := row.Scan(
		&request.ID, &request.Shelter, &request.ResidentIdentifier,
		&request.FirstName, &request.LastName, &request.ResidentPhone,
		&request.Destination, &request.Reason, &request.ResidentNotes,
		&request.LeaveAt, &request.ReturnAt, &status, &request.SubmittedAt,
		&decidedAt, &decidedBy, &request.DecisionNote, &checkInAt, &checkInBy,
	)
	if err != nil {
		return nil, err
	}
	request.Status = model.LeaveStatus(status)
	if decidedAt.Valid {
		request.DecidedAt = &decidedAt.Time
	}
	if decidedBy.Valid {
		request.DecidedBy = &decidedBy.Int64
	}
	if checkInAt.Valid {
		request.CheckInAt = &checkInAt.Time
	}
	if checkInBy.Valid {
		request.CheckInBy = &checkInBy.Int64
	}
	return request, nil
}

// Create inserts a leave request and fills in the generated id.
func (r *PostgresLeaveRepo) Create(ctx context.Context, request *model.LeaveRequest) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO leave_requests (shelter, resident_identifier, first_name, last_name, resident_phone,
		                             destination, reason, resident_notes, leave_at, return_at, status, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		request.Shelter, request.ResidentIdentifier, request.FirstName, request.LastName,
		request.ResidentPhone, request.Destination, request.Reason, request.ResidentNotes,
		request.LeaveAt, request.ReturnAt, string(request.Status), request.SubmittedAt,
	).Scan(&request.ID)
	if err != nil {
		return fmt.Errorf("failed to create leave request: %w", err)
	}
	return nil
}

// FindByIDInShelter returns the request only when it belongs to the
// given shelter. Returns nil when absent.
func (r *PostgresLeaveRepo) FindByIDInShelter(ctx context.Context, id int64, shelter string) (*model.LeaveRequest, error) {
	request, err := scanLeaveRequest(r.db.QueryRowContext(ctx,
		`SELECT `+leaveColumns+` FROM leave_requests WHERE id = $1 AND shelter = $2`,
		id, shelter,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find leave request: %w", err)
	}
	return request, nil
}

// ListPending returns a shelter's pending requests, newest first.
func (r *PostgresLeaveRepo) ListPending(ctx context.Context, shelter string) ([]*model.LeaveRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+leaveColumns+` FROM leave_requests
		 WHERE shelter = $1 AND status = $2
		 ORDER BY submitted_at DESC`,
		shelter, string(model.LeavePending),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending leave requests: %w", err)
	}
	defer rows.Close()

	return collectLeaveRequests(rows)
}

// ListAwayNow returns approved requests whose window has started and
// that have not checked back in, soonest return first.
func (r *PostgresLeaveRepo) ListAwayNow(ctx context.Context, shelter string, now time.Time) ([]*model.LeaveRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+leaveColumns+` FROM leave_requests
		 WHERE shelter = $1 AND status = $2 AND leave_at <= $3 AND check_in_at IS NULL
		 ORDER BY return_at ASC`,
		shelter, string(model.LeaveApproved), now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list away-now leave requests: %w", err)
	}
	defer rows.Close()

	return collectLeaveRequests(rows)
}

// ListOverdueCandidates returns approved, not-checked-in requests with
// return_at on or before the horizon. The curfew cutoff is applied per
// row by the caller; the horizon only bounds the scan.
func (r *PostgresLeaveRepo) ListOverdueCandidates(ctx context.Context, shelter string, horizon time.Time) ([]*model.LeaveRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+leaveColumns+` FROM leave_requests
		 WHERE shelter = $1 AND status = $2 AND check_in_at IS NULL AND return_at <= $3
		 ORDER BY return_at ASC`,
		shelter, string(model.LeaveApproved), horizon,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue candidates: %w", err)
	}
	defer rows.Close()

	return collectLeaveRequests(rows)
}

// MarkApproved transitions pending to approved. The status guard in the
// WHERE clause makes the update a compare-and-swap; false means another
// decision already landed.
func (r *PostgresLeaveRepo) MarkApproved(ctx context.Context, id int64, shelter string, staffUserID int64, note string, decidedAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE leave_requests
		 SET status = $4, decided_at = $5, decided_by = $6, decision_note = $7
		 WHERE id = $1 AND shelter = $2 AND status = $3`,
		id, shelter, string(model.LeavePending),
		string(model.LeaveApproved), decidedAt, staffUserID, note,
	)
	if err != nil {
		return false, fmt.Errorf("failed to approve leave request: %w", err)
	}
	return oneRowAffected(result)
}

// MarkDenied transitions pending to denied.
func (r *PostgresLeaveRepo) MarkDenied(ctx context.Context, id int64, shelter string, staffUserID int64, note string, decidedAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE leave_requests
		 SET status = $4, decided_at = $5, decided_by = $6, decision_note = $7
		 WHERE id = $1 AND shelter = $2 AND status = $3`,
		id, shelter, string(model.LeavePending),
		string(model.LeaveDenied), decidedAt, staffUserID, note,
	)
	if err != nil {
		return false, fmt.Errorf("failed to deny leave request: %w", err)
	}
	return oneRowAffected(result)
}

// MarkCheckedIn transitions approved to checked_in. The check_in_at IS
// NULL guard keeps the transition idempotent under racing staff actions.
func (r *PostgresLeaveRepo) MarkCheckedIn(ctx context.Context, id int64, shelter string, staffUserID int64, checkInAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE leave_requests
		 SET status = $4, check_in_at = $5, check_in_by = $6
		 WHERE id = $1 AND shelter = $2 AND status = $3 AND check_in_at IS NULL`,
		id, shelter, string(model.LeaveApproved),
		string(model.LeaveCheckedIn), checkInAt, staffUserID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to check in leave request: %w", err)
	}
	return oneRowAffected(result)
}

func collectLeaveRequests(rows *sql.Rows) ([]*model.LeaveRequest, error) {
	var requests []*model.LeaveRequest
	for rows.Next() {
		request, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave requests: %w", err)
	}
	return requests, nil
}

func oneRowAffected(result sql.Result) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ LeaveRepository = (*PostgresLeaveRepo)(nil)
