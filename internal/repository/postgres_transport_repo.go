package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/graceworks/shelterops/internal/model"
)

// PostgresTransportRepo is the PostgreSQL transport request repository.
type PostgresTransportRepo struct {
	db *sql.DB
}

// NewPostgresTransportRepo creates a PostgresTransportRepo.
func NewPostgresTransportRepo(db *sql.DB) *PostgresTransportRepo {
	return &PostgresTransportRepo{db: db}
}

const transportColumns = `id, shelter, resident_identifier, first_name, last_name, needed_at,
	pickup_location, destination, reason, resident_notes, callback_phone, status, submitted_at,
	scheduled_at, scheduled_by, driver_name, staff_notes,
	completed_at, completed_by, cancelled_at, cancelled_by, cancel_reason`

func scanTransportRequest(row interface{ Scan(...any) error }) (*model.TransportRequest, error) {
	request := &model.TransportRequest{}
	var status string
	var scheduledAt, completedAt, cancelledAt sql.NullTime
	var scheduledBy, completedBy, cancelledBy sql.NullInt64
	err := row.Scan(
		&request.ID, &request.Shelter, &request.ResidentIdentifier,
		&request.FirstName, &request.LastName, &request.NeededAt,
		&request.PickupLocation, &request.Destination, &request.Reason,
		&request.ResidentNotes, &request.CallbackPhone, &status, &request.SubmittedAt,
		&scheduledAt, &scheduledBy, &request.DriverName, &request.StaffNotes,
		&completedAt, &completedBy, &cancelledAt, &cancelledBy, &request.CancelReason,
	)
	if err != nil {
		return nil, err
	}
	request.Status = model.TransportStatus(status)
	if scheduledAt.Valid {
		request.ScheduledAt = &scheduledAt.Time
	}
	if scheduledBy.Valid {
		request.ScheduledBy = &scheduledBy.Int64
	}
	if completedAt.Valid {
		request.CompletedAt = &completedAt.Time
	}
	if completedBy.Valid {
		request.CompletedBy = &completedBy.Int64
	}
	if cancelledAt.Valid {
		request.CancelledAt = &cancelledAt.Time
	}
	if cancelledBy.Valid {
		request.CancelledBy = &cancelledBy.Int64
	}
	return request, nil
}

// Create inserts a transport request and fills in the generated id.
func (r *PostgresTransportRepo) Create(ctx context.Context, request *model.TransportRequest) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO transport_requests (shelter, resident_identifier, first_name, last_name, needed_at,
		                                 pickup_location, destination, reason, resident_notes, callback_phone,
		                                 status, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		request.Shelter, request.ResidentIdentifier, request.FirstName, request.LastName,
		request.NeededAt, request.PickupLocation, request.Destination, request.Reason,
		request.ResidentNotes, request.CallbackPhone, string(request.Status), request.SubmittedAt,
	).Scan(&request.ID)
	if err != nil {
		return fmt.Errorf("failed to create transport request: %w", err)
	}
	return nil
}

// FindByIDInShelter returns the request only when it belongs to the
// given shelter. Returns nil when absent.
func (r *PostgresTransportRepo) FindByIDInShelter(ctx context.Context, id int64, shelter string) (*model.TransportRequest, error) {
	request, err := scanTransportRequest(r.db.QueryRowContext(ctx,
		`SELECT `+transportColumns+` FROM transport_requests WHERE id = $1 AND shelter = $2`,
		id, shelter,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transport request: %w", err)
	}
	return request, nil
}

// ListPending returns a shelter's pending requests, newest first.
func (r *PostgresTransportRepo) ListPending(ctx context.Context, shelter string) ([]*model.TransportRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transportColumns+` FROM transport_requests
		 WHERE shelter = $1 AND status = $2
		 ORDER BY submitted_at DESC`,
		shelter, string(model.TransportPending),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transport requests: %w", err)
	}
	defer rows.Close()

	return collectTransportRequests(rows)
}

// ListActive returns pending and scheduled requests ordered by
// needed_at. Day filtering happens in the caller because board matching
// is by local calendar date, not a UTC range.
func (r *PostgresTransportRepo) ListActive(ctx context.Context, shelter string) ([]*model.TransportRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transportColumns+` FROM transport_requests
		 WHERE shelter = $1 AND status IN ($2, $3)
		 ORDER BY needed_at ASC`,
		shelter, string(model.TransportPending), string(model.TransportScheduled),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active transport requests: %w", err)
	}
	defer rows.Close()

	return collectTransportRequests(rows)
}

// MarkScheduled transitions pending to scheduled.
func (r *PostgresTransportRepo) MarkScheduled(ctx context.Context, id int64, shelter string, staffUserID int64, driverName, staffNotes string, scheduledAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE transport_requests
		 SET status = $4, scheduled_at = $5, scheduled_by = $6, driver_name = $7, staff_notes = $8
		 WHERE id = $1 AND shelter = $2 AND status = $3`,
		id, shelter, string(model.TransportPending),
		string(model.TransportScheduled), scheduledAt, staffUserID, driverName, staffNotes,
	)
	if err != nil {
		return false, fmt.Errorf("failed to schedule transport request: %w", err)
	}
	return oneRowAffected(result)
}

// MarkCompleted transitions scheduled to completed.
func (r *PostgresTransportRepo) MarkCompleted(ctx context.Context, id int64, shelter string, staffUserID int64, completedAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE transport_requests
		 SET status = $4, completed_at = $5, completed_by = $6
		 WHERE id = $1 AND shelter = $2 AND status = $3`,
		id, shelter, string(model.TransportScheduled),
		string(model.TransportCompleted), completedAt, staffUserID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete transport request: %w", err)
	}
	return oneRowAffected(result)
}

// MarkCancelled transitions pending or scheduled to cancelled.
func (r *PostgresTransportRepo) MarkCancelled(ctx context.Context, id int64, shelter string, staffUserID int64, reason string, cancelledAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE transport_requests
		 SET status = $5, cancelled_at = $6, cancelled_by = $7, cancel_reason = $8
		 WHERE id = $1 AND shelter = $2 AND status IN ($3, $4)`,
		id, shelter, string(model.TransportPending), string(model.TransportScheduled),
		string(model.TransportCancelled), cancelledAt, staffUserID, reason,
	)
	if err != nil {
		return false, fmt.Errorf("failed to cancel transport request: %w", err)
	}
	return oneRowAffected(result)
}

func collectTransportRequests(rows *sql.Rows) ([]*model.TransportRequest, error) {
	var requests []*model.TransportRequest
	for rows.Next() {
		request, err := scanTransportRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transport request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transport requests: %w", err)
	}
	return requests, nil
}

// compile-time interface check
var _ TransportRepository = (*PostgresTransportRepo)(nil)
