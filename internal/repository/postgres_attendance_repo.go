package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/graceworks/shelterops/internal/model"
)

// PostgresAttendanceEventRepo is the PostgreSQL attendance log
// repository. The table is append-only; there are no update or delete
// methods.
type PostgresAttendanceEventRepo struct {
	db *sql.DB
}

// NewPostgresAttendanceEventRepo creates a PostgresAttendanceEventRepo.
func NewPostgresAttendanceEventRepo(db *sql.DB) *PostgresAttendanceEventRepo {
	return &PostgresAttendanceEventRepo{db: db}
}

func scanAttendanceEvent(row interface{ Scan(...any) error }) (*model.AttendanceEvent, error) {
	event := &model.AttendanceEvent{}
	var staffUserID sql.NullInt64
	var expectedBack sql.NullString
	err := row.Scan(
		&event.ID, &event.ResidentID, &event.Shelter, &event.EventType,
		&event.EventTime, &staffUserID, &event.Note, &expectedBack,
	)
	if err != nil {
		return nil, err
	}
	if staffUserID.Valid {
		event.StaffUserID = &staffUserID.Int64
	}
	event.ExpectedBackTime = expectedBack.String
	return event, nil
}

// Append inserts an event and fills in the generated id.
func (r *PostgresAttendanceEventRepo) Append(ctx context.Context, event *model.AttendanceEvent) error {
	var staffUserID sql.NullInt64
	if event.StaffUserID != nil {
		staffUserID = sql.NullInt64{Int64: *event.StaffUserID, Valid: true}
	}
	var expectedBack sql.NullString
	if event.ExpectedBackTime != "" {
		expectedBack = sql.NullString{String: event.ExpectedBackTime, Valid: true}
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO attendance_events (resident_id, shelter, event_type, event_time, staff_user_id, note, expected_back_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		event.ResidentID, event.Shelter, string(event.EventType), event.EventTime,
		staffUserID, event.Note, expectedBack,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to append attendance event: %w", err)
	}
	return nil
}

// ListByResident returns a resident's events ordered by event_time then
// id. The timestamps are ISO strings, so lexicographic order is
// chronological.
func (r *PostgresAttendanceEventRepo) ListByResident(ctx context.Context, residentID int64) ([]*model.AttendanceEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, resident_id, shelter, event_type, event_time, staff_user_id, note, expected_back_time
		 FROM attendance_events
		 WHERE resident_id = $1
		 ORDER BY event_time, id`,
		residentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance events: %w", err)
	}
	defer rows.Close()

	return collectAttendanceEvents(rows)
}

// ListByShelter returns all of a shelter's events grouped by resident in
// event order, for building the attendance board in one scan.
func (r *PostgresAttendanceEventRepo) ListByShelter(ctx context.Context, shelter string) ([]*model.AttendanceEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, resident_id, shelter, event_type, event_time, staff_user_id, note, expected_back_time
		 FROM attendance_events
		 WHERE shelter = $1
		 ORDER BY resident_id, event_time, id`,
		shelter,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shelter attendance events: %w", err)
	}
	defer rows.Close()

	return collectAttendanceEvents(rows)
}

func collectAttendanceEvents(rows *sql.Rows) ([]*model.AttendanceEvent, error) {
	var events []*model.AttendanceEvent
	for rows.Next() {
		event, err := scanAttendanceEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance events: %w", err)
	}
	return events, nil
}

// compile-time interface check
var _ AttendanceEventRepository = (*PostgresAttendanceEventRepo)(nil)
