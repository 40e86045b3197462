package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/graceworks/shelterops/internal/model"
)

// PostgresStaffSessionRepo is the PostgreSQL staff session repository.
type PostgresStaffSessionRepo struct {
	db *sql.DB
}

// NewPostgresStaffSessionRepo creates a PostgresStaffSessionRepo.
func NewPostgresStaffSessionRepo(db *sql.DB) *PostgresStaffSessionRepo {
	return &PostgresStaffSessionRepo{db: db}
}

// Create inserts a session.
func (r *PostgresStaffSessionRepo) Create(ctx context.Context, session *model.StaffSession) error {
	var shelter sql.NullString
	if session.Shelter != nil {
		shelter = sql.NullString{String: *session.Shelter, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO staff_sessions (id, staff_user_id, shelter, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.StaffUserID, shelter, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create staff session: %w", err)
	}
	return nil
}

// FindByID returns the session, or nil when absent or expired.
func (r *PostgresStaffSessionRepo) FindByID(ctx context.Context, id string) (*model.StaffSession, error) {
	session := &model.StaffSession{}
	var shelter sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, staff_user_id, shelter, expires_at, created_at
		 FROM staff_sessions
		 WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(&session.ID, &session.StaffUserID, &shelter, &session.ExpiresAt, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find staff session: %w", err)
	}

	if shelter.Valid {
		session.Shelter = &shelter.String
	}
	return session, nil
}

// SetShelter records the shelter selected for the session.
func (r *PostgresStaffSessionRepo) SetShelter(ctx context.Context, id string, shelter string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE staff_sessions SET shelter = $2 WHERE id = $1`,
		id, shelter,
	)
	if err != nil {
		return fmt.Errorf("failed to set session shelter: %w", err)
	}
	return nil
}

// DeleteByID removes a session.
func (r *PostgresStaffSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM staff_sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete staff session: %w", err)
	}
	return nil
}

// DeleteByStaffUserID removes all of a staff member's sessions.
func (r *PostgresStaffSessionRepo) DeleteByStaffUserID(ctx context.Context, staffUserID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM staff_sessions WHERE staff_user_id = $1`,
		staffUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete staff user sessions: %w", err)
	}
	return nil
}

// DeleteExpired removes expired sessions and reports how many.
func (r *PostgresStaffSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM staff_sessions WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired staff sessions: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var _ StaffSessionRepository = (*PostgresStaffSessionRepo)(nil)
