package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/graceworks/shelterops/internal/model"
)

// PostgresResidentSessionRepo is the PostgreSQL resident session
// repository.
type PostgresResidentSessionRepo struct {
	db *sql.DB
}

// NewPostgresResidentSessionRepo creates a PostgresResidentSessionRepo.
func NewPostgresResidentSessionRepo(db *sql.DB) *PostgresResidentSessionRepo {
	return &PostgresResidentSessionRepo{db: db}
}

// Create inserts a session. sms_consent starts NULL; the consent prompt
// has not been answered yet.
func (r *PostgresResidentSessionRepo) Create(ctx context.Context, session *model.ResidentSession) error {
	var consent sql.NullBool
	if session.SMSConsent != nil {
		consent = sql.NullBool{Bool: *session.SMSConsent, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO resident_sessions (id, resident_id, shelter, sms_consent, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, session.ResidentID, session.Shelter, consent, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create resident session: %w", err)
	}
	return nil
}

// FindByID returns the session, or nil when absent or expired.
func (r *PostgresResidentSessionRepo) FindByID(ctx context.Context, id string) (*model.ResidentSession, error) {
	session := &model.ResidentSession{}
	var consent sql.NullBool
	err := r.db.QueryRowContext(ctx,
		`SELECT id, resident_id, shelter, sms_consent, expires_at, created_at
		 FROM resident_sessions
		 WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(&session.ID, &session.ResidentID, &session.Shelter, &consent, &session.ExpiresAt, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find resident session: %w", err)
	}

	if consent.Valid {
		session.SMSConsent = &consent.Bool
	}
	return session, nil
}

// SetSMSConsent records the resident's answer to the one-time consent
// prompt.
func (r *PostgresResidentSessionRepo) SetSMSConsent(ctx context.Context, id string, consent bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE resident_sessions SET sms_consent = $2 WHERE id = $1`,
		id, consent,
	)
	if err != nil {
		return fmt.Errorf("failed to set sms consent: %w", err)
	}
	return nil
}

// DeleteByID removes a session.
func (r *PostgresResidentSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM resident_sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete resident session: %w", err)
	}
	return nil
}

// DeleteExpired removes expired sessions and reports how many.
func (r *PostgresResidentSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM resident_sessions WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired resident sessions: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var _ ResidentSessionRepository = (*PostgresResidentSessionRepo)(nil)
