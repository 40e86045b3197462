package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/graceworks/shelterops/internal/model"
)

// PostgresAuditRepo is the PostgreSQL audit log repository. The log is
// append-only; nothing in the service layer reads it back.
type PostgresAuditRepo struct {
	db *sql.DB
}

// NewPostgresAuditRepo creates a PostgresAuditRepo.
func NewPostgresAuditRepo(db *sql.DB) *PostgresAuditRepo {
	return &PostgresAuditRepo{db: db}
}

// Append inserts an audit entry.
func (r *PostgresAuditRepo) Append(ctx context.Context, entry *model.AuditEntry) error {
	var entityID, staffUserID sql.NullInt64
	if entry.EntityID != nil {
		entityID = sql.NullInt64{Int64: *entry.EntityID, Valid: true}
	}
	if entry.StaffUserID != nil {
		staffUserID = sql.NullInt64{Int64: *entry.StaffUserID, Valid: true}
	}
	var shelter sql.NullString
	if entry.Shelter != nil {
		shelter = sql.NullString{String: *entry.Shelter, Valid: true}
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO audit_log (entity_type, entity_id, shelter, staff_user_id, action_type, action_details)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		entry.EntityType, entityID, shelter, staffUserID, entry.ActionType, entry.Details,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AuditRepository = (*PostgresAuditRepo)(nil)
