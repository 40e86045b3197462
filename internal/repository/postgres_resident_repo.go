package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/graceworks/shelterops/internal/model"
)

// PostgresResidentRepo is the PostgreSQL resident repository.
type PostgresResidentRepo struct {
	db *sql.DB
}

// NewPostgresResidentRepo creates a PostgresResidentRepo.
func NewPostgresResidentRepo(db *sql.DB) *PostgresResidentRepo {
	return &PostgresResidentRepo{db: db}
}

const residentColumns = `id, shelter, resident_identifier, resident_code, first_name, last_name, phone, is_active, created_at`

func scanResident(row interface{ Scan(...any) error }) (*model.Resident, error) {
	resident := &model.Resident{}
	var code sql.NullString
	err := row.Scan(
		&resident.ID, &resident.Shelter, &resident.Identifier, &code,
		&resident.FirstName, &resident.LastName, &resident.Phone,
		&resident.IsActive, &resident.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if code.Valid {
		resident.Code = &code.String
	}
	return resident, nil
}

// FindByID returns the resident with the given id, or nil when absent.
func (r *PostgresResidentRepo) FindByID(ctx context.Context, id int64) (*model.Resident, error) {
	resident, err := scanResident(r.db.QueryRowContext(ctx,
		`SELECT `+residentColumns+` FROM residents WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find resident by ID: %w", err)
	}
	return resident, nil
}

// FindByIDInShelter returns the resident only when it belongs to the
// given shelter. Returns nil when absent.
func (r *PostgresResidentRepo) FindByIDInShelter(ctx context.Context, id int64, shelter string) (*model.Resident, error) {
	resident, err := scanResident(r.db.QueryRowContext(ctx,
		`SELECT `+residentColumns+` FROM residents WHERE id = $1 AND shelter = $2`,
		id, shelter,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find resident in shelter: %w", err)
	}
	return resident, nil
}

// FindActiveByShelterAndCode looks up an active resident by shelter and
// resident code. Returns nil when absent.
func (r *PostgresResidentRepo) FindActiveByShelterAndCode(ctx context.Context, shelter, code string) (*model.Resident, error) {
	resident, err := scanResident(r.db.QueryRowContext(ctx,
		`SELECT `+residentColumns+` FROM residents
		 WHERE shelter = $1 AND resident_code = $2 AND is_active = TRUE`,
		shelter, code,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find resident by code: %w", err)
	}
	return resident, nil
}

// ListByShelter returns the shelter's residents. Active listings sort by
// last then first name; full listings put active residents first.
func (r *PostgresResidentRepo) ListByShelter(ctx context.Context, shelter string, includeInactive bool) ([]*model.Resident, error) {
	query := `SELECT ` + residentColumns + ` FROM residents
	          WHERE shelter = $1 AND is_active = TRUE
	          ORDER BY last_name, first_name`
	if includeInactive {
		query = `SELECT ` + residentColumns + ` FROM residents
		         WHERE shelter = $1
		         ORDER BY is_active DESC, last_name, first_name`
	}

	rows, err := r.db.QueryContext(ctx, query, shelter)
	if err != nil {
		return nil, fmt.Errorf("failed to list residents: %w", err)
	}
	defer rows.Close()

	var residents []*model.Resident
	for rows.Next() {
		resident, err := scanResident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resident: %w", err)
		}
		residents = append(residents, resident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate residents: %w", err)
	}

	return residents, nil
}

// Create inserts a resident and fills in the generated id.
func (r *PostgresResidentRepo) Create(ctx context.Context, resident *model.Resident) error {
	var code sql.NullString
	if resident.Code != nil {
		code = sql.NullString{String: *resident.Code, Valid: true}
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO residents (shelter, resident_identifier, resident_code, first_name, last_name, phone, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		resident.Shelter, resident.Identifier, code,
		resident.FirstName, resident.LastName, resident.Phone, resident.IsActive,
	).Scan(&resident.ID, &resident.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create resident: %w", err)
	}
	return nil
}

// SetActive flips the is_active flag. Returns false when no resident
// matched the id and shelter.
func (r *PostgresResidentRepo) SetActive(ctx context.Context, id int64, shelter string, active bool) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE residents SET is_active = $3 WHERE id = $1 AND shelter = $2`,
		id, shelter, active,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set resident active flag: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// AssignCode sets the resident code on a row that has none. Returns
// false when the row already has a code.
func (r *PostgresResidentRepo) AssignCode(ctx context.Context, id int64, code string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE residents SET resident_code = $2 WHERE id = $1 AND resident_code IS NULL`,
		id, code,
	)
	if err != nil {
		return false, fmt.Errorf("failed to assign resident code: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ResidentRepository = (*PostgresResidentRepo)(nil)
