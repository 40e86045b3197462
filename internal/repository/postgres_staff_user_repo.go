package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/graceworks/shelterops/internal/model"
)

// PostgresStaffUserRepo is the PostgreSQL staff account repository.
type PostgresStaffUserRepo struct {
	db *sql.DB
}

// NewPostgresStaffUserRepo creates a PostgresStaffUserRepo.
func NewPostgresStaffUserRepo(db *sql.DB) *PostgresStaffUserRepo {
	return &PostgresStaffUserRepo{db: db}
}

const staffUserColumns = `id, username, password_hash, role, is_active, created_at`

func scanStaffUser(row interface{ Scan(...any) error }) (*model.StaffUser, error) {
	user := &model.StaffUser{}
	var role string
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.IsActive, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	user.Role = model.StaffRole(role)
	return user, nil
}

// FindByID returns the staff user with the given id, or nil when absent.
func (r *PostgresStaffUserRepo) FindByID(ctx context.Context, id int64) (*model.StaffUser, error) {
	user, err := scanStaffUser(r.db.QueryRowContext(ctx,
		`SELECT `+staffUserColumns+` FROM staff_users WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find staff user by ID: %w", err)
	}
	return user, nil
}

// FindByUsername returns the staff user with the given username, or nil
// when absent.
func (r *PostgresStaffUserRepo) FindByUsername(ctx context.Context, username string) (*model.StaffUser, error) {
	user, err := scanStaffUser(r.db.QueryRowContext(ctx,
		`SELECT `+staffUserColumns+` FROM staff_users WHERE username = $1`,
		username,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find staff user by username: %w", err)
	}
	return user, nil
}

// List returns all staff users ordered by username.
func (r *PostgresStaffUserRepo) List(ctx context.Context) ([]*model.StaffUser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+staffUserColumns+` FROM staff_users ORDER BY username`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff users: %w", err)
	}
	defer rows.Close()

	var users []*model.StaffUser
	for rows.Next() {
		user, err := scanStaffUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate staff users: %w", err)
	}

	return users, nil
}

// Create inserts a staff user and fills in the generated id.
func (r *PostgresStaffUserRepo) Create(ctx context.Context, user *model.StaffUser) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO staff_users (username, password_hash, role, is_active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		user.Username, user.PasswordHash, string(user.Role), user.IsActive,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create staff user: %w", err)
	}
	return nil
}

// DeleteByUsername removes the account. Returns false when no row
// matched. Sessions go with it via cascade; audit rows keep a NULL
// staff_user_id.
func (r *PostgresStaffUserRepo) DeleteByUsername(ctx context.Context, username string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM staff_users WHERE username = $1`,
		username,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete staff user: %w", err)
	}
	return oneRowAffected(result)
}

// CountByRole returns how many accounts hold the given role.
func (r *PostgresStaffUserRepo) CountByRole(ctx context.Context, role model.StaffRole) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM staff_users WHERE role = $1`,
		string(role),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count staff users by role: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ StaffUserRepository = (*PostgresStaffUserRepo)(nil)
