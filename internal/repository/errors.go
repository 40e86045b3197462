package repository

import (
	"errors"

	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint
// violation.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err (possibly wrapped) is a
// PostgreSQL unique constraint violation. Services use this to turn
// duplicate usernames and resident code collisions into their own
// errors instead of a generic database failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
