package usecase

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgExclusionViolation = "23P01"

	appointmentOverlapConstraint = "appointments_no_overlap"
)

// isOverlapViolation reports whether the appointment exclusion constraint rejected a write
func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgExclusionViolation &&
			(pgErr.ConstraintName == "" || pgErr.ConstraintName == appointmentOverlapConstraint)
	}
	return false
}
