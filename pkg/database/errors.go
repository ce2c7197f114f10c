package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/vacme/vacme-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "is not a valid registration status",
		})

	case strings.Contains(constraint, "dose_sequence_valid"):
		return errors.Validation(map[string]string{
			"dose_sequence": "must be one of: DOSE_1, DOSE_2, BOOSTER",
		})

	case strings.Contains(constraint, "location_type_valid"):
		return errors.Validation(map[string]string{
			"location_type": "must be one of: HOSPITAL, PHARMACY, DOCTORS_OFFICE, VACCINATION_CENTER",
		})

	case strings.Contains(constraint, "slot_window_valid"):
		return errors.Validation(map[string]string{
			"slot": "end time must be after start time",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "registration_number"):
		return "a dossier with this registration number already exists for this disease"
	case strings.Contains(constraint, "slot_registration"):
		return "this appointment slot is already booked"
	default:
		return "a record with these values already exists"
	}
}
