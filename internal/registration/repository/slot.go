package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/vacme/vacme-backend/internal/registration/domain"
	"github.com/vacme/vacme-backend/pkg/database"
	"github.com/vacme/vacme-backend/pkg/errors"
	"github.com/vacme/vacme-backend/pkg/tenant"
)

// SlotRepository handles appointment slot persistence
type SlotRepository struct {
	db *database.DB
}

// NewSlotRepository creates a new slot repository
func NewSlotRepository(db *database.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// ListFree returns unclaimed future slots at a location for one dose
// sequence, optionally restricted to a date window.
// TENANT-ISOLATED: Queries only the tenant's rows via RLS
func (r *SlotRepository) ListFree(ctx context.Context, locationID string, seq domain.DoseSequence, from, to *time.Time) ([]*domain.Slot, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var slots []*domain.Slot
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			SELECT s.id, s.location_id, l.name AS location_name, s.dose_sequence,
			       s.slot_start AS start_time, s.slot_end AS end_time
			FROM slots s
			JOIN locations l ON l.id = s.location_id
			WHERE s.location_id = $1 AND s.dose_sequence = $2
			  AND s.registration_number IS NULL
			  AND s.slot_start > NOW()
			  AND ($3::timestamptz IS NULL OR s.slot_start >= $3)
			  AND ($4::timestamptz IS NULL OR s.slot_start <= $4)
			ORDER BY s.slot_start
		`
		return r.db.SelectContext(ctx, &slots, query, locationID, seq, from, to)
	})
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// GetByID returns a slot regardless of whether it is claimed.
// TENANT-ISOLATED: Queries only the tenant's rows via RLS
func (r *SlotRepository) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var slot domain.Slot
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			SELECT s.id, s.location_id, l.name AS location_name, s.dose_sequence,
			       s.slot_start AS start_time, s.slot_end AS end_time
			FROM slots s
			JOIN locations l ON l.id = s.location_id
			WHERE s.id = $1
		`
		return r.db.GetContext(ctx, &slot, query, id)
	})

	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("slot")
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// Claim atomically assigns a free slot to the registrant. The
// conditional update is the contention point of the whole booking flow:
// whoever commits first wins, everyone else gets the slot-taken
// violation and has to pick again.
// TENANT-ISOLATED: Updates only the tenant's rows via RLS
func (r *SlotRepository) Claim(ctx context.Context, slotID, registrationNumber string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			UPDATE slots
			SET registration_number = $1, updated_at = NOW()
			WHERE id = $2 AND registration_number IS NULL
		`
		result, err := r.db.ExecContext(ctx, query, registrationNumber, slotID)
		if err != nil {
			return err
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return errors.SlotTaken(slotID)
		}
		return nil
	})
}

// Release frees a slot previously claimed by the registrant. Releasing
// a slot someone else holds is a no-op, not an error.
// TENANT-ISOLATED: Updates only the tenant's rows via RLS
func (r *SlotRepository) Release(ctx context.Context, slotID, registrationNumber string) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			UPDATE slots
			SET registration_number = NULL, updated_at = NOW()
			WHERE id = $1 AND registration_number = $2
		`
		_, err := r.db.ExecContext(ctx, query, slotID, registrationNumber)
		return err
	})
}
