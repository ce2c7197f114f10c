package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/vacme/vacme-backend/internal/registration/domain"
	"github.com/vacme/vacme-backend/pkg/database"
	"github.com/vacme/vacme-backend/pkg/errors"
	"github.com/vacme/vacme-backend/pkg/tenant"
)

// DossierRepository handles vaccination dossier persistence
type DossierRepository struct {
	db *database.DB
}

// NewDossierRepository creates a new dossier repository
func NewDossierRepository(db *database.DB) *DossierRepository {
	return &DossierRepository{db: db}
}

// GetByRegistrationNumber loads the dossier for one disease track,
// including any slots already booked on it.
// TENANT-ISOLATED: Queries only the tenant's rows via RLS
func (r *DossierRepository) GetByRegistrationNumber(ctx context.Context, registrationNumber, disease string) (*domain.Dossier, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var dossier domain.Dossier
	var slots []domain.Slot

	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			SELECT registration_number, disease, status, self_pay_confirmed
			FROM dossiers
			WHERE registration_number = $1 AND disease = $2 AND deleted_at IS NULL
		`
		if err := r.db.GetContext(ctx, &dossier, query, registrationNumber, disease); err != nil {
			return err
		}

		slotQuery := `
			SELECT s.id, s.location_id, l.name AS location_name, s.dose_sequence,
			       s.slot_start AS start_time, s.slot_end AS end_time
			FROM slots s
			JOIN locations l ON l.id = s.location_id
			WHERE s.registration_number = $1 AND l.disease = $2
		`
		return r.db.SelectContext(ctx, &slots, slotQuery, registrationNumber, disease)
	})

	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("dossier")
	}
	if err != nil {
		return nil, err
	}

	for i := range slots {
		slot := slots[i]
		switch slot.Sequence {
		case domain.Dose1:
			dossier.Slot1 = &slot
		case domain.Dose2:
			dossier.Slot2 = &slot
		case domain.Booster:
			dossier.SlotBooster = &slot
		}
	}

	return &dossier, nil
}

// UpdateStatus moves the dossier to a new lifecycle status.
// TENANT-ISOLATED: Updates only the tenant's rows via RLS
func (r *DossierRepository) UpdateStatus(ctx context.Context, registrationNumber, disease string, status domain.RegistrationStatus) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			UPDATE dossiers
			SET status = $1, updated_at = NOW()
			WHERE registration_number = $2 AND disease = $3 AND deleted_at IS NULL
		`
		result, err := r.db.ExecContext(ctx, query, status, registrationNumber, disease)
		if err != nil {
			return err
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return errors.NotFound("dossier")
		}
		return nil
	})
}
