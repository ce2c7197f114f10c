package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/vacme/vacme-backend/internal/odi/domain"
	"github.com/vacme/vacme-backend/pkg/database"
	"github.com/vacme/vacme-backend/pkg/errors"
	"github.com/vacme/vacme-backend/pkg/tenant"
)

// locationRow flattens the coordinate columns for sqlx scanning.
type locationRow struct {
	domain.Location
	Lat *float64 `db:"lat"`
	Lng *float64 `db:"lng"`
}

// LocationRepository handles vaccination location persistence
type LocationRepository struct {
	db *database.DB
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *database.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// ListCandidates returns the bookable locations for the canton,
// including the per-dose next free slot hints.
// TENANT-ISOLATED: Queries only the tenant's rows via RLS
func (r *LocationRepository) ListCandidates(ctx context.Context, disease string) ([]*domain.Location, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var rows []locationRow
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			SELECT l.id, l.name, l.location_type, l.lat, l.lng,
			       l.is_public, l.is_mobile, l.booster_capable, l.is_disabled, l.requires_payment,
			       (SELECT MIN(s.slot_start) FROM slots s
			        WHERE s.location_id = l.id AND s.dose_sequence = 'DOSE_1'
			          AND s.registration_number IS NULL AND s.slot_start > NOW()) AS next_slot_dose1,
			       (SELECT MIN(s.slot_start) FROM slots s
			        WHERE s.location_id = l.id AND s.dose_sequence = 'DOSE_2'
			          AND s.registration_number IS NULL AND s.slot_start > NOW()) AS next_slot_dose2,
			       (SELECT MIN(s.slot_start) FROM slots s
			        WHERE s.location_id = l.id AND s.dose_sequence = 'BOOSTER'
			          AND s.registration_number IS NULL AND s.slot_start > NOW()) AS next_slot_booster
			FROM locations l
			WHERE l.disease = $1 AND l.deleted_at IS NULL
			ORDER BY l.name
		`
		return r.db.SelectContext(ctx, &rows, query, disease)
	})
	if err != nil {
		return nil, err
	}

	locations := make([]*domain.Location, 0, len(rows))
	for i := range rows {
		loc := rows[i].Location
		loc.Coordinate = domain.Coordinate{Lat: rows[i].Lat, Lng: rows[i].Lng}
		locations = append(locations, &loc)
	}
	return locations, nil
}

// GetByID returns a single location.
// TENANT-ISOLATED: Queries only the tenant's rows via RLS
func (r *LocationRepository) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	var row locationRow
	err = r.db.WithTenantRLS(ctx, tenantID, func(ctx context.Context) error {
		query := `
			SELECT id, name, location_type, lat, lng,
			       is_public, is_mobile, booster_capable, is_disabled, requires_payment
			FROM locations
			WHERE id = $1 AND deleted_at IS NULL
		`
		return r.db.GetContext(ctx, &row, query, id)
	})

	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("location")
	}
	if err != nil {
		return nil, err
	}

	loc := row.Location
	loc.Coordinate = domain.Coordinate{Lat: row.Lat, Lng: row.Lng}
	return &loc, nil
}
