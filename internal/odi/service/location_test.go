package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vacme/vacme-backend/internal/odi/distance"
	"github.com/vacme/vacme-backend/internal/odi/domain"
	"github.com/vacme/vacme-backend/internal/odi/filter"
	"github.com/vacme/vacme-backend/internal/odi/repository"
	"github.com/vacme/vacme-backend/internal/odi/service"
	regdomain "github.com/vacme/vacme-backend/internal/registration/domain"
	"github.com/vacme/vacme-backend/pkg/config"
	"github.com/vacme/vacme-backend/pkg/logger"
	"github.com/vacme/vacme-backend/pkg/tenant"
	"github.com/vacme/vacme-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTenantID = "6f2d9d10-4c7e-4b1f-9a57-0f6a2e6c1a11"

type stubGeocoder struct {
	origin domain.Coordinate
	err    error
}

func (g *stubGeocoder) Geocode(context.Context, string) (domain.Coordinate, error) {
	return g.origin, g.err
}

func expectCandidates(mockDB *testutil.MockDB) {
	rows := testutil.MockRows(
		"id", "name", "location_type", "lat", "lng",
		"is_public", "is_mobile", "booster_capable", "is_disabled", "requires_payment",
		"next_slot_dose1", "next_slot_dose2", "next_slot_booster",
	).
		AddRow("loc-zurich", "Impfzentrum Zürich", "VACCINATION_CENTER", 47.3769, 8.5417,
			true, false, true, false, false, nil, nil, nil).
		AddRow("loc-bern", "Impfzentrum Bern", "VACCINATION_CENTER", 46.948, 7.4474,
			true, false, true, false, false, nil, nil, nil)
	mockDB.ExpectTenantQuery(testTenantID, "SELECT l.id, l.name, l.location_type", rows)
}

func newService(mockDB *testutil.MockDB, geo *stubGeocoder) *service.LocationService {
	log := logger.New("test", "test")
	return service.NewLocationService(
		repository.NewLocationRepository(mockDB.DB),
		distance.NewCache(geo, true, log),
		&config.GeoConfig{Enabled: true},
		log,
	)
}

func testDossier() *regdomain.Dossier {
	return &regdomain.Dossier{
		RegistrationNumber: "ABCDEF",
		Disease:            regdomain.DiseaseCovid,
		Status:             regdomain.StatusReleased,
	}
}

func tenantCtx() context.Context {
	return tenant.WithTenantContext(context.Background(), testTenantID, "be", "canton_be")
}

func f(v float64) *float64 { return &v }

func TestListForDossier_SortsByDistanceFromRegistrant(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	expectCandidates(mockDB)

	// Registrant lives in Bern, so Bern sorts first despite Zürich
	// coming back first from the repository
	geo := &stubGeocoder{origin: domain.Coordinate{Lat: f(46.948), Lng: f(7.4474)}}
	svc := newService(mockDB, geo)

	locations, err := svc.ListForDossier(tenantCtx(), testDossier(), filter.Options{Sort: filter.SortDistance})
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, "Impfzentrum Bern", locations[0].Name)
	require.NotNil(t, locations[0].DistanceMeters)
	assert.InDelta(t, 0, *locations[0].DistanceMeters, 1)

	mockDB.ExpectationsWereMet(t)
}

func TestListForDossier_GeocodeFailureFallsBackToUndecoratedList(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	expectCandidates(mockDB)

	geo := &stubGeocoder{err: errors.New("geocoding service unavailable")}
	svc := newService(mockDB, geo)

	locations, err := svc.ListForDossier(tenantCtx(), testDossier(), filter.Options{Sort: filter.SortDistance})
	require.NoError(t, err, "a geocoding failure must not fail the listing")
	require.Len(t, locations, 2)
	for _, loc := range locations {
		assert.Nil(t, loc.DistanceMeters)
	}

	mockDB.ExpectationsWereMet(t)
}

func TestListForDossier_UsesConfiguredDistanceCutoff(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	expectCandidates(mockDB)

	log := logger.New("test", "test")
	geo := &stubGeocoder{origin: domain.Coordinate{Lat: f(46.948), Lng: f(7.4474)}}
	svc := service.NewLocationService(
		repository.NewLocationRepository(mockDB.DB),
		distance.NewCache(geo, true, log),
		&config.GeoConfig{Enabled: true, MaxDistanceMeters: 10000},
		log,
	)

	// Zürich is ~95 km from Bern and falls outside the 10 km cutoff
	locations, err := svc.ListForDossier(tenantCtx(), testDossier(), filter.Options{})
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "Impfzentrum Bern", locations[0].Name)

	mockDB.ExpectationsWereMet(t)
}
