package consumers_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/vacme/vacme-backend/internal/odi/distance"
	odidomain "github.com/vacme/vacme-backend/internal/odi/domain"
	"github.com/vacme/vacme-backend/internal/registration/consumers"
	"github.com/vacme/vacme-backend/internal/registration/repository"
	"github.com/vacme/vacme-backend/pkg/logger"
	"github.com/vacme/vacme-backend/pkg/messaging"
	"github.com/vacme/vacme-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTenantID = "6f2d9d10-4c7e-4b1f-9a57-0f6a2e6c1a11"

type countingGeocoder struct {
	calls int
}

func (g *countingGeocoder) Geocode(context.Context, string) (odidomain.Coordinate, error) {
	g.calls++
	lat, lng := 46.948, 7.4474
	return odidomain.Coordinate{Lat: &lat, Lng: &lng}, nil
}

func mustEvent(t *testing.T, eventType string, data interface{}) *messaging.Event {
	t.Helper()
	event, err := messaging.NewEvent(eventType, "test", "corr-1", data)
	require.NoError(t, err)
	return event
}

func TestHandleAddressUpdated_ClearsDistanceCache(t *testing.T) {
	geo := &countingGeocoder{}
	log := logger.New("test", "test")
	cache := distance.NewCache(geo, true, log)

	locations := []*odidomain.Location{{ID: "loc-1", Name: "Impfzentrum Bern"}}
	require.NoError(t, cache.Annotate(context.Background(), "ABCDEF", locations))
	require.Equal(t, 1, geo.calls)

	handler := consumers.NewAddressEventHandler(cache, log)
	event := mustEvent(t, messaging.EventAddressUpdated, messaging.AddressUpdatedEvent{
		RegistrationNumber: "ABCDEF",
		TenantID:           testTenantID,
	})
	require.NoError(t, handler.HandleAddressUpdated(context.Background(), event))

	// The same registrant must be geocoded again on the next listing
	require.NoError(t, cache.Annotate(context.Background(), "ABCDEF", locations))
	assert.Equal(t, 2, geo.calls)
}

func TestHandleDossierMigrated_TranslatesLegacyStatus(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectTenantTx(testTenantID)
	mockDB.Mock.ExpectExec("UPDATE dossiers").
		WithArgs("DOSE_1_GIVEN", "ABCDEF", "COVID-19").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	handler := consumers.NewMigrationEventHandler(
		repository.NewDossierRepository(mockDB.DB), logger.New("test", "test"))

	event := mustEvent(t, messaging.EventDossierMigrated, messaging.DossierMigratedEvent{
		RegistrationNumber: "ABCDEF",
		Disease:            "COVID-19",
		LegacyStatus:       "IMPFUNG_1_DURCHGEFUEHRT",
		TenantID:           testTenantID,
	})
	require.NoError(t, handler.HandleDossierMigrated(context.Background(), event))

	mockDB.ExpectationsWereMet(t)
}

func TestHandleDossierMigrated_RejectsUnknownLegacyStatus(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	handler := consumers.NewMigrationEventHandler(
		repository.NewDossierRepository(mockDB.DB), logger.New("test", "test"))

	event := mustEvent(t, messaging.EventDossierMigrated, messaging.DossierMigratedEvent{
		RegistrationNumber: "ABCDEF",
		Disease:            "COVID-19",
		LegacyStatus:       "KOMPLETT_UNBEKANNT",
		TenantID:           testTenantID,
	})
	err := handler.HandleDossierMigrated(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown legacy dossier status")

	mockDB.ExpectationsWereMet(t)
}

func TestHandleDossierMigrated_RequiresTenant(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	handler := consumers.NewMigrationEventHandler(
		repository.NewDossierRepository(mockDB.DB), logger.New("test", "test"))

	event := mustEvent(t, messaging.EventDossierMigrated, messaging.DossierMigratedEvent{
		RegistrationNumber: "ABCDEF",
		Disease:            "COVID-19",
		LegacyStatus:       "GEBUCHT",
	})
	err := handler.HandleDossierMigrated(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing tenant context")

	mockDB.ExpectationsWereMet(t)
}
