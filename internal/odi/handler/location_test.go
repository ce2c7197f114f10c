package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/vacme/vacme-backend/internal/odi/distance"
	"github.com/vacme/vacme-backend/internal/odi/domain"
	"github.com/vacme/vacme-backend/internal/odi/handler"
	"github.com/vacme/vacme-backend/internal/odi/repository"
	"github.com/vacme/vacme-backend/internal/odi/service"
	regdomain "github.com/vacme/vacme-backend/internal/registration/domain"
	"github.com/vacme/vacme-backend/internal/registration/session"
	"github.com/vacme/vacme-backend/pkg/config"
	"github.com/vacme/vacme-backend/pkg/logger"
	"github.com/vacme/vacme-backend/pkg/tenant"
	"github.com/vacme/vacme-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
)

const testTenantID = "6f2d9d10-4c7e-4b1f-9a57-0f6a2e6c1a11"

type stubGeocoder struct{}

func (stubGeocoder) Geocode(context.Context, string) (domain.Coordinate, error) {
	return domain.Coordinate{}, nil
}

type fixture struct {
	mockDB   *testutil.MockDB
	sessions *session.Store
	handler  *handler.LocationHandler
}

func newFixture(t *testing.T) *fixture {
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	log := logger.New("test", "test")
	sessions := session.NewStore(&config.BookingConfig{DoseMinIntervalDays: 21, DoseMaxIntervalDays: 42})
	svc := service.NewLocationService(
		repository.NewLocationRepository(mockDB.DB),
		distance.NewCache(stubGeocoder{}, false, log),
		&config.GeoConfig{Enabled: false},
		log,
	)

	return &fixture{
		mockDB:   mockDB,
		sessions: sessions,
		handler:  handler.NewLocationHandler(svc, sessions, log),
	}
}

func tenantRequest(req *http.Request) *http.Request {
	return req.WithContext(tenant.WithTenantContext(req.Context(), testTenantID, "be", "canton_be"))
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ff := testutil.NewFixtureFactory()
	d := ff.Dossier()
	first := ff.Location()
	second := ff.Location()

	f.sessions.Get("sess-1").SetDossier(&regdomain.Dossier{
		RegistrationNumber: d.RegistrationNumber,
		Disease:            d.Disease,
		Status:             regdomain.StatusReleased,
	})

	rows := testutil.MockRows(
		"id", "name", "location_type", "lat", "lng",
		"is_public", "is_mobile", "booster_capable", "is_disabled", "requires_payment",
		"next_slot_dose1", "next_slot_dose2", "next_slot_booster",
	).
		AddRow(first.ID, first.Name, first.Type, first.Lat, first.Lng,
			first.Public, first.Mobile, first.BoosterCapable, first.Disabled, first.RequiresPayment, nil, nil, nil).
		AddRow(second.ID, second.Name, second.Type, second.Lat, second.Lng,
			second.Public, second.Mobile, second.BoosterCapable, second.Disabled, second.RequiresPayment, nil, nil, nil)
	f.mockDB.ExpectTenantQuery(testTenantID, "SELECT l.id, l.name, l.location_type", rows)

	req := tenantRequest(testutil.WithSessionID(
		testutil.NewHTTPRequest(http.MethodGet, "/?sort=ALPHABETICAL", nil), "sess-1"))

	rr := testutil.ExecuteRequest(http.HandlerFunc(f.handler.List), req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp struct {
		Data []*domain.Location `json:"data"`
	}
	testutil.ParseJSONBody(t, rr, &resp)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, first.Name, resp.Data[0].Name)
	// Distance feature is off, so no location carries a distance
	assert.Nil(t, resp.Data[0].DistanceMeters)

	f.mockDB.ExpectationsWereMet(t)
}

func TestList_RequiresLoadedDossier(t *testing.T) {
	f := newFixture(t)

	req := tenantRequest(testutil.WithSessionID(
		testutil.NewHTTPRequest(http.MethodGet, "/", nil), "sess-1"))

	rr := testutil.ExecuteRequest(http.HandlerFunc(f.handler.List), req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertBodyContains(t, rr, "BAD_REQUEST")
}

func TestGet(t *testing.T) {
	f := newFixture(t)
	ff := testutil.NewFixtureFactory()
	loc := ff.Location()

	rows := testutil.MockRows(
		"id", "name", "location_type", "lat", "lng",
		"is_public", "is_mobile", "booster_capable", "is_disabled", "requires_payment",
	).
		AddRow(loc.ID, loc.Name, loc.Type, loc.Lat, loc.Lng,
			loc.Public, loc.Mobile, loc.BoosterCapable, loc.Disabled, loc.RequiresPayment)
	f.mockDB.ExpectTenantQuery(testTenantID, "SELECT id, name, location_type", rows)

	r := chi.NewRouter()
	r.Get("/{id}", f.handler.Get)

	req := tenantRequest(testutil.NewHTTPRequest(http.MethodGet, "/"+loc.ID, nil))
	rr := testutil.ExecuteRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertBodyContains(t, rr, loc.Name)

	f.mockDB.ExpectationsWereMet(t)
}
