package distance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vacme/vacme-backend/internal/odi/distance"
	"github.com/vacme/vacme-backend/internal/odi/domain"
	"github.com/vacme/vacme-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func coord(lat, lng float64) domain.Coordinate {
	return domain.Coordinate{Lat: f(lat), Lng: f(lng)}
}

// fakeGeocoder counts calls and serves a fixed coordinate per
// registration number.
type fakeGeocoder struct {
	calls   int
	origins map[string]domain.Coordinate
	err     error
}

func (g *fakeGeocoder) Geocode(_ context.Context, registrationNumber string) (domain.Coordinate, error) {
	g.calls++
	if g.err != nil {
		return domain.Coordinate{}, g.err
	}
	return g.origins[registrationNumber], nil
}

func testLocations() []*domain.Location {
	return []*domain.Location{
		{ID: "odi-bern", Name: "Impfzentrum Bern", Coordinate: coord(46.9480, 7.4474)},
		{ID: "odi-zurich", Name: "Impfzentrum Zürich", Coordinate: coord(47.3769, 8.5417)},
		{ID: "odi-mobile", Name: "Mobiles Impfteam"}, // not geocoded
	}
}

func TestBetween(t *testing.T) {
	bern := coord(46.9480, 7.4474)
	zurich := coord(47.3769, 8.5417)

	d := distance.Between(bern, zurich)
	require.NotNil(t, d)
	// Bern-Zürich is roughly 95 km as the crow flies
	assert.InDelta(t, 95000, *d, 3000)
}

func TestBetween_SamePointIsZero(t *testing.T) {
	p := coord(46.9480, 7.4474)
	d := distance.Between(p, p)
	require.NotNil(t, d)
	assert.InDelta(t, 0, *d, 0.001)
}

func TestBetween_MissingCoordinateIsUndefined(t *testing.T) {
	p := coord(46.9480, 7.4474)

	assert.Nil(t, distance.Between(p, domain.Coordinate{}))
	assert.Nil(t, distance.Between(domain.Coordinate{}, p))
	assert.Nil(t, distance.Between(p, domain.Coordinate{Lat: f(47.0)}))
	assert.Nil(t, distance.Between(domain.Coordinate{Lng: f(8.0)}, p))
}

func TestAnnotate_MemoizesPerRegistration(t *testing.T) {
	geo := &fakeGeocoder{origins: map[string]domain.Coordinate{
		"ABCDEF": coord(46.9480, 7.4474),
	}}
	cache := distance.NewCache(geo, true, logger.New("test", "test"))

	locs := testLocations()
	require.NoError(t, cache.Annotate(context.Background(), "ABCDEF", locs))
	require.NotNil(t, locs[0].DistanceMeters)
	assert.InDelta(t, 0, *locs[0].DistanceMeters, 0.001)
	require.NotNil(t, locs[1].DistanceMeters)
	assert.Nil(t, locs[2].DistanceMeters, "location without coordinate stays undefined")

	// Second run for the same registration number must not geocode again
	again := testLocations()
	require.NoError(t, cache.Annotate(context.Background(), "ABCDEF", again))
	assert.Equal(t, 1, geo.calls)
	require.NotNil(t, again[1].DistanceMeters)
	assert.Equal(t, *locs[1].DistanceMeters, *again[1].DistanceMeters)
}

func TestAnnotate_NewRegistrationReplacesCache(t *testing.T) {
	geo := &fakeGeocoder{origins: map[string]domain.Coordinate{
		"ABCDEF": coord(46.9480, 7.4474),
		"GHIJKL": coord(47.3769, 8.5417),
	}}
	cache := distance.NewCache(geo, true, logger.New("test", "test"))

	first := testLocations()
	require.NoError(t, cache.Annotate(context.Background(), "ABCDEF", first))
	require.NotNil(t, first[1].DistanceMeters)
	assert.Greater(t, *first[1].DistanceMeters, 90000.0)

	// Different registration number: whole cache is rebuilt from the new
	// origin, so Zürich is now at distance zero
	second := testLocations()
	require.NoError(t, cache.Annotate(context.Background(), "GHIJKL", second))
	assert.Equal(t, 2, geo.calls)
	require.NotNil(t, second[1].DistanceMeters)
	assert.InDelta(t, 0, *second[1].DistanceMeters, 0.001)

	// Returning to the first registrant geocodes afresh: the old entry is gone
	back := testLocations()
	require.NoError(t, cache.Annotate(context.Background(), "ABCDEF", back))
	assert.Equal(t, 3, geo.calls)
}

func TestAnnotate_DisabledFeatureIsNoop(t *testing.T) {
	geo := &fakeGeocoder{origins: map[string]domain.Coordinate{}}
	cache := distance.NewCache(geo, false, logger.New("test", "test"))

	locs := testLocations()
	require.NoError(t, cache.Annotate(context.Background(), "ABCDEF", locs))
	assert.Equal(t, 0, geo.calls)
	for _, loc := range locs {
		assert.Nil(t, loc.DistanceMeters)
	}
}

func TestAnnotate_GeocodeFailureLeavesCacheUntouched(t *testing.T) {
	geo := &fakeGeocoder{origins: map[string]domain.Coordinate{
		"ABCDEF": coord(46.9480, 7.4474),
	}}
	cache := distance.NewCache(geo, true, logger.New("test", "test"))

	require.NoError(t, cache.Annotate(context.Background(), "ABCDEF", testLocations()))

	geo.err = errors.New("geocoding service unavailable")
	locs := testLocations()
	err := cache.Annotate(context.Background(), "GHIJKL", locs)
	require.Error(t, err)
	for _, loc := range locs {
		assert.Nil(t, loc.DistanceMeters)
	}

	// The previous registrant's cache survived the failed switch
	geo.err = nil
	require.NoError(t, cache.Annotate(context.Background(), "ABCDEF", testLocations()))
	assert.Equal(t, 2, geo.calls)
}

func TestClear_ForcesFreshGeocode(t *testing.T) {
	geo := &fakeGeocoder{origins: map[string]domain.Coordinate{
		"ABCDEF": coord(46.9480, 7.4474),
	}}
	cache := distance.NewCache(geo, true, logger.New("test", "test"))

	require.NoError(t, cache.Annotate(context.Background(), "ABCDEF", testLocations()))
	cache.Clear()
	require.NoError(t, cache.Annotate(context.Background(), "ABCDEF", testLocations()))
	assert.Equal(t, 2, geo.calls)
}
