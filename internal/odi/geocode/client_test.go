package geocode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vacme/vacme-backend/internal/odi/geocode"
	"github.com/vacme/vacme-backend/pkg/logger"
	"github.com/vacme/vacme-backend/pkg/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode(t *testing.T) {
	var gotPath, gotTenantID, gotSchema string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTenantID = r.Header.Get("X-Tenant-ID")
		gotSchema = r.Header.Get("X-Tenant-Schema")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"lat":46.948,"lng":7.4474}}`))
	}))
	defer srv.Close()

	client := geocode.NewClient(srv.URL, logger.New("test", "test"))
	ctx := tenant.WithTenantContext(context.Background(), "tenant-be", "be", "canton_be")

	coord, err := client.Geocode(ctx, "ABCDEF")
	require.NoError(t, err)
	require.True(t, coord.Complete())
	assert.InDelta(t, 46.948, *coord.Lat, 0.0001)
	assert.InDelta(t, 7.4474, *coord.Lng, 0.0001)

	assert.Equal(t, "/api/v1/geocode/ABCDEF", gotPath)
	assert.Equal(t, "tenant-be", gotTenantID)
	assert.Equal(t, "canton_be", gotSchema)
}

func TestGeocode_UnknownAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := geocode.NewClient(srv.URL, logger.New("test", "test"))

	coord, err := client.Geocode(context.Background(), "GHIJKL")
	require.NoError(t, err)
	assert.False(t, coord.Complete(), "unknown address yields an incomplete coordinate, not an error")
}

func TestGeocode_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":{"code":"INTERNAL_ERROR"}}`))
	}))
	defer srv.Close()

	client := geocode.NewClient(srv.URL, logger.New("test", "test"))

	_, err := client.Geocode(context.Background(), "ABCDEF")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
