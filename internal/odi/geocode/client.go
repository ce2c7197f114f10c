package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/vacme/vacme-backend/internal/odi/domain"
	"github.com/vacme/vacme-backend/pkg/logger"
	"github.com/vacme/vacme-backend/pkg/tenant"
)

// Client calls the geocoding service to resolve a registrant's postal
// address to a coordinate. The geocoding service holds the address data;
// the booking service only ever sends the registration number.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a geocoding service client.
func NewClient(baseURL string, log *logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log,
	}
}

type geocodeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	} `json:"data"`
}

// Geocode resolves the registrant's address. A registrant whose address
// cannot be located returns an incomplete coordinate, not an error;
// errors are reserved for transport and service failures.
// CRITICAL: This must forward tenant headers - addresses live in the canton's schema
func (c *Client) Geocode(ctx context.Context, registrationNumber string) (domain.Coordinate, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET",
		c.baseURL+"/api/v1/geocode/"+url.PathEscape(registrationNumber), nil)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("failed to create request: %w", err)
	}

	// CRITICAL: Forward tenant headers
	tenantID, _ := tenant.TenantID(ctx)
	tenantSlug, _ := tenant.TenantSlug(ctx)
	tenantSchema, _ := tenant.TenantSchema(ctx)

	if tenantID != "" {
		httpReq.Header.Set("X-Tenant-ID", tenantID)
	}
	if tenantSlug != "" {
		httpReq.Header.Set("X-Tenant-Slug", tenantSlug)
	}
	if tenantSchema != "" {
		httpReq.Header.Set("X-Tenant-Schema", tenantSchema)
	}

	c.logger.Debug().
		Str("registration_number", registrationNumber).
		Str("tenant_id", tenantID).
		Msg("geocoding registrant address")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to call geocoding service")
		return domain.Coordinate{}, fmt.Errorf("failed to call geocoding service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Unknown address: distances stay undefined for this registrant
		c.logger.Info().
			Str("registration_number", registrationNumber).
			Msg("address could not be geocoded")
		return domain.Coordinate{}, nil
	}

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return domain.Coordinate{}, fmt.Errorf("geocoding failed with status %d: %v", resp.StatusCode, errResp)
	}

	var response geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return domain.Coordinate{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return domain.Coordinate{Lat: response.Data.Lat, Lng: response.Data.Lng}, nil
}
