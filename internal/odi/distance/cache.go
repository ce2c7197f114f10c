package distance

import (
	"context"
	"sync"

	"github.com/vacme/vacme-backend/internal/odi/domain"
	"github.com/vacme/vacme-backend/pkg/logger"
)

// Geocoder resolves a registrant's postal address to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, registrationNumber string) (domain.Coordinate, error)
}

// Cache memoizes the distance from one registrant's geocoded address to
// each vaccination location. It holds a single origin at a time: the
// booking flow processes one registrant per session, so querying a
// different registration number discards the previous cache wholesale
// instead of growing a multi-entry cache.
type Cache struct {
	mu sync.Mutex

	geocoder Geocoder
	enabled  bool
	logger   *logger.Logger

	registrationNumber string
	origin             domain.Coordinate
	distances          map[string]*float64
}

// NewCache creates a distance cache. When enabled is false, Annotate is
// a no-op and locations are served without distances.
func NewCache(geocoder Geocoder, enabled bool, log *logger.Logger) *Cache {
	return &Cache{
		geocoder: geocoder,
		enabled:  enabled,
		logger:   log,
	}
}

// Annotate fills DistanceMeters on every location from the registrant's
// geocoded address, memoizing per location. The first request for a new
// registration number geocodes once and replaces the whole cache. A
// geocoding failure propagates to the caller and leaves the cache
// untouched, so the caller can fall back to the undecorated list.
func (c *Cache) Annotate(ctx context.Context, registrationNumber string, locations []*domain.Location) error {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registrationNumber != registrationNumber || c.distances == nil {
		origin, err := c.geocoder.Geocode(ctx, registrationNumber)
		if err != nil {
			return err
		}

		// Replace, never merge: the previous registrant's distances are
		// gone the moment a new registration number is geocoded.
		c.registrationNumber = registrationNumber
		c.origin = origin
		c.distances = make(map[string]*float64, len(locations))

		c.logger.Debug().
			Str("registration_number", registrationNumber).
			Msg("distance cache rebuilt")
	}

	for _, loc := range locations {
		d, ok := c.distances[loc.ID]
		if !ok {
			d = Between(c.origin, loc.Coordinate)
			c.distances[loc.ID] = d
		}
		loc.DistanceMeters = d
	}

	return nil
}

// Clear drops the entire cache. Called whenever the registrant's
// address may have changed server-side.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.registrationNumber = ""
	c.origin = domain.Coordinate{}
	c.distances = nil
}
