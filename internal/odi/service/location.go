package service

import (
	"context"

	"github.com/vacme/vacme-backend/internal/odi/distance"
	"github.com/vacme/vacme-backend/internal/odi/domain"
	"github.com/vacme/vacme-backend/internal/odi/filter"
	"github.com/vacme/vacme-backend/internal/odi/repository"
	regdomain "github.com/vacme/vacme-backend/internal/registration/domain"
	"github.com/vacme/vacme-backend/pkg/config"
	"github.com/vacme/vacme-backend/pkg/logger"
)

// LocationService serves the candidate location list for the booking
// flow: load, decorate with distances, filter and sort.
type LocationService struct {
	locationRepo  *repository.LocationRepository
	distanceCache *distance.Cache
	geoCfg        *config.GeoConfig
	logger        *logger.Logger
}

// NewLocationService creates a new location service
func NewLocationService(
	locationRepo *repository.LocationRepository,
	distanceCache *distance.Cache,
	geoCfg *config.GeoConfig,
	log *logger.Logger,
) *LocationService {
	return &LocationService{
		locationRepo:  locationRepo,
		distanceCache: distanceCache,
		geoCfg:        geoCfg,
		logger:        log,
	}
}

// ListForDossier returns the filtered, sorted candidate locations for
// the registrant. A geocoding failure degrades to the undecorated list
// instead of failing the request; distance sorting then puts every
// location in the nil-last bucket.
func (s *LocationService) ListForDossier(ctx context.Context, dossier *regdomain.Dossier, opts filter.Options) ([]*domain.Location, error) {
	locations, err := s.locationRepo.ListCandidates(ctx, dossier.Disease)
	if err != nil {
		return nil, err
	}

	if err := s.distanceCache.Annotate(ctx, dossier.RegistrationNumber, locations); err != nil {
		s.logger.Warn().Err(err).
			Str("registration_number", dossier.RegistrationNumber).
			Msg("distance annotation failed, serving locations without distances")
	}

	if opts.MaxDistanceMeters == 0 {
		opts.MaxDistanceMeters = s.geoCfg.MaxDistanceMeters
	}

	return filter.Apply(opts, locations, dossier), nil
}

// GetLocation returns a single location for the detail view.
func (s *LocationService) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	return s.locationRepo.GetByID(ctx, id)
}

// InvalidateDistances drops the distance cache. Called when a
// registrant's address changed and any cached origin may be stale.
func (s *LocationService) InvalidateDistances() {
	s.distanceCache.Clear()
}
