package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vacme/vacme-backend/internal/odi/domain"
	"github.com/vacme/vacme-backend/internal/odi/filter"
	"github.com/vacme/vacme-backend/internal/odi/service"
	"github.com/vacme/vacme-backend/internal/registration/session"
	"github.com/vacme/vacme-backend/pkg/errors"
	"github.com/vacme/vacme-backend/pkg/httputil"
	"github.com/vacme/vacme-backend/pkg/logger"
)

// LocationHandler handles vaccination location endpoints
type LocationHandler struct {
	service  *service.LocationService
	sessions *session.Store
	logger   *logger.Logger
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(svc *service.LocationService, sessions *session.Store, log *logger.Logger) *LocationHandler {
	return &LocationHandler{
		service:  svc,
		sessions: sessions,
		logger:   log,
	}
}

// List returns the candidate locations for the caller's booking
// session, decorated with distances and ordered per the query.
//
// Query parameters: sort (ALPHABETICAL|NEXT_APPOINTMENT|DISTANCE),
// types (comma-separated), max_distance_meters handled via config.
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(session.KeyFromRequest(r))
	dossier := sess.Dossier()
	if dossier == nil {
		httputil.ErrorLocalized(w, r, errors.BadRequest("no dossier loaded in booking session"))
		return
	}

	opts := filter.Options{Sort: filter.SortType(r.URL.Query().Get("sort"))}
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			opts.Types = append(opts.Types, domain.LocationType(strings.TrimSpace(t)))
		}
	}

	locations, err := h.service.ListForDossier(r.Context(), dossier, opts)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, locations)
}

// Get returns a single location
func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	location, err := h.service.GetLocation(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, location)
}
