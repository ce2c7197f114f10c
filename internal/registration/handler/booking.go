package handler

import (
	"net/http"
	"time"

	"github.com/vacme/vacme-backend/internal/registration/domain"
	"github.com/vacme/vacme-backend/internal/registration/service"
	"github.com/vacme/vacme-backend/internal/registration/session"
	"github.com/vacme/vacme-backend/pkg/errors"
	"github.com/vacme/vacme-backend/pkg/httputil"
	"github.com/vacme/vacme-backend/pkg/logger"
)

// BookingHandler handles the appointment booking flow endpoints
type BookingHandler struct {
	service  *service.BookingService
	sessions *session.Store
	logger   *logger.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(svc *service.BookingService, sessions *session.Store, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service:  svc,
		sessions: sessions,
		logger:   log,
	}
}

// LoadDossierRequest selects which dossier to book for
type LoadDossierRequest struct {
	RegistrationNumber string `json:"registration_number" validate:"required,len=6"`
	Disease            string `json:"disease" validate:"required"`
}

// LoadDossier loads the dossier into the caller's booking session
func (h *BookingHandler) LoadDossier(w http.ResponseWriter, r *http.Request) {
	var req LoadDossierRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	dossier, err := h.service.LoadDossier(r.Context(), session.KeyFromRequest(r), req.RegistrationNumber, req.Disease)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, dossier)
}

// ChooseLocationRequest selects the vaccination location
type ChooseLocationRequest struct {
	LocationID string `json:"location_id" validate:"required,uuid"`
}

// ChooseLocation records the selected location on the session
func (h *BookingHandler) ChooseLocation(w http.ResponseWriter, r *http.Request) {
	var req ChooseLocationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := h.service.ChooseLocation(r.Context(), session.KeyFromRequest(r), req.LocationID); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// ListSlots returns free slots for one dose sequence at the chosen
// location, narrowed to the allowed dose interval window
func (h *BookingHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	seq, err := parseSequence(r.URL.Query().Get("sequence"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	slots, err := h.service.ListSlots(r.Context(), session.KeyFromRequest(r), seq)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, slots)
}

// SelectSlotRequest picks a slot for a dose sequence
type SelectSlotRequest struct {
	Sequence string `json:"sequence" validate:"required,oneof=DOSE_1 DOSE_2 BOOSTER"`
	SlotID   string `json:"slot_id" validate:"required,uuid"`
}

// SelectSlot validates and records a slot selection on the session
func (h *BookingHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	var req SelectSlotRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := h.service.SelectSlot(r.Context(), session.KeyFromRequest(r), domain.DoseSequence(req.Sequence), req.SlotID); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// IllnessDeclarationRequest confirms the illness questionnaire
type IllnessDeclarationRequest struct {
	Confirmed bool `json:"confirmed"`
}

// ConfirmIllnessDeclaration stores the questionnaire confirmation flag
func (h *BookingHandler) ConfirmIllnessDeclaration(w http.ResponseWriter, r *http.Request) {
	var req IllnessDeclarationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	h.sessions.Get(session.KeyFromRequest(r)).SetIllnessDeclarationConfirmed(req.Confirmed)
	httputil.NoContent(w)
}

// Book commits the session's selections
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	dossier, err := h.service.Book(r.Context(), session.KeyFromRequest(r))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, dossier)
}

// Cancel releases the dossier's booked slots
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(r.Context(), session.KeyFromRequest(r)); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// SessionState is the booking session snapshot served to the UI
type SessionState struct {
	Dossier                     *domain.Dossier     `json:"dossier,omitempty"`
	ChosenLocation              *domain.LocationRef `json:"chosen_location,omitempty"`
	Slot1                       *domain.Slot        `json:"slot1,omitempty"`
	Slot2                       *domain.Slot        `json:"slot2,omitempty"`
	SlotBooster                 *domain.Slot        `json:"slot_booster,omitempty"`
	IllnessDeclarationConfirmed bool                `json:"illness_declaration_confirmed"`
	Windows                     map[string]Window   `json:"windows"`
}

// Window is the allowed date range for one dose sequence; nil bounds
// mean no restriction
type Window struct {
	Min *time.Time `json:"min,omitempty"`
	Max *time.Time `json:"max,omitempty"`
}

// GetSession returns the current booking session snapshot
func (h *BookingHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(session.KeyFromRequest(r))

	state := SessionState{
		Dossier:                     sess.Dossier(),
		ChosenLocation:              sess.ChosenLocation(),
		Slot1:                       sess.Slot(domain.Dose1),
		Slot2:                       sess.Slot(domain.Dose2),
		SlotBooster:                 sess.Slot(domain.Booster),
		IllnessDeclarationConfirmed: sess.IllnessDeclarationConfirmed(),
		Windows:                     map[string]Window{},
	}
	for _, seq := range []domain.DoseSequence{domain.Dose1, domain.Dose2, domain.Booster} {
		state.Windows[string(seq)] = Window{
			Min: sess.MinAllowedDate(seq),
			Max: sess.MaxAllowedDate(seq),
		}
	}

	httputil.JSON(w, http.StatusOK, state)
}

func parseSequence(raw string) (domain.DoseSequence, error) {
	switch domain.DoseSequence(raw) {
	case domain.Dose1, domain.Dose2, domain.Booster:
		return domain.DoseSequence(raw), nil
	}
	return "", errors.BadRequest("unknown dose sequence")
}
