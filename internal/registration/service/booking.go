package service

import (
	"context"

	odirepo "github.com/vacme/vacme-backend/internal/odi/repository"
	"github.com/vacme/vacme-backend/internal/registration/domain"
	"github.com/vacme/vacme-backend/internal/registration/repository"
	"github.com/vacme/vacme-backend/internal/registration/session"
	"github.com/vacme/vacme-backend/pkg/errors"
	"github.com/vacme/vacme-backend/pkg/logger"
)

// EventPublisher is the outbound event surface the booking flow needs.
// Satisfied by events.RegistrationEventPublisher.
type EventPublisher interface {
	PublishAppointmentBooked(ctx context.Context, dossier *domain.Dossier, locationID string)
	PublishAppointmentCancelled(ctx context.Context, registrationNumber, disease string)
	PublishStatusChanged(ctx context.Context, registrationNumber, disease string, oldStatus, newStatus domain.RegistrationStatus)
	PublishAuditLog(ctx context.Context, action, registrationNumber string)
}

// BookingService drives the appointment booking flow: load a dossier
// into the session, pick a location and slots under the dose interval
// rules, then commit the booking atomically against the slot table.
type BookingService struct {
	dossierRepo  *repository.DossierRepository
	slotRepo     *repository.SlotRepository
	locationRepo *odirepo.LocationRepository
	sessions     *session.Store
	publisher    EventPublisher
	logger       *logger.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(
	dossierRepo *repository.DossierRepository,
	slotRepo *repository.SlotRepository,
	locationRepo *odirepo.LocationRepository,
	sessions *session.Store,
	publisher EventPublisher,
	log *logger.Logger,
) *BookingService {
	return &BookingService{
		dossierRepo:  dossierRepo,
		slotRepo:     slotRepo,
		locationRepo: locationRepo,
		sessions:     sessions,
		publisher:    publisher,
		logger:       log,
	}
}

// LoadDossier fetches the dossier and pushes the snapshot into the
// booking session. Switching to a different disease track or a
// different registrant resets any selections made so far.
func (s *BookingService) LoadDossier(ctx context.Context, sessionKey, registrationNumber, disease string) (*domain.Dossier, error) {
	dossier, err := s.dossierRepo.GetByRegistrationNumber(ctx, registrationNumber, disease)
	if err != nil {
		return nil, err
	}

	s.sessions.Get(sessionKey).SetDossier(dossier)
	return dossier, nil
}

// ChooseLocation records the selected vaccination location on the
// session and advances the dossier status. Only a released dossier can
// choose a location; later phases keep their status.
func (s *BookingService) ChooseLocation(ctx context.Context, sessionKey, locationID string) error {
	sess := s.sessions.Get(sessionKey)
	dossier := sess.Dossier()
	if dossier == nil {
		return errors.BadRequest("no dossier loaded in booking session")
	}

	location, err := s.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		return err
	}
	if location.Disabled || !location.Public {
		return errors.BadRequest("location is not bookable")
	}

	sess.SetChosenLocation(&domain.LocationRef{ID: location.ID, Name: location.Name})

	var next domain.RegistrationStatus
	switch dossier.Status {
	case domain.StatusReleased:
		next = domain.StatusLocationChosen
	case domain.StatusBoosterReleased:
		next = domain.StatusBoosterLocationChosen
	default:
		return nil
	}

	if err := s.dossierRepo.UpdateStatus(ctx, dossier.RegistrationNumber, dossier.Disease, next); err != nil {
		return err
	}

	old := dossier.Status
	dossier.Status = next
	sess.SetDossier(dossier)
	s.publisher.PublishStatusChanged(ctx, dossier.RegistrationNumber, dossier.Disease, old, next)
	return nil
}

// ListSlots returns the free slots at the chosen location for one dose
// sequence, already narrowed to the dose interval window the session
// derives from the opposite slot.
func (s *BookingService) ListSlots(ctx context.Context, sessionKey string, seq domain.DoseSequence) ([]*domain.Slot, error) {
	sess := s.sessions.Get(sessionKey)
	if sess.Dossier() == nil {
		return nil, errors.BadRequest("no dossier loaded in booking session")
	}

	location := sess.ChosenLocation()
	if location == nil {
		return nil, errors.BadRequest("no location chosen")
	}

	return s.slotRepo.ListFree(ctx, location.ID, seq, sess.MinAllowedDate(seq), sess.MaxAllowedDate(seq))
}

// SelectSlot validates a slot against the session's rules and records
// it as the selection for its dose sequence.
func (s *BookingService) SelectSlot(ctx context.Context, sessionKey string, seq domain.DoseSequence, slotID string) error {
	sess := s.sessions.Get(sessionKey)
	if sess.Dossier() == nil {
		return errors.BadRequest("no dossier loaded in booking session")
	}

	location := sess.ChosenLocation()
	if location == nil {
		return errors.BadRequest("no location chosen")
	}

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return err
	}

	if slot.LocationID != location.ID {
		return errors.BadRequest("slot belongs to a different location")
	}
	if slot.Sequence != seq {
		return errors.BadRequest("slot is for a different dose")
	}
	if min := sess.MinAllowedDate(seq); min != nil && slot.Start.Before(*min) {
		return errors.Validation(map[string]string{
			"slot": "earlier than the minimum dose interval allows",
		})
	}
	if max := sess.MaxAllowedDate(seq); max != nil && slot.Start.After(*max) {
		return errors.Validation(map[string]string{
			"slot": "later than the maximum dose interval allows",
		})
	}

	sess.SetSlot(seq, slot)
	return nil
}

// Book commits the session's selections: every required slot is claimed
// with a conditional update, the dossier advances to the booked status,
// and the booked event goes out. When any claim loses the race the
// already-claimed slots of this attempt are released again and the
// slot-taken violation propagates so the user can pick a new slot.
func (s *BookingService) Book(ctx context.Context, sessionKey string) (*domain.Dossier, error) {
	sess := s.sessions.Get(sessionKey)
	dossier := sess.Dossier()
	if dossier == nil {
		return nil, errors.BadRequest("no dossier loaded in booking session")
	}
	location := sess.ChosenLocation()
	if location == nil {
		return nil, errors.BadRequest("no location chosen")
	}
	if !sess.HasAllRequiredSlots() {
		return nil, errors.BadRequest("not all required slots are selected")
	}
	if !sess.IllnessDeclarationConfirmed() {
		return nil, errors.BadRequest("illness declaration not confirmed")
	}

	log := s.logger.WithRegistration(dossier.RegistrationNumber)

	sequences := sess.SequencesToBook()
	claimed := make([]*domain.Slot, 0, len(sequences))
	for _, seq := range sequences {
		slot := sess.Slot(seq)
		if err := s.slotRepo.Claim(ctx, slot.ID, dossier.RegistrationNumber); err != nil {
			for _, c := range claimed {
				if relErr := s.slotRepo.Release(ctx, c.ID, dossier.RegistrationNumber); relErr != nil {
					log.Error().Err(relErr).
						Str("slot_id", c.ID).
						Msg("failed to release slot after lost claim race")
				}
			}
			return nil, err
		}
		claimed = append(claimed, slot)
	}

	old := dossier.Status
	next := domain.StatusBooked
	if old.In(domain.PhaseBoosterEligible) {
		next = domain.StatusBoosterBooked
	}

	if err := s.dossierRepo.UpdateStatus(ctx, dossier.RegistrationNumber, dossier.Disease, next); err != nil {
		for _, c := range claimed {
			if relErr := s.slotRepo.Release(ctx, c.ID, dossier.RegistrationNumber); relErr != nil {
				log.Error().Err(relErr).Str("slot_id", c.ID).Msg("failed to release slot after status update failure")
			}
		}
		return nil, err
	}

	dossier.Status = next
	for _, seq := range sequences {
		slot := sess.Slot(seq)
		switch seq {
		case domain.Dose1:
			dossier.Slot1 = slot
		case domain.Dose2:
			dossier.Slot2 = slot
		case domain.Booster:
			dossier.SlotBooster = slot
		}
	}
	sess.SetDossier(dossier)

	log.Info().
		Str("location_id", location.ID).
		Int("slots", len(claimed)).
		Msg("appointment booked")

	s.publisher.PublishStatusChanged(ctx, dossier.RegistrationNumber, dossier.Disease, old, next)
	s.publisher.PublishAppointmentBooked(ctx, dossier, location.ID)
	s.publisher.PublishAuditLog(ctx, "appointment.booked", dossier.RegistrationNumber)

	return dossier, nil
}

// Cancel releases the dossier's booked slots and drops the status back
// to the released phase so the registrant can book again.
func (s *BookingService) Cancel(ctx context.Context, sessionKey string) error {
	sess := s.sessions.Get(sessionKey)
	dossier := sess.Dossier()
	if dossier == nil {
		return errors.BadRequest("no dossier loaded in booking session")
	}

	var next domain.RegistrationStatus
	switch dossier.Status {
	case domain.StatusBooked, domain.StatusLocationChosen:
		next = domain.StatusReleased
	case domain.StatusBoosterBooked, domain.StatusBoosterLocationChosen:
		next = domain.StatusBoosterReleased
	default:
		return errors.BadRequest("dossier has no cancellable booking")
	}

	for _, slot := range []*domain.Slot{dossier.Slot1, dossier.Slot2, dossier.SlotBooster} {
		if slot == nil {
			continue
		}
		if err := s.slotRepo.Release(ctx, slot.ID, dossier.RegistrationNumber); err != nil {
			return err
		}
	}

	if err := s.dossierRepo.UpdateStatus(ctx, dossier.RegistrationNumber, dossier.Disease, next); err != nil {
		return err
	}

	old := dossier.Status
	dossier.Status = next
	dossier.Slot1, dossier.Slot2, dossier.SlotBooster = nil, nil, nil
	sess.Reset()
	sess.SetDossier(dossier)

	s.publisher.PublishStatusChanged(ctx, dossier.RegistrationNumber, dossier.Disease, old, next)
	s.publisher.PublishAppointmentCancelled(ctx, dossier.RegistrationNumber, dossier.Disease)
	s.publisher.PublishAuditLog(ctx, "appointment.cancelled", dossier.RegistrationNumber)
	return nil
}
