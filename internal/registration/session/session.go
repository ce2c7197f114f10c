package session

import (
	"sync"
	"time"

	"github.com/vacme/vacme-backend/internal/registration/domain"
	"github.com/vacme/vacme-backend/pkg/errors"
)

// DoseInterval is the allowed day gap between the dose 1 and dose 2
// appointments.
type DoseInterval struct {
	MinDays int
	MaxDays int
}

// BookingSession is the single source of truth for what one user is
// currently trying to book: the loaded dossier, the chosen location and
// up to three selected appointment slots. One session has one logical
// writer; concurrent requests on the same session race last-write-wins
// (the mutex keeps the struct consistent, not the workflow).
type BookingSession struct {
	mu sync.Mutex

	interval DoseInterval

	dossier        *domain.Dossier
	chosenLocation *domain.LocationRef

	slot1       *domain.Slot
	slot2       *domain.Slot
	slotBooster *domain.Slot

	illnessDeclarationConfirmed bool
}

func newSession(interval DoseInterval) *BookingSession {
	return &BookingSession{interval: interval}
}

// Reset clears the dossier, the chosen location and all three slot
// selections together. Stale slot selections must never survive a
// switch to another registration.
func (s *BookingSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *BookingSession) resetLocked() {
	s.dossier = nil
	s.chosenLocation = nil
	s.slot1 = nil
	s.slot2 = nil
	s.slotBooster = nil
	s.illnessDeclarationConfirmed = false
}

// SetDossier stores a freshly loaded dossier snapshot. When the new
// dossier belongs to a different disease track (or a different
// registration number), all session state is reset first: the disease
// is the partition key, switching tracks is switching person as far as
// this session is concerned.
func (s *BookingSession) SetDossier(d *domain.Dossier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dossier != nil && d != nil {
		if s.dossier.Disease != d.Disease || s.dossier.RegistrationNumber != d.RegistrationNumber {
			s.resetLocked()
		}
	}
	s.dossier = d
}

// Dossier returns the currently held dossier snapshot, nil when none is
// loaded.
func (s *BookingSession) Dossier() *domain.Dossier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dossier
}

// SetChosenLocation records the vaccination location the user selected.
func (s *BookingSession) SetChosenLocation(ref *domain.LocationRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chosenLocation = ref
}

// ChosenLocation returns the selected vaccination location, nil when
// none is chosen.
func (s *BookingSession) ChosenLocation() *domain.LocationRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chosenLocation
}

// SetSlot records the selected slot for the given dose sequence.
func (s *BookingSession) SetSlot(seq domain.DoseSequence, slot *domain.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch seq {
	case domain.Dose1:
		s.slot1 = slot
	case domain.Dose2:
		s.slot2 = slot
	case domain.Booster:
		s.slotBooster = slot
	}
}

// Slot returns the selected slot for the given dose sequence, nil when
// none is selected.
func (s *BookingSession) Slot(seq domain.DoseSequence) *domain.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slotLocked(seq)
}

func (s *BookingSession) slotLocked(seq domain.DoseSequence) *domain.Slot {
	switch seq {
	case domain.Dose1:
		return s.slot1
	case domain.Dose2:
		return s.slot2
	case domain.Booster:
		return s.slotBooster
	}
	return nil
}

// OppositeSlot returns the slot paired with the given dose sequence:
// the dose 2 slot for dose 1 and vice versa, nil for the booster. When
// no new selection was made in this session, the dossier's already
// booked slot counts as the pairing.
func (s *BookingSession) OppositeSlot(seq domain.DoseSequence) *domain.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.oppositeSlotLocked(seq)
}

func (s *BookingSession) oppositeSlotLocked(seq domain.DoseSequence) *domain.Slot {
	opp, ok := seq.Opposite()
	if !ok {
		return nil
	}
	if slot := s.slotLocked(opp); slot != nil {
		return slot
	}
	return s.dossier.BookedSlot(opp)
}

// MinAllowedDate returns the earliest date the slot for the given dose
// sequence may fall on, nil when no restriction applies.
func (s *BookingSession) MinAllowedDate(seq domain.DoseSequence) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	opp := s.oppositeSlotLocked(seq)
	if opp == nil || s.intervalSuspendedLocked(seq) {
		return nil
	}

	switch seq {
	case domain.Dose2:
		t := opp.Start.AddDate(0, 0, s.interval.MinDays)
		return &t
	case domain.Dose1:
		t := opp.Start.AddDate(0, 0, -s.interval.MaxDays)
		return &t
	}
	return nil
}

// MaxAllowedDate returns the latest date the slot for the given dose
// sequence may fall on, nil when no restriction applies.
func (s *BookingSession) MaxAllowedDate(seq domain.DoseSequence) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	opp := s.oppositeSlotLocked(seq)
	if opp == nil || s.intervalSuspendedLocked(seq) {
		return nil
	}

	switch seq {
	case domain.Dose2:
		t := opp.Start.AddDate(0, 0, s.interval.MaxDays)
		return &t
	case domain.Dose1:
		t := opp.Start.AddDate(0, 0, -s.interval.MinDays)
		return &t
	}
	return nil
}

// intervalSuspendedLocked reports whether the dose interval window no
// longer binds the given sequence:
//   - re-booking dose 1 while the dossier is booked but nothing has been
//     administered yet must not be constrained by dose 2's existing slot;
//   - once dose 1 is historical fact, re-booking dose 2 is free of the
//     original window.
func (s *BookingSession) intervalSuspendedLocked(seq domain.DoseSequence) bool {
	if s.dossier == nil {
		return false
	}
	status := s.dossier.Status

	switch seq {
	case domain.Dose1:
		return status.In(domain.PhaseAtLeastBooked) && !status.In(domain.PhaseDoseGiven)
	case domain.Dose2:
		return status.In(domain.PhaseDoseGiven)
	}
	return false
}

// SequencesToBook returns which dose sequences the current dossier
// phase requires: the booster alone once booster-eligible, otherwise
// dose 1 and dose 2.
func (s *BookingSession) SequencesToBook() []domain.DoseSequence {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dossier != nil && s.dossier.Status.In(domain.PhaseBoosterEligible) {
		return []domain.DoseSequence{domain.Booster}
	}
	return []domain.DoseSequence{domain.Dose1, domain.Dose2}
}

// HasAllRequiredSlots reports whether every sequence the dossier phase
// requires has a selected slot.
func (s *BookingSession) HasAllRequiredSlots() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dossier != nil && s.dossier.Status.In(domain.PhaseBoosterEligible) {
		return s.slotBooster != nil
	}
	return s.slot1 != nil && s.slot2 != nil
}

// SetIllnessDeclarationConfirmed records that the user confirmed the
// illness questionnaire. The flag lives only in the session.
func (s *BookingSession) SetIllnessDeclarationConfirmed(confirmed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.illnessDeclarationConfirmed = confirmed
}

// IllnessDeclarationConfirmed reports whether the user confirmed the
// illness questionnaire in this session.
func (s *BookingSession) IllnessDeclarationConfirmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.illnessDeclarationConfirmed
}

// IsSlotTakenConflict reports whether the error is the structured
// "slot already taken" validation conflict, so callers can re-prompt
// for another slot instead of surfacing a generic failure. Any other
// error, including nil and malformed payloads, yields false. Only the
// outermost AppError's code and details are inspected; a slot-taken
// error wrapped inside another AppError is not recognized.
func IsSlotTakenConflict(err error) bool {
	if err == nil {
		return false
	}
	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	if appErr.Code == errors.ViolationSlotTaken {
		return true
	}
	return appErr.Details["violation"] == errors.ViolationSlotTaken
}
