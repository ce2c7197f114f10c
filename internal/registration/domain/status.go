package domain

import "fmt"

// RegistrationStatus is the lifecycle state of a vaccination dossier.
//
// The non-booster statuses form a strict progression (see Ordinal). The
// four BOOSTER_* statuses are cyclic: a registrant passes through them
// once per booster dose, so they carry no meaningful order among
// themselves.
type RegistrationStatus string

const (
	StatusRegistered            RegistrationStatus = "REGISTERED"
	StatusReleased              RegistrationStatus = "RELEASED"
	StatusLocationChosen        RegistrationStatus = "LOCATION_CHOSEN"
	StatusBooked                RegistrationStatus = "BOOKED"
	StatusDose1Checked          RegistrationStatus = "DOSE_1_CHECKED"
	StatusDose1Given            RegistrationStatus = "DOSE_1_GIVEN"
	StatusDose2Checked          RegistrationStatus = "DOSE_2_CHECKED"
	StatusDose2Given            RegistrationStatus = "DOSE_2_GIVEN"
	StatusCompleted             RegistrationStatus = "COMPLETED"
	StatusAutoCompleted         RegistrationStatus = "AUTO_COMPLETED"
	StatusCompletedWithoutDose2 RegistrationStatus = "COMPLETED_WITHOUT_DOSE_2"
	StatusImmunized             RegistrationStatus = "IMMUNIZED"

	// Booster cycle, revisited once per booster dose
	StatusBoosterReleased       RegistrationStatus = "BOOSTER_RELEASED"
	StatusBoosterLocationChosen RegistrationStatus = "BOOSTER_LOCATION_CHOSEN"
	StatusBoosterBooked         RegistrationStatus = "BOOSTER_BOOKED"
	StatusBoosterChecked        RegistrationStatus = "BOOSTER_CHECKED"
)

// String representation (for logging)
func (s RegistrationStatus) String() string {
	return string(s)
}

// Phase is an explicitly enumerated set of statuses. Phases that span
// the booster cycle cannot be expressed as ordinal ranges, so all phase
// membership is table-driven.
type Phase map[RegistrationStatus]struct{}

func newPhase(statuses ...RegistrationStatus) Phase {
	p := make(Phase, len(statuses))
	for _, s := range statuses {
		p[s] = struct{}{}
	}
	return p
}

var (
	// PhaseAtLeastBooked holds every status at or after a confirmed booking.
	PhaseAtLeastBooked = newPhase(
		StatusBooked,
		StatusDose1Checked,
		StatusDose1Given,
		StatusDose2Checked,
		StatusDose2Given,
		StatusCompleted,
		StatusAutoCompleted,
		StatusCompletedWithoutDose2,
		StatusImmunized,
		StatusBoosterBooked,
		StatusBoosterChecked,
	)

	// PhaseDoseGiven holds every status where at least one dose has been
	// administered.
	PhaseDoseGiven = newPhase(
		StatusDose1Given,
		StatusDose2Checked,
		StatusDose2Given,
		StatusCompleted,
		StatusAutoCompleted,
		StatusCompletedWithoutDose2,
		StatusImmunized,
		StatusBoosterReleased,
		StatusBoosterLocationChosen,
		StatusBoosterBooked,
		StatusBoosterChecked,
	)

	// PhaseCompleted holds the statuses where the primary series is done.
	PhaseCompleted = newPhase(
		StatusCompleted,
		StatusAutoCompleted,
		StatusCompletedWithoutDose2,
		StatusImmunized,
	)

	// PhaseBooster holds the cyclic booster statuses. Ordinal comparison
	// between two members of this phase is a programming error.
	PhaseBooster = newPhase(
		StatusBoosterReleased,
		StatusBoosterLocationChosen,
		StatusBoosterBooked,
		StatusBoosterChecked,
	)

	// PhaseBoosterEligible holds the statuses in which the next bookable
	// appointment is a booster dose.
	PhaseBoosterEligible = newPhase(
		StatusImmunized,
		StatusBoosterReleased,
		StatusBoosterLocationChosen,
		StatusBoosterBooked,
		StatusBoosterChecked,
	)
)

// In reports whether the status is a member of the phase. The zero
// status is never a member, so callers holding an unset status simply
// get false.
func (s RegistrationStatus) In(p Phase) bool {
	_, ok := p[s]
	return ok
}

// boosterOrdinal is shared by all cyclic booster statuses: they sit
// above the whole non-booster progression but carry no order among
// themselves.
const boosterOrdinal = 13

var ordinals = map[RegistrationStatus]int{
	StatusRegistered:            1,
	StatusReleased:              2,
	StatusLocationChosen:        3,
	StatusBooked:                4,
	StatusDose1Checked:          5,
	StatusDose1Given:            6,
	StatusDose2Checked:          7,
	StatusDose2Given:            8,
	StatusCompleted:             9,
	StatusAutoCompleted:         10,
	StatusCompletedWithoutDose2: 11,
	StatusImmunized:             12,

	StatusBoosterReleased:       boosterOrdinal,
	StatusBoosterLocationChosen: boosterOrdinal,
	StatusBoosterBooked:         boosterOrdinal,
	StatusBoosterChecked:        boosterOrdinal,
}

// Ordinal returns the position of the status in the dossier
// progression. Unknown or unset statuses return 0, below every real
// status.
func (s RegistrationStatus) Ordinal() int {
	return ordinals[s]
}

// InvalidComparisonError reports an ordinal comparison between two
// cyclic booster statuses. The booster phase is revisited for every
// booster dose, so "which of the two is further along" has no answer,
// and silently returning one would reintroduce old mis-ordering bugs.
type InvalidComparisonError struct {
	A, B RegistrationStatus
}

func (e *InvalidComparisonError) Error() string {
	return fmt.Sprintf("cannot compare booster statuses %s and %s by ordinal", e.A, e.B)
}

// CompareProgression reports whether status a is at most as progressed
// as status b. It returns an InvalidComparisonError when both statuses
// are in the cyclic booster phase.
func CompareProgression(a, b RegistrationStatus) (bool, error) {
	if a.In(PhaseBooster) && b.In(PhaseBooster) {
		return false, &InvalidComparisonError{A: a, B: b}
	}
	return a.Ordinal() <= b.Ordinal(), nil
}
