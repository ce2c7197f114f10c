package domain

import "time"

// Disease identifiers. A dossier covers exactly one disease track; the
// same person has independent dossiers per disease.
const (
	DiseaseCovid = "COVID-19"
	DiseaseFSME  = "FSME"
)

// DoseSequence identifies which vaccination in a series a slot refers to.
type DoseSequence string

const (
	Dose1   DoseSequence = "DOSE_1"
	Dose2   DoseSequence = "DOSE_2"
	Booster DoseSequence = "BOOSTER"
)

// Opposite returns the paired dose sequence: dose 1 and dose 2 pair up,
// the booster has no pair.
func (d DoseSequence) Opposite() (DoseSequence, bool) {
	switch d {
	case Dose1:
		return Dose2, true
	case Dose2:
		return Dose1, true
	default:
		return "", false
	}
}

// Slot is a bookable appointment time window at a vaccination location.
type Slot struct {
	ID           string       `db:"id" json:"id"`
	LocationID   string       `db:"location_id" json:"location_id"`
	LocationName string       `db:"location_name" json:"location_name"`
	Sequence     DoseSequence `db:"dose_sequence" json:"dose_sequence"`
	Start        time.Time    `db:"start_time" json:"start"`
	End          time.Time    `db:"end_time" json:"end"`
}

// LocationRef is a denormalized reference to a vaccination location,
// carried on the booking session so the UI can render the selection
// without another lookup.
type LocationRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Dossier is the registrant's vaccination case record for one disease
// track: status, booked slots, and the flags the booking rules need.
type Dossier struct {
	RegistrationNumber string             `db:"registration_number" json:"registration_number"`
	Disease            string             `db:"disease" json:"disease"`
	Status             RegistrationStatus `db:"status" json:"status"`
	SelfPayConfirmed   bool               `db:"self_pay_confirmed" json:"self_pay_confirmed"`

	// Existing booked slots, nil when not (yet) booked
	Slot1       *Slot `json:"slot1,omitempty"`
	Slot2       *Slot `json:"slot2,omitempty"`
	SlotBooster *Slot `json:"slot_booster,omitempty"`
}

// BookedSlot returns the dossier's existing booked slot for the given
// dose sequence, nil when none is booked.
func (d *Dossier) BookedSlot(seq DoseSequence) *Slot {
	if d == nil {
		return nil
	}
	switch seq {
	case Dose1:
		return d.Slot1
	case Dose2:
		return d.Slot2
	case Booster:
		return d.SlotBooster
	}
	return nil
}
