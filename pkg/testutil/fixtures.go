package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DossierFixture represents test dossier data
type DossierFixture struct {
	RegistrationNumber string
	Disease            string
	Status             string
	SelfPayConfirmed   bool
	TenantID           string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LocationFixture represents test vaccination location data
type LocationFixture struct {
	ID              string
	Name            string
	Type            string
	Lat             *float64
	Lng             *float64
	Public          bool
	Mobile          bool
	BoosterCapable  bool
	Disabled        bool
	RequiresPayment bool
	CreatedAt       time.Time
}

// SlotFixture represents test appointment slot data
type SlotFixture struct {
	ID           string
	LocationID   string
	DoseSequence string
	Start        time.Time
	End          time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// registrationAlphabet matches the 6-character codes handed out on paper;
// ambiguous characters (0/O, 1/I) are excluded.
const registrationAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Dossier creates a dossier fixture with defaults
func (f *FixtureFactory) Dossier(opts ...func(*DossierFixture)) DossierFixture {
	seq := f.nextSeq()

	code := make([]byte, 6)
	for i := range code {
		code[i] = registrationAlphabet[(seq*7+i*11)%len(registrationAlphabet)]
	}

	dossier := DossierFixture{
		RegistrationNumber: string(code),
		Disease:            "COVID-19",
		Status:             "RELEASED",
		TenantID:           uuid.New().String(),
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}

	for _, opt := range opts {
		opt(&dossier)
	}

	return dossier
}

// WithStatus sets the dossier status
func WithStatus(status string) func(*DossierFixture) {
	return func(d *DossierFixture) {
		d.Status = status
	}
}

// WithDisease sets the dossier disease track
func WithDisease(disease string) func(*DossierFixture) {
	return func(d *DossierFixture) {
		d.Disease = disease
	}
}

// Location creates a location fixture with defaults
func (f *FixtureFactory) Location(opts ...func(*LocationFixture)) LocationFixture {
	seq := f.nextSeq()
	lat := 46.9 + float64(seq)*0.01
	lng := 7.4 + float64(seq)*0.01

	location := LocationFixture{
		ID:        uuid.New().String(),
		Name:      fmt.Sprintf("Impfzentrum %d", seq),
		Type:      "VACCINATION_CENTER",
		Lat:       &lat,
		Lng:       &lng,
		Public:    true,
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&location)
	}

	return location
}

// WithLocationType sets the location type
func WithLocationType(locationType string) func(*LocationFixture) {
	return func(l *LocationFixture) {
		l.Type = locationType
	}
}

// WithoutCoordinate clears the location's geocoordinate
func WithoutCoordinate() func(*LocationFixture) {
	return func(l *LocationFixture) {
		l.Lat = nil
		l.Lng = nil
	}
}

// Slot creates a slot fixture with defaults
func (f *FixtureFactory) Slot(locationID, doseSequence string, opts ...func(*SlotFixture)) SlotFixture {
	seq := f.nextSeq()
	start := time.Now().Add(time.Duration(seq) * 24 * time.Hour).Truncate(time.Hour)

	slot := SlotFixture{
		ID:           uuid.New().String(),
		LocationID:   locationID,
		DoseSequence: doseSequence,
		Start:        start,
		End:          start.Add(30 * time.Minute),
	}

	for _, opt := range opts {
		opt(&slot)
	}

	return slot
}
