package domain

import "time"

// LocationType categorizes where vaccinations are administered.
type LocationType string

const (
	TypeHospital          LocationType = "HOSPITAL"
	TypePharmacy          LocationType = "PHARMACY"
	TypeDoctorsOffice     LocationType = "DOCTORS_OFFICE"
	TypeVaccinationCenter LocationType = "VACCINATION_CENTER"
)

// Coordinate is a WGS84 point. Either component may be missing: not
// every address geocodes and not every location is geocoded. An
// incomplete coordinate yields an undefined distance, never zero.
type Coordinate struct {
	Lat *float64 `db:"lat" json:"lat,omitempty"`
	Lng *float64 `db:"lng" json:"lng,omitempty"`
}

// Complete reports whether both latitude and longitude are present.
func (c Coordinate) Complete() bool {
	return c.Lat != nil && c.Lng != nil
}

// Location is a candidate vaccination location (ODI) as served to the
// booking flow. DistanceMeters is a per-request decoration computed
// from the registrant's geocoded address; nil means "cannot rank by
// distance".
type Location struct {
	ID   string       `db:"id" json:"id"`
	Name string       `db:"name" json:"name"`
	Type LocationType `db:"location_type" json:"type"`

	Coordinate Coordinate `db:"-" json:"coordinate"`

	Public          bool `db:"is_public" json:"public"`
	Mobile          bool `db:"is_mobile" json:"mobile"`
	BoosterCapable  bool `db:"booster_capable" json:"booster_capable"`
	Disabled        bool `db:"is_disabled" json:"disabled"`
	RequiresPayment bool `db:"requires_payment" json:"requires_payment"`

	// Next free slot hints per dose, used for sorting and labeling
	NextSlotDose1   *time.Time `db:"next_slot_dose1" json:"next_slot_dose1,omitempty"`
	NextSlotDose2   *time.Time `db:"next_slot_dose2" json:"next_slot_dose2,omitempty"`
	NextSlotBooster *time.Time `db:"next_slot_booster" json:"next_slot_booster,omitempty"`

	DistanceMeters *float64 `db:"-" json:"distance_meters,omitempty"`
}
