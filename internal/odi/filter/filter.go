package filter

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	regdomain "github.com/vacme/vacme-backend/internal/registration/domain"
	"github.com/vacme/vacme-backend/internal/odi/domain"
)

// SortType selects the ordering of the filtered location list.
type SortType string

const (
	SortAlphabetical    SortType = "ALPHABETICAL"
	SortNextAppointment SortType = "NEXT_APPOINTMENT"
	SortDistance        SortType = "DISTANCE"
)

// Options narrows and orders a candidate location list. A nil or empty
// Types set means "all types". MaxDistanceMeters <= 0 disables the
// distance cutoff.
type Options struct {
	Types             []domain.LocationType
	Sort              SortType
	MaxDistanceMeters float64
}

// collator is shared: the booking portal serves Swiss registrants, so
// names like "Ärztezentrum" must sort with umlaut-aware German rules.
var collator = collate.New(language.German)

// Apply runs the filter/sort pipeline and returns a new slice; the
// input is never reordered. The dossier decides which capability and
// which next-slot hint are relevant: a booster-eligible registrant only
// sees booster-capable locations and is sorted by the booster slot
// hint.
func Apply(opts Options, locations []*domain.Location, dossier *regdomain.Dossier) []*domain.Location {
	out := make([]*domain.Location, 0, len(locations))

	boosterEligible := dossier != nil && dossier.Status.In(regdomain.PhaseBoosterEligible)
	selfPay := dossier != nil && dossier.SelfPayConfirmed

	for _, loc := range locations {
		if loc.Disabled || !loc.Public {
			continue
		}
		if loc.RequiresPayment && !selfPay {
			continue
		}
		if boosterEligible && !loc.BoosterCapable {
			continue
		}
		if !typeEnabled(opts.Types, loc.Type) {
			continue
		}
		if opts.MaxDistanceMeters > 0 && loc.DistanceMeters != nil && *loc.DistanceMeters > opts.MaxDistanceMeters {
			// Locations without a distance stay in: an ungeocodable
			// address must not hide every location behind the cutoff
			continue
		}
		out = append(out, loc)
	}

	switch opts.Sort {
	case SortNextAppointment:
		sort.SliceStable(out, func(i, j int) bool {
			return timeLess(nextSlot(out[i], dossier), nextSlot(out[j], dossier))
		})
	case SortDistance:
		sort.SliceStable(out, func(i, j int) bool {
			return floatLess(out[i].DistanceMeters, out[j].DistanceMeters)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return nameLess(out[i].Name, out[j].Name)
		})
	}

	return out
}

func typeEnabled(types []domain.LocationType, t domain.LocationType) bool {
	if len(types) == 0 {
		return true
	}
	for _, enabled := range types {
		if enabled == t {
			return true
		}
	}
	return false
}

// nextSlot picks the slot hint matching the dossier's current phase:
// booster slot once the primary series is complete, dose 2 once dose 1
// is given, dose 1 otherwise.
func nextSlot(loc *domain.Location, dossier *regdomain.Dossier) *time.Time {
	if dossier != nil {
		if dossier.Status.In(regdomain.PhaseBoosterEligible) {
			return loc.NextSlotBooster
		}
		if dossier.Status.In(regdomain.PhaseDoseGiven) {
			return loc.NextSlotDose2
		}
	}
	return loc.NextSlotDose1
}

// Missing values sort after every defined value, in each comparator.

func nameLess(a, b string) bool {
	if a == "" || b == "" {
		return b == "" && a != ""
	}
	return collator.CompareString(a, b) < 0
}

func timeLess(a, b *time.Time) bool {
	if a == nil || b == nil {
		return b == nil && a != nil
	}
	return a.Before(*b)
}

func floatLess(a, b *float64) bool {
	if a == nil || b == nil {
		return b == nil && a != nil
	}
	return *a < *b
}
