package distance

import (
	"math"

	"github.com/vacme/vacme-backend/internal/odi/domain"
)

const earthRadiusMeters = 6371000.0

// Between returns the haversine great-circle distance in meters between
// two points, or nil when either point is missing a coordinate
// component. An absent coordinate is a normal state: callers must treat
// a nil distance as "cannot rank by distance", not as zero.
func Between(origin, dest domain.Coordinate) *float64 {
	if !origin.Complete() || !dest.Complete() {
		return nil
	}

	lat1 := *origin.Lat * math.Pi / 180
	lat2 := *dest.Lat * math.Pi / 180
	dLat := (*dest.Lat - *origin.Lat) * math.Pi / 180
	dLng := (*dest.Lng - *origin.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	d := earthRadiusMeters * c
	return &d
}
