// Package geo has the small amount of spherical geometry needed to place
// synthesized restaurants around the caller.
package geo

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/vbonduro/dishout/internal/domain"
)

const earthRadiusKm = 6371

// maxOffsetDeg bounds the offset of a synthesized location on each axis.
const maxOffsetDeg = 0.005

// DefaultLocation (Dubai) is used when the caller has no location.
var DefaultLocation = domain.LatLng{Lat: 25.2048, Lng: 55.2708}

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b domain.LatLng) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// FormatDistance renders a distance the way matches display it, e.g. "1.2 km".
func FormatDistance(km float64) string {
	return fmt.Sprintf("%.1f km", km)
}

// Distance is FormatDistance(DistanceKm(a, b)).
func Distance(a, b domain.LatLng) string {
	return FormatDistance(DistanceKm(a, b))
}

// Nearby returns a point within maxOffsetDeg of origin on both axes. A nil
// r uses the global source.
func Nearby(origin domain.LatLng, r *rand.Rand) domain.LatLng {
	f := rand.Float64
	if r != nil {
		f = r.Float64
	}
	return domain.LatLng{
		Lat: origin.Lat + (f()-0.5)*2*maxOffsetDeg,
		Lng: origin.Lng + (f()-0.5)*2*maxOffsetDeg,
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
