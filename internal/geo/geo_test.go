package geo

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vbonduro/dishout/internal/domain"
)

func TestDistanceKmSamePoint(t *testing.T) {
	assert.InDelta(t, 0, DistanceKm(DefaultLocation, DefaultLocation), 1e-9)
}

func TestDistanceKmOneDegreeOfLatitude(t *testing.T) {
	a := domain.LatLng{Lat: 0, Lng: 0}
	b := domain.LatLng{Lat: 1, Lng: 0}

	assert.InDelta(t, 111.19, DistanceKm(a, b), 0.01)
}

func TestDistanceIsSymmetric(t *testing.T) {
	a := domain.LatLng{Lat: 25.2048, Lng: 55.2708}
	b := domain.LatLng{Lat: 25.1972, Lng: 55.2744}

	assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-9)
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		km   float64
		want string
	}{
		{0, "0.0 km"},
		{0.44, "0.4 km"},
		{1.25, "1.2 km"},
		{12.96, "13.0 km"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDistance(tt.km))
	}
}

func TestDistance(t *testing.T) {
	assert.Equal(t, "111.2 km", Distance(domain.LatLng{}, domain.LatLng{Lat: 1}))
}

func TestNearbyStaysWithinOffset(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		p := Nearby(DefaultLocation, r)
		assert.LessOrEqual(t, math.Abs(p.Lat-DefaultLocation.Lat), maxOffsetDeg)
		assert.LessOrEqual(t, math.Abs(p.Lng-DefaultLocation.Lng), maxOffsetDeg)
	}
}

func TestNearbyDefaultSource(t *testing.T) {
	p := Nearby(DefaultLocation, nil)
	// ~0.7 km is the furthest a point can land.
	assert.Less(t, DistanceKm(DefaultLocation, p), 0.8)
}
