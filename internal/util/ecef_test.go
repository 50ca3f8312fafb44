package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeodeticECEFRoundTrip(t *testing.T) {
	cases := []struct {
		lat, lng, alt float64
	}{
		{14.5995, 120.9842, 25},
		{-33.8688, 151.2093, 100},
		{51.4778, 0.0015, 45},
		{64.1466, -21.9426, 0},
	}

	for _, c := range cases {
		x, y, z := GeodeticToECEF(c.lat, c.lng, c.alt)
		lat, lng, alt := ECEFToGeodetic(x, y, z)
		assert.InDelta(t, c.lat, lat, 1e-7)
		assert.InDelta(t, c.lng, lng, 1e-7)
		assert.InDelta(t, c.alt, alt, 1e-3)
	}
}

func TestGeodeticToECEFEquatorPrimeMeridian(t *testing.T) {
	x, y, z := GeodeticToECEF(0, 0, 0)
	assert.InDelta(t, 6378137.0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)
	assert.InDelta(t, 0, z, 1e-6)
}

func TestGeodeticToECEFNorthPole(t *testing.T) {
	x, y, z := GeodeticToECEF(90, 0, 0)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)
	// Semi-minor axis.
	assert.InDelta(t, 6356752.314245, z, 1e-3)
}

func TestECEFMagnitudeNearEarthRadius(t *testing.T) {
	x, y, z := GeodeticToECEF(14.5995, 120.9842, 0)
	r := math.Sqrt(x*x + y*y + z*z)
	assert.Greater(t, r, 6.35e6)
	assert.Less(t, r, 6.39e6)
}
