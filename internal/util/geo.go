package util

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const earthRadiusMeters = 6371000.0

// HaversineDistance returns the great-circle distance in meters between two
// lat/lng pairs in degrees.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	// Convert coordinates from degrees to S2 points
	point1 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat1, lng1))
	point2 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat2, lng2))

	// Calculate angle between points
	angle := s1.Angle(s2.ChordAngleBetweenPoints(point1, point2).Angle())

	// Convert angle to distance on Earth's surface
	return angle.Radians() * earthRadiusMeters
}

// NearestOnSegment projects point p onto the great-circle segment (a, b)
// and returns the closest point as lat/lng degrees. The projection uses
// arc-length parameterization: the fraction along the segment is computed
// first, then interpolated on the great circle.
func NearestOnSegment(pLat, pLng, aLat, aLng, bLat, bLng float64) (lat, lng, distMeters float64) {
	a := s2.PointFromLatLng(s2.LatLngFromDegrees(aLat, aLng))
	b := s2.PointFromLatLng(s2.LatLngFromDegrees(bLat, bLng))
	p := s2.PointFromLatLng(s2.LatLngFromDegrees(pLat, pLng))

	segLen := s1.Angle(s2.ChordAngleBetweenPoints(a, b).Angle()).Radians()
	if segLen == 0 {
		ll := s2.LatLngFromPoint(a)
		return ll.Lat.Degrees(), ll.Lng.Degrees(), HaversineDistance(pLat, pLng, aLat, aLng)
	}

	// Fraction of p's along-track position, clamped to the segment.
	toP := s1.Angle(s2.ChordAngleBetweenPoints(a, p).Angle()).Radians()
	toB := s1.Angle(s2.ChordAngleBetweenPoints(b, p).Angle()).Radians()
	fraction := (toP*toP - toB*toB + segLen*segLen) / (2 * segLen * segLen)
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}

	// Interpolate on the great circle path
	nearest := s2.Interpolate(fraction, a, b)
	ll := s2.LatLngFromPoint(nearest)
	lat, lng = ll.Lat.Degrees(), ll.Lng.Degrees()
	distMeters = HaversineDistance(pLat, pLng, lat, lng)
	return lat, lng, distMeters
}
