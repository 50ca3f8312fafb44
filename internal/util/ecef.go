package util

import "math"

// WGS84 ellipsoid constants
const (
	wgs84A  = 6378137.0         // semi-major axis, meters
	wgs84F  = 1 / 298.257223563 // flattening
	wgs84B  = wgs84A * (1 - wgs84F)
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// GeodeticToECEF converts a WGS84 lat/lng/alt (degrees, meters above the
// ellipsoid) into an ECEF cartesian triple in meters.
func GeodeticToECEF(latDeg, lngDeg, altM float64) (x, y, z float64) {
	lat := latDeg * math.Pi / 180
	lng := lngDeg * math.Pi / 180

	sinLat, cosLat := math.Sincos(lat)
	sinLng, cosLng := math.Sincos(lng)

	// Prime vertical radius of curvature
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	x = (n + altM) * cosLat * cosLng
	y = (n + altM) * cosLat * sinLng
	z = (n*(1-wgs84E2) + altM) * sinLat
	return x, y, z
}

// ECEFToGeodetic converts an ECEF triple in meters back to WGS84 lat/lng
// degrees and altitude in meters, using Bowring's closed-form approximation.
// The error is well under a millimeter for terrestrial positions.
func ECEFToGeodetic(x, y, z float64) (latDeg, lngDeg, altM float64) {
	ep2 := (wgs84A*wgs84A - wgs84B*wgs84B) / (wgs84B * wgs84B)

	p := math.Hypot(x, y)
	theta := math.Atan2(z*wgs84A, p*wgs84B)
	sinT, cosT := math.Sincos(theta)

	lat := math.Atan2(z+ep2*wgs84B*sinT*sinT*sinT, p-wgs84E2*wgs84A*cosT*cosT*cosT)
	lng := math.Atan2(y, x)

	sinLat := math.Sin(lat)
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
	alt := p/math.Cos(lat) - n

	return lat * 180 / math.Pi, lng * 180 / math.Pi, alt
}
