package model

// Location is the single value type used for every lat/lon pair in the
// system (vehicles, riders, corrected fixes).
type Location struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Valid reports whether both coordinates are present and inside the
// WGS84 range. A zero Location (0,0) is treated as unknown.
func (l Location) Valid() bool {
	if l.Latitude == 0 && l.Longitude == 0 {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

// CorrectedPosition is the output of one correction cycle. It overwrites
// the vehicle's current location; history lives in the tracking log.
type CorrectedPosition struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Snapped   bool    `json:"snapped"`
}

// Location returns the corrected fix as a plain Location.
func (p CorrectedPosition) Location() Location {
	return Location{Latitude: p.Latitude, Longitude: p.Longitude}
}
