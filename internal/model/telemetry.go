package model

// PositionKind tags which representation a telemetry reading supplied.
// Exactly one of the two is present on the wire; the decoder resolves the
// choice once so downstream code never re-checks optional fields.
type PositionKind int

const (
	PositionECEF PositionKind = iota
	PositionGeodetic
)

// ECEF is an Earth-Centered, Earth-Fixed cartesian triple in meters.
type ECEF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Geodetic is a raw WGS84 fix with altitude in meters above the ellipsoid.
type Geodetic struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// PositionFix is the resolved position union of a reading.
type PositionFix struct {
	Kind     PositionKind
	ECEF     ECEF
	Geodetic Geodetic
}

// TelemetryReading is one decrypted, validated sensor envelope. It is
// ephemeral: it exists for a single correction cycle and is never stored
// as-is (the tracking log keeps its own record).
type TelemetryReading struct {
	VehicleID string
	DeviceID  string

	Cn0DbHz            float64
	Svid               int
	SvElevationDegrees float64
	SvAzimuthDegrees   float64

	IMUMessageType string
	MeasurementX   float64
	MeasurementY   float64
	MeasurementZ   float64
	BiasX          float64
	BiasY          float64
	BiasZ          float64

	// SpeedMps is normalized at decode time: explicit m/s wins, a km/h
	// field is divided by 3.6, otherwise 0.
	SpeedMps float64

	Position PositionFix

	// Optional ground-truth coordinates, only used when the debug
	// comparison flag is enabled.
	GroundTruth *Location
}
