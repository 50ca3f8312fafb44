// Package corrector turns a validated telemetry reading into a corrected
// WGS84 position by applying the ML offset to the raw WLS solution.
package corrector

import (
	"context"
	"fmt"
	"math"

	"ridealert/internal/inference"
	"ridealert/internal/model"
	"ridealert/internal/util"
)

// Corrector is stateless per call and performs no retries.
type Corrector struct {
	loader *inference.Loader
}

func New(loader *inference.Loader) *Corrector {
	return &Corrector{loader: loader}
}

// Result carries the corrected fix plus the raw fix it was derived from.
type Result struct {
	Raw       model.Location
	Corrected model.Location
	Altitude  float64
}

// Correct resolves the reading's position to ECEF, assembles the feature
// vector, asks the inference capability for a (dLat, dLon) offset and adds
// it to the inverse-transformed WLS position. ErrModelNotReady passes
// through untouched so callers can answer retry-later.
func (c *Corrector) Correct(ctx context.Context, r *model.TelemetryReading) (*Result, error) {
	predictor, err := c.loader.Predictor()
	if err != nil {
		return nil, err
	}

	var x, y, z float64
	var altitude float64
	switch r.Position.Kind {
	case model.PositionGeodetic:
		g := r.Position.Geodetic
		x, y, z = util.GeodeticToECEF(g.Latitude, g.Longitude, g.Altitude)
		altitude = g.Altitude
	default:
		e := r.Position.ECEF
		x, y, z = e.X, e.Y, e.Z
	}

	features := inference.Features{
		Cn0DbHz:            r.Cn0DbHz,
		Svid:               r.Svid,
		SvElevationDegrees: r.SvElevationDegrees,
		SvAzimuthDegrees:   r.SvAzimuthDegrees,
		IMUMessageType:     r.IMUMessageType,
		MeasurementX:       r.MeasurementX,
		MeasurementY:       r.MeasurementY,
		MeasurementZ:       r.MeasurementZ,
		BiasX:              r.BiasX,
		BiasY:              r.BiasY,
		BiasZ:              r.BiasZ,
		WlsPositionX:       x,
		WlsPositionY:       y,
		WlsPositionZ:       z,
		SignalQuality:      r.Cn0DbHz * math.Sin(r.SvElevationDegrees*math.Pi/180),
		WLSDistance:        math.Sqrt(x*x + y*y + z*z),
	}

	offset, err := predictor.Predict(ctx, features)
	if err != nil {
		return nil, fmt.Errorf("correction inference: %w", err)
	}

	wlsLat, wlsLng, _ := util.ECEFToGeodetic(x, y, z)
	return &Result{
		Raw:       model.Location{Latitude: wlsLat, Longitude: wlsLng},
		Corrected: model.Location{Latitude: wlsLat + offset[0], Longitude: wlsLng + offset[1]},
		Altitude:  altitude,
	}, nil
}

// GroundTruthError estimates the planar error in meters between a corrected
// fix and a known ground-truth coordinate, for the debug comparison block.
func GroundTruthError(corrected, truth model.Location) float64 {
	latErr := math.Abs(corrected.Latitude-truth.Latitude) * 111320
	lngErr := math.Abs(corrected.Longitude-truth.Longitude) * 111320 *
		math.Cos(math.Abs(corrected.Latitude)*math.Pi/180)
	return math.Sqrt(latErr*latErr + lngErr*lngErr)
}
