package corrector

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridealert/internal/inference"
	"ridealert/internal/model"
	"ridealert/internal/util"
)

type fakePredictor struct {
	offset   [2]float64
	features *inference.Features
}

func (p *fakePredictor) Predict(ctx context.Context, f inference.Features) ([2]float64, error) {
	p.features = &f
	return p.offset, nil
}

func (p *fakePredictor) Warmup(ctx context.Context) error { return nil }

func readyLoader(t *testing.T, p inference.Predictor) *inference.Loader {
	t.Helper()
	l := inference.NewLoader(p)
	l.Start()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if l.Status().State == inference.LoadReady {
			return l
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("loader never became ready")
	return nil
}

func TestCorrectNotReadyPassesThrough(t *testing.T) {
	c := New(inference.NewLoader(&fakePredictor{}))

	_, err := c.Correct(context.Background(), &model.TelemetryReading{})
	assert.ErrorIs(t, err, inference.ErrModelNotReady)
}

func TestCorrectGeodeticInput(t *testing.T) {
	fake := &fakePredictor{offset: [2]float64{0.001, -0.002}}
	c := New(readyLoader(t, fake))

	reading := &model.TelemetryReading{
		Cn0DbHz:            40.0,
		SvElevationDegrees: 30.0,
		Position: model.PositionFix{
			Kind:     model.PositionGeodetic,
			Geodetic: model.Geodetic{Latitude: 14.5995, Longitude: 120.9842, Altitude: 25},
		},
	}

	result, err := c.Correct(context.Background(), reading)
	require.NoError(t, err)

	// The raw fix is the WLS solution converted back out of ECEF.
	assert.InDelta(t, 14.5995, result.Raw.Latitude, 1e-6)
	assert.InDelta(t, 120.9842, result.Raw.Longitude, 1e-6)
	assert.InDelta(t, result.Raw.Latitude+0.001, result.Corrected.Latitude, 1e-9)
	assert.InDelta(t, result.Raw.Longitude-0.002, result.Corrected.Longitude, 1e-9)
	assert.Equal(t, 25.0, result.Altitude)

	// Derived features: SignalQuality = Cn0 * sin(elevation).
	require.NotNil(t, fake.features)
	assert.InDelta(t, 40.0*math.Sin(30.0*math.Pi/180), fake.features.SignalQuality, 1e-9)
	x, y, z := util.GeodeticToECEF(14.5995, 120.9842, 25)
	assert.InDelta(t, math.Sqrt(x*x+y*y+z*z), fake.features.WLSDistance, 1e-6)
}

func TestCorrectECEFInput(t *testing.T) {
	fake := &fakePredictor{}
	c := New(readyLoader(t, fake))

	x, y, z := util.GeodeticToECEF(14.5995, 120.9842, 0)
	reading := &model.TelemetryReading{
		Position: model.PositionFix{
			Kind: model.PositionECEF,
			ECEF: model.ECEF{X: x, Y: y, Z: z},
		},
	}

	result, err := c.Correct(context.Background(), reading)
	require.NoError(t, err)
	assert.InDelta(t, 14.5995, result.Corrected.Latitude, 1e-6)
	assert.InDelta(t, 120.9842, result.Corrected.Longitude, 1e-6)
	assert.Equal(t, x, fake.features.WlsPositionX)
}

func TestGroundTruthError(t *testing.T) {
	loc := model.Location{Latitude: 14.5995, Longitude: 120.9842}
	assert.InDelta(t, 0, GroundTruthError(loc, loc), 1e-9)

	// One ten-thousandth of a degree of latitude is about 11 meters.
	shifted := model.Location{Latitude: 14.5996, Longitude: 120.9842}
	assert.InDelta(t, 11.1, GroundTruthError(shifted, loc), 0.2)
}
