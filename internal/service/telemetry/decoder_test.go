package telemetry

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridealert/internal/model"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestDecoder(t *testing.T) *Decoder {
	d, err := NewDecoder(testKey)
	require.NoError(t, err)
	return d
}

func encryptPayload(t *testing.T, d *Decoder, payload map[string]interface{}) string {
	plain, err := json.Marshal(payload)
	require.NoError(t, err)
	envelope, err := d.Encrypt(plain)
	require.NoError(t, err)
	return envelope
}

func TestNewDecoderRejectsBadKeyLength(t *testing.T) {
	_, err := NewDecoder([]byte("short"))
	assert.Error(t, err)
}

func TestDecodeRoundTripECEF(t *testing.T) {
	d := newTestDecoder(t)

	envelope := encryptPayload(t, d, map[string]interface{}{
		"device_id":              "dev-42",
		"Cn0DbHz":                45.0,
		"Svid":                   7,
		"SvElevationDegrees":     30.0,
		"WlsPositionXEcefMeters": -2700000.0,
		"WlsPositionYEcefMeters": -4300000.0,
		"WlsPositionZEcefMeters": 3850000.0,
		"SpeedMps":               5.5,
	})

	reading, err := d.Decode(envelope)
	require.NoError(t, err)
	assert.Equal(t, "dev-42", reading.DeviceID)
	assert.Equal(t, model.PositionECEF, reading.Position.Kind)
	assert.Equal(t, -2700000.0, reading.Position.ECEF.X)
	assert.Equal(t, 5.5, reading.SpeedMps)
	assert.Nil(t, reading.GroundTruth)
}

func TestDecodeRoundTripGeodetic(t *testing.T) {
	d := newTestDecoder(t)

	envelope := encryptPayload(t, d, map[string]interface{}{
		"device_id":    "dev-1",
		"raw_latitude": 14.5995, "raw_longitude": 120.9842, "raw_altitude": 25.0,
		"LatitudeDegrees_gt":  14.6,
		"LongitudeDegrees_gt": 120.98,
	})

	reading, err := d.Decode(envelope)
	require.NoError(t, err)
	assert.Equal(t, model.PositionGeodetic, reading.Position.Kind)
	assert.Equal(t, 14.5995, reading.Position.Geodetic.Latitude)
	assert.Equal(t, 25.0, reading.Position.Geodetic.Altitude)
	require.NotNil(t, reading.GroundTruth)
	assert.Equal(t, 14.6, reading.GroundTruth.Latitude)
}

func TestDecodeRejectsMissingPosition(t *testing.T) {
	d := newTestDecoder(t)

	envelope := encryptPayload(t, d, map[string]interface{}{
		"device_id": "dev-1",
		"Cn0DbHz":   40.0,
	})

	_, err := d.Decode(envelope)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestDecodeRejectsBothPositions(t *testing.T) {
	d := newTestDecoder(t)

	envelope := encryptPayload(t, d, map[string]interface{}{
		"device_id":              "dev-1",
		"WlsPositionXEcefMeters": 1.0,
		"WlsPositionYEcefMeters": 2.0,
		"WlsPositionZEcefMeters": 3.0,
		"raw_latitude":           14.5, "raw_longitude": 121.0, "raw_altitude": 10.0,
	})

	_, err := d.Decode(envelope)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestDecodePartialECEFIsSchemaError(t *testing.T) {
	d := newTestDecoder(t)

	// Only two of the three ECEF components.
	envelope := encryptPayload(t, d, map[string]interface{}{
		"device_id":              "dev-1",
		"WlsPositionXEcefMeters": 1.0,
		"WlsPositionYEcefMeters": 2.0,
	})

	_, err := d.Decode(envelope)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestDecodeRejectsBadBase64(t *testing.T) {
	d := newTestDecoder(t)
	_, err := d.Decode("not base64!!!")
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestDecodeRejectsShortEnvelope(t *testing.T) {
	d := newTestDecoder(t)
	short := base64.StdEncoding.EncodeToString([]byte("tooshort"))
	_, err := d.Decode(short)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestDecodeWrongKeyFailsDecryption(t *testing.T) {
	d := newTestDecoder(t)
	envelope := encryptPayload(t, d, map[string]interface{}{
		"device_id":    "dev-1",
		"raw_latitude": 14.5, "raw_longitude": 121.0, "raw_altitude": 10.0,
	})

	other, err := NewDecoder([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)

	// A wrong key yields garbage: either broken padding or unparseable JSON.
	_, err = other.Decode(envelope)
	assert.Error(t, err)
}

func TestSpeedNormalization(t *testing.T) {
	d := newTestDecoder(t)

	base := func(extra map[string]interface{}) map[string]interface{} {
		payload := map[string]interface{}{
			"device_id":    "dev-1",
			"raw_latitude": 14.5, "raw_longitude": 121.0, "raw_altitude": 10.0,
		}
		for k, v := range extra {
			payload[k] = v
		}
		return payload
	}

	reading, err := d.Decode(encryptPayload(t, d, base(map[string]interface{}{"SpeedKmh": 36.0})))
	require.NoError(t, err)
	assert.InDelta(t, 10.0, reading.SpeedMps, 1e-9)

	// Explicit m/s wins over km/h.
	reading, err = d.Decode(encryptPayload(t, d, base(map[string]interface{}{"SpeedMps": 3.0, "SpeedKmh": 36.0})))
	require.NoError(t, err)
	assert.Equal(t, 3.0, reading.SpeedMps)

	reading, err = d.Decode(encryptPayload(t, d, base(nil)))
	require.NoError(t, err)
	assert.Equal(t, 0.0, reading.SpeedMps)
}
