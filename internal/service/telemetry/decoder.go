// Package telemetry decrypts and validates inbound device envelopes.
package telemetry

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"ridealert/internal/model"
)

var (
	// ErrDecryption covers bad base64, a short IV, or broken padding.
	ErrDecryption = errors.New("telemetry: decryption failed")
	// ErrSchema covers structurally invalid decrypted payloads.
	ErrSchema = errors.New("telemetry: invalid reading schema")
)

// Decoder decrypts AES-256-CBC envelopes under a pre-shared key and parses
// the sensor-reading schema. It holds no per-call state.
type Decoder struct {
	key []byte
}

// NewDecoder requires a 32-byte key.
func NewDecoder(key []byte) (*Decoder, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("telemetry: key must be 32 bytes, got %d", len(key))
	}
	return &Decoder{key: key}, nil
}

// wirePayload is the decrypted JSON schema. Position fields are pointers so
// the exactly-one-of rule can distinguish absent from zero.
type wirePayload struct {
	VehicleID string `json:"vehicle_id"`
	DeviceID  string `json:"device_id"`

	Cn0DbHz            float64 `json:"Cn0DbHz"`
	Svid               int     `json:"Svid"`
	SvElevationDegrees float64 `json:"SvElevationDegrees"`
	SvAzimuthDegrees   float64 `json:"SvAzimuthDegrees"`

	IMUMessageType string  `json:"IMU_MessageType"`
	MeasurementX   float64 `json:"MeasurementX"`
	MeasurementY   float64 `json:"MeasurementY"`
	MeasurementZ   float64 `json:"MeasurementZ"`
	BiasX          float64 `json:"BiasX"`
	BiasY          float64 `json:"BiasY"`
	BiasZ          float64 `json:"BiasZ"`

	SpeedMps *float64 `json:"SpeedMps"`
	SpeedKmh *float64 `json:"SpeedKmh"`

	WlsPositionXEcefMeters *float64 `json:"WlsPositionXEcefMeters"`
	WlsPositionYEcefMeters *float64 `json:"WlsPositionYEcefMeters"`
	WlsPositionZEcefMeters *float64 `json:"WlsPositionZEcefMeters"`

	RawLatitude  *float64 `json:"raw_latitude"`
	RawLongitude *float64 `json:"raw_longitude"`
	RawAltitude  *float64 `json:"raw_altitude"`

	LatitudeDegreesGT  *float64 `json:"LatitudeDegrees_gt"`
	LongitudeDegreesGT *float64 `json:"LongitudeDegrees_gt"`
}

// Decode turns a base64 envelope (16-byte IV + ciphertext) into a validated
// reading. It has no side effects.
func (d *Decoder) Decode(envelope string) (*model.TelemetryReading, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	if len(raw) < aes.BlockSize || (len(raw)-aes.BlockSize)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext not block aligned", ErrDecryption)
	}

	block, err := aes.NewCipher(d.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	iv, ciphertext := raw[:aes.BlockSize], raw[aes.BlockSize:]
	if len(ciphertext) == 0 {
		return nil, fmt.Errorf("%w: empty ciphertext", ErrDecryption)
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	plain, err = pkcs7Unpad(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	var payload wirePayload
	if err := json.Unmarshal(plain, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return payload.toReading()
}

// Encrypt is the inverse of Decode's crypto layer: PKCS7 pad, AES-256-CBC
// under a random IV, prepend the IV, base64. Device firmware uses the same
// scheme; the service uses this for round-trip tests and simulators.
func (d *Decoder) Encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(d.key)
	if err != nil {
		return "", err
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	raw := make([]byte, aes.BlockSize+len(padded))
	iv := raw[:aes.BlockSize]
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(raw[aes.BlockSize:], padded)

	return base64.StdEncoding.EncodeToString(raw), nil
}

func (p *wirePayload) toReading() (*model.TelemetryReading, error) {
	wlsProvided := p.WlsPositionXEcefMeters != nil && p.WlsPositionYEcefMeters != nil && p.WlsPositionZEcefMeters != nil
	rawProvided := p.RawLatitude != nil && p.RawLongitude != nil && p.RawAltitude != nil

	if !wlsProvided && !rawProvided {
		return nil, fmt.Errorf("%w: either ECEF coordinates or raw coordinates must be provided", ErrSchema)
	}
	if wlsProvided && rawProvided {
		return nil, fmt.Errorf("%w: provide either ECEF coordinates or raw coordinates, not both", ErrSchema)
	}

	r := &model.TelemetryReading{
		VehicleID:          p.VehicleID,
		DeviceID:           p.DeviceID,
		Cn0DbHz:            p.Cn0DbHz,
		Svid:               p.Svid,
		SvElevationDegrees: p.SvElevationDegrees,
		SvAzimuthDegrees:   p.SvAzimuthDegrees,
		IMUMessageType:     p.IMUMessageType,
		MeasurementX:       p.MeasurementX,
		MeasurementY:       p.MeasurementY,
		MeasurementZ:       p.MeasurementZ,
		BiasX:              p.BiasX,
		BiasY:              p.BiasY,
		BiasZ:              p.BiasZ,
		SpeedMps:           normalizeSpeed(p.SpeedMps, p.SpeedKmh),
	}

	if wlsProvided {
		r.Position = model.PositionFix{
			Kind: model.PositionECEF,
			ECEF: model.ECEF{
				X: *p.WlsPositionXEcefMeters,
				Y: *p.WlsPositionYEcefMeters,
				Z: *p.WlsPositionZEcefMeters,
			},
		}
	} else {
		r.Position = model.PositionFix{
			Kind: model.PositionGeodetic,
			Geodetic: model.Geodetic{
				Latitude:  *p.RawLatitude,
				Longitude: *p.RawLongitude,
				Altitude:  *p.RawAltitude,
			},
		}
	}

	if p.LatitudeDegreesGT != nil && p.LongitudeDegreesGT != nil {
		r.GroundTruth = &model.Location{
			Latitude:  *p.LatitudeDegreesGT,
			Longitude: *p.LongitudeDegreesGT,
		}
	}
	return r, nil
}

// normalizeSpeed prefers an explicit m/s value, converts km/h otherwise,
// and defaults to 0.
func normalizeSpeed(mps, kmh *float64) float64 {
	if mps != nil {
		return *mps
	}
	if kmh != nil {
		return *kmh / 3.6
	}
	return 0.0
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+pad)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(pad)
	}
	return out
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty plaintext")
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-pad], nil
}
