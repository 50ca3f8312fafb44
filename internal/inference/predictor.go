// Package inference wraps the external ML correction capability and the
// background loader that gates access to it.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Features is the assembled input vector for one correction call.
type Features struct {
	Cn0DbHz            float64 `json:"Cn0DbHz"`
	Svid               int     `json:"Svid"`
	SvElevationDegrees float64 `json:"SvElevationDegrees"`
	SvAzimuthDegrees   float64 `json:"SvAzimuthDegrees"`
	IMUMessageType     string  `json:"IMU_MessageType"`
	MeasurementX       float64 `json:"MeasurementX"`
	MeasurementY       float64 `json:"MeasurementY"`
	MeasurementZ       float64 `json:"MeasurementZ"`
	BiasX              float64 `json:"BiasX"`
	BiasY              float64 `json:"BiasY"`
	BiasZ              float64 `json:"BiasZ"`
	WlsPositionX       float64 `json:"WlsPositionXEcefMeters"`
	WlsPositionY       float64 `json:"WlsPositionYEcefMeters"`
	WlsPositionZ       float64 `json:"WlsPositionZEcefMeters"`
	SignalQuality      float64 `json:"SignalQuality"`
	WLSDistance        float64 `json:"WLS_Distance"`
}

// Predictor is the ready-made inference capability: a feature vector in, a
// (dLat, dLon) offset in degrees out. Callers impose timeouts via ctx.
type Predictor interface {
	Predict(ctx context.Context, f Features) ([2]float64, error)
	// Warmup verifies the capability is usable; the loader calls it once
	// per load attempt.
	Warmup(ctx context.Context) error
}

// HTTPPredictor talks to a model server over HTTP.
type HTTPPredictor struct {
	baseURL string
	client  *http.Client
}

func NewHTTPPredictor(baseURL string) *HTTPPredictor {
	return &HTTPPredictor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *HTTPPredictor) Predict(ctx context.Context, f Features) ([2]float64, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return [2]float64{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return [2]float64{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return [2]float64{}, fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return [2]float64{}, fmt.Errorf("inference returned %d: %s", resp.StatusCode, msg)
	}

	var out struct {
		Prediction [2]float64 `json:"prediction"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return [2]float64{}, fmt.Errorf("inference response: %w", err)
	}
	return out.Prediction, nil
}

// Warmup probes the model server health endpoint. Model artifacts load on
// the server side; a 200 means predictions will be fast.
func (p *HTTPPredictor) Warmup(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("model server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server not healthy: %d", resp.StatusCode)
	}
	return nil
}
