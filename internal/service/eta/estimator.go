// Package eta derives a smoothed, traffic-aware arrival estimate from
// recent tracking history.
package eta

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"ridealert/internal/config"
	"ridealert/internal/model"
	"ridealert/internal/store"
	"ridealert/internal/util"
)

// Speed thresholds in m/s
const (
	urbanSpeedMps   = 8.33 // default assumption for urban transit
	minSpeedMps     = 2.78 // floor under congestion blending
	stopSpeedMps    = 0.5
	movingSpeedMps  = 3.0
	speedPercentile = 0.7
)

// ErrNoVehicleLocation is returned when the target vehicle has no usable fix.
var ErrNoVehicleLocation = errors.New("eta: vehicle location not available")

// Estimate is the full ETA answer for one rider/vehicle pair.
type Estimate struct {
	VehicleID       string         `json:"vehicle_id"`
	VehiclePlate    string         `json:"vehicle_plate"`
	VehicleRoute    string         `json:"vehicle_route"`
	DistanceMeters  float64        `json:"distance_meters"`
	DistanceKm      float64        `json:"distance_km"`
	CurrentSpeedMps float64        `json:"current_speed_mps"`
	CurrentSpeedKmh float64        `json:"current_speed_kmh"`
	AverageSpeedMps float64        `json:"average_speed_mps"`
	AverageSpeedKmh float64        `json:"average_speed_kmh"`
	ETAMinutes      float64        `json:"eta_minutes"`
	ETAFormatted    string         `json:"eta_formatted"`
	VehicleLocation model.Location `json:"vehicle_location"`
	UserLocation    model.Location `json:"user_location"`
	Status          string         `json:"status"`
	Message         string         `json:"message"`
	IsStopped       bool           `json:"is_stopped"`
	Confidence      string         `json:"confidence"`
}

// Estimator reads the registry and the tracking log on demand; it keeps no
// state between calls.
type Estimator struct {
	vehicles store.VehicleStore
	tracking store.TrackingStore
}

func New(vehicles store.VehicleStore, tracking store.TrackingStore) *Estimator {
	return &Estimator{vehicles: vehicles, tracking: tracking}
}

// Estimate computes the rider's ETA to the vehicle. Tracking-store faults
// downgrade to the no-data tier rather than failing the call.
func (e *Estimator) Estimate(ctx context.Context, vehicleID string, rider model.Location) (*Estimate, error) {
	vehicle, err := e.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if !vehicle.HasLocation() {
		return nil, ErrNoVehicleLocation
	}

	distance := util.HaversineDistance(
		rider.Latitude, rider.Longitude,
		vehicle.Location.Latitude, vehicle.Location.Longitude,
	)

	currentSpeed, averageSpeed := 0.0, 0.0
	stopped := false
	if vehicle.DeviceID != "" {
		currentSpeed, averageSpeed, stopped = e.speedProfile(ctx, vehicle.DeviceID)
	}

	etaMinutes, formatted, confidence, message := smartETA(
		distance, currentSpeed, averageSpeed, stopped, vehicle.StatusDetail,
	)

	return &Estimate{
		VehicleID:       vehicle.ID,
		VehiclePlate:    vehicle.Plate,
		VehicleRoute:    vehicle.Route,
		DistanceMeters:  distance,
		DistanceKm:      distance / 1000,
		CurrentSpeedMps: currentSpeed,
		CurrentSpeedKmh: currentSpeed * 3.6,
		AverageSpeedMps: averageSpeed,
		AverageSpeedKmh: averageSpeed * 3.6,
		ETAMinutes:      etaMinutes,
		ETAFormatted:    formatted,
		VehicleLocation: *vehicle.Location,
		UserLocation:    rider,
		Status:          string(vehicle.Status),
		Message:         message,
		IsStopped:       stopped,
		Confidence:      confidence,
	}, nil
}

// speedProfile reads the latest tracking record and the recent speed
// history. The current speed only counts while the latest record is fresh.
func (e *Estimator) speedProfile(ctx context.Context, deviceID string) (current, average float64, stopped bool) {
	latest, err := e.tracking.Latest(ctx, deviceID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warnf("ETA: latest tracking read failed for %s: %v", deviceID, err)
		}
		return 0, 0, false
	}
	if time.Since(latest.Timestamp) > config.TrackingFreshness {
		return 0, 0, false
	}
	current = latest.SpeedMps

	samples, err := e.tracking.RecentSpeeds(ctx, deviceID, config.SpeedHistoryWindow, config.SpeedHistoryLimit)
	if err != nil {
		log.Warnf("ETA: speed history read failed for %s: %v", deviceID, err)
		return current, 0, false
	}
	speeds := make([]float64, len(samples))
	for i, s := range samples {
		speeds[i] = s.SpeedMps
	}
	return current, AverageSpeed(speeds), IsStopped(current, speeds)
}

// AverageSpeed smooths the history with a percentile anchor: drop
// non-positive samples, sort ascending, take the sample at index
// floor(0.7*n) and average everything at or above half that value. The
// rule excludes near-zero stop samples while keeping moderate speeds.
func AverageSpeed(speeds []float64) float64 {
	valid := make([]float64, 0, len(speeds))
	for _, s := range speeds {
		if s > 0 {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return 0.0
	}

	sort.Float64s(valid)
	idx := int(float64(len(valid)) * speedPercentile)
	if idx >= len(valid) {
		idx = len(valid) - 1
	}
	anchor := valid[idx]
	threshold := anchor / 2

	sum, n := 0.0, 0
	for _, s := range valid {
		if s >= threshold {
			sum += s
			n++
		}
	}
	if n == 0 {
		return anchor
	}
	return sum / float64(n)
}

// IsStopped reports a genuine stop: current speed under 0.5 m/s and, among
// the 5 most recent samples (at least 3 required), more than 60% under
// 0.5 m/s.
func IsStopped(currentSpeed float64, history []float64) bool {
	if currentSpeed >= stopSpeedMps {
		return false
	}
	recent := history
	if len(recent) > 5 {
		recent = recent[:5]
	}
	if len(recent) < 3 {
		return false
	}
	stoppedCount := 0
	for _, s := range recent {
		if s < stopSpeedMps {
			stoppedCount++
		}
	}
	return float64(stoppedCount)/float64(len(recent)) > 0.6
}

// smartETA picks the effective speed tier, converts distance into minutes
// and adds the stop buffer.
func smartETA(distanceMeters, currentSpeed, averageSpeed float64, stopped bool, statusDetail string) (etaMinutes float64, formatted, confidence, message string) {
	var effectiveSpeed float64

	switch {
	case stopped:
		if averageSpeed > 1.0 {
			effectiveSpeed = averageSpeed
		} else {
			effectiveSpeed = urbanSpeedMps
		}
		confidence = "medium"
		message = "Vehicle temporarily stopped. ETA based on average speed."

	case strings.EqualFold(statusDetail, "standing"):
		if averageSpeed > 1.0 {
			effectiveSpeed = averageSpeed
			message = "Vehicle standing. ETA based on historical speed."
		} else {
			effectiveSpeed = urbanSpeedMps
			message = "Vehicle standing. ETA is estimated."
		}
		confidence = "low"

	case currentSpeed >= stopSpeedMps && currentSpeed < movingSpeedMps:
		// Congestion: blend 70/30 toward whichever speed is larger.
		if averageSpeed > currentSpeed {
			effectiveSpeed = currentSpeed*0.3 + averageSpeed*0.7
		} else {
			effectiveSpeed = currentSpeed*0.7 + averageSpeed*0.3
		}
		if effectiveSpeed < minSpeedMps {
			effectiveSpeed = minSpeedMps
		}
		confidence = "medium"
		message = "Vehicle in traffic. ETA adjusted for congestion."

	case currentSpeed >= movingSpeedMps:
		if averageSpeed > 1.0 {
			effectiveSpeed = currentSpeed*0.6 + averageSpeed*0.4
			confidence = "high"
			message = "Vehicle moving normally. Real-time ETA."
		} else {
			effectiveSpeed = currentSpeed
			confidence = "medium"
			message = "Vehicle moving. ETA based on current speed."
		}

	default:
		effectiveSpeed = urbanSpeedMps
		confidence = "low"
		message = "Limited data. ETA is estimated."
	}

	etaMinutes = distanceMeters / effectiveSpeed / 60

	// Buffer for stops along the way, capped at 5 minutes.
	buffer := etaMinutes * 0.15
	if buffer > 5.0 {
		buffer = 5.0
	}
	etaMinutes += buffer

	return etaMinutes, FormatMinutes(etaMinutes), confidence, message
}

// FormatMinutes renders an ETA for riders.
func FormatMinutes(minutes float64) string {
	if minutes < 1 {
		return "Less than 1 minute"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d minutes", int(minutes))
	}
	hours := int(minutes) / 60
	mins := int(minutes) % 60
	plural := ""
	if hours > 1 {
		plural = "s"
	}
	return fmt.Sprintf("%d hour%s %d minutes", hours, plural, mins)
}
