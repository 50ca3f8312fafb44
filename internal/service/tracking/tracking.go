// Package tracking runs the post-correction pipeline: route snapping,
// registry write-back and fan-out to live subscribers.
package tracking

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"ridealert/internal/model"
	"ridealert/internal/service/broadcast"
	"ridealert/internal/service/corrector"
	"ridealert/internal/service/routesnap"
	"ridealert/internal/store"
)

// Service owns the write path after a correction. Ordering is fixed:
// registry write first, then broadcast, then the tracking-log append. Only
// a failed registry write is an error; a failed append never reaches the
// caller.
type Service struct {
	vehicles store.VehicleStore
	tracking store.TrackingStore
	snapper  *routesnap.Snapper
	hub      *broadcast.Hub
}

func New(vehicles store.VehicleStore, tracking store.TrackingStore, snapper *routesnap.Snapper, hub *broadcast.Hub) *Service {
	return &Service{vehicles: vehicles, tracking: tracking, snapper: snapper, hub: hub}
}

// Record resolves the device to its vehicle, snaps the corrected fix to the
// vehicle's declared route, overwrites the registry location and publishes
// the update on the vehicle and fleet channels. An unregistered device is
// not an error: the unsnapped fix is still logged and returned with a nil
// vehicle.
func (s *Service) Record(ctx context.Context, reading *model.TelemetryReading, result *corrector.Result) (model.CorrectedPosition, *model.Vehicle, error) {
	vehicle, err := s.vehicles.FindByDevice(ctx, reading.DeviceID)
	if err != nil {
		if err != store.ErrNotFound {
			return model.CorrectedPosition{}, nil, err
		}
		pos := model.CorrectedPosition{
			Latitude:  result.Corrected.Latitude,
			Longitude: result.Corrected.Longitude,
		}
		s.appendLog(ctx, "", reading, pos, result.Raw)
		return pos, nil, nil
	}

	pos := s.snapper.Snap(ctx, vehicle.RouteID, result.Corrected)

	loc := pos.Location()
	if err := s.vehicles.UpdateLocation(ctx, vehicle.ID, loc); err != nil {
		return model.CorrectedPosition{}, nil, err
	}
	vehicle.Location = &loc

	s.hub.Publish(map[string]interface{}{
		"type":       "location_update",
		"vehicle_id": vehicle.ID,
		"location":   loc,
		"snapped":    pos.Snapped,
	}, broadcast.VehicleTopic(vehicle.ID))
	s.publishFleet(ctx, vehicle.FleetID)

	s.appendLog(ctx, vehicle.ID, reading, pos, result.Raw)
	return pos, vehicle, nil
}

// publishFleet pushes a fresh vehicle list to the fleet channel, the same
// snapshot the websocket endpoint sends on connect.
func (s *Service) publishFleet(ctx context.Context, fleetID string) {
	if fleetID == "" {
		return
	}
	vehicles, err := s.vehicles.ListByFleet(ctx, fleetID)
	if err != nil {
		log.Warnf("Fleet snapshot query failed for %s: %v", fleetID, err)
		return
	}
	s.hub.Publish(map[string]interface{}{
		"type":     "vehicle_list",
		"fleet_id": fleetID,
		"vehicles": vehicles,
	}, broadcast.FleetTopic(fleetID))
}

func (s *Service) appendLog(ctx context.Context, vehicleID string, reading *model.TelemetryReading, pos model.CorrectedPosition, raw model.Location) {
	rec := &model.TrackingLog{
		VehicleID: vehicleID,
		DeviceID:  reading.DeviceID,
		SpeedMps:  reading.SpeedMps,
		Raw:       raw,
		Corrected: pos.Location(),
		Snapped:   pos.Snapped,
		Timestamp: time.Now().UTC(),
	}
	if err := s.tracking.Append(ctx, rec); err != nil {
		log.Warnf("Tracking log append failed for device %s: %v", reading.DeviceID, err)
	}
}

// Latest returns the newest tracking record for a vehicle's device, or
// store.ErrNotFound when the vehicle has no paired device.
func (s *Service) Latest(ctx context.Context, vehicle *model.Vehicle) (*model.TrackingLog, error) {
	if vehicle.DeviceID == "" {
		return nil, store.ErrNotFound
	}
	return s.tracking.Latest(ctx, vehicle.DeviceID)
}
