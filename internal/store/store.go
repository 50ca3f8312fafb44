// Package store defines the contracts this service consumes from the
// surrounding document stores (vehicle registry, user directory, tracking
// log, notification log, route definitions) and their MongoDB
// implementations. The entities themselves are owned elsewhere; this core
// only reads them and conditionally overwrites location fields.
package store

import (
	"context"
	"errors"
	"time"

	"ridealert/internal/model"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("store: not found")

// VehicleStore reads the vehicle registry and writes back location only.
type VehicleStore interface {
	FindByID(ctx context.Context, id string) (*model.Vehicle, error)
	// FindByDevice matches the device identifier in both its string and
	// native-id representations.
	FindByDevice(ctx context.Context, deviceID string) (*model.Vehicle, error)
	UpdateLocation(ctx context.Context, vehicleID string, loc model.Location) error
	ListByFleet(ctx context.Context, fleetID string) ([]*model.Vehicle, error)
	// AvailableByFleet returns available or full vehicles with a known location.
	AvailableByFleet(ctx context.Context, fleetID string) ([]*model.Vehicle, error)
	Count(ctx context.Context) (int64, error)
}

// UserStore reads the rider directory and writes back location only.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	UpdateLocation(ctx context.Context, userID string, loc model.Location) error
	// Notifiable returns opted-in riders that carry a push token, a valid
	// location and a fleet membership.
	Notifiable(ctx context.Context) ([]*model.User, error)
	Count(ctx context.Context) (int64, error)
}

// TrackingStore appends correction records and serves speed history.
type TrackingStore interface {
	Append(ctx context.Context, rec *model.TrackingLog) error
	Latest(ctx context.Context, deviceID string) (*model.TrackingLog, error)
	// RecentSpeeds returns up to limit samples within the window, newest first.
	RecentSpeeds(ctx context.Context, deviceID string, window time.Duration, limit int) ([]model.SpeedSample, error)
}

// NotificationStore records alert attempts and answers cooldown queries.
type NotificationStore interface {
	Append(ctx context.Context, rec *model.NotificationRecord) error
	RecentExists(ctx context.Context, userID, vehicleID string, window time.Duration) (bool, error)
}

// RouteStore serves route geometry as lat/lng points.
type RouteStore interface {
	Geometry(ctx context.Context, routeID string) ([][2]float64, error)
}
