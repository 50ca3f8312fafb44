package model

import "time"

// TrackingLog is one appended record in the tracking-log store: the raw
// reading alongside the corrected fix, keyed by device.
type TrackingLog struct {
	VehicleID string    `bson:"vehicle_id"`
	DeviceID  string    `bson:"device_id"`
	SpeedMps  float64   `bson:"SpeedMps"`
	Raw       Location  `bson:"raw"`
	Corrected Location  `bson:"corrected"`
	Snapped   bool      `bson:"snapped"`
	Timestamp time.Time `bson:"timestamp"`
}

// SpeedSample is one scalar m/s observation pulled from recent tracking
// history, newest first.
type SpeedSample struct {
	SpeedMps  float64   `bson:"SpeedMps"`
	Timestamp time.Time `bson:"timestamp"`
}

// NotificationRecord logs one proximity alert attempt. Two records for the
// same (user, vehicle) pair inside the cooldown window never count as
// independent alerts; the second attempt is suppressed before dispatch.
type NotificationRecord struct {
	UserID    string    `bson:"user_id"`
	VehicleID string    `bson:"vehicle_id"`
	DistanceM float64   `bson:"distance"`
	Success   bool      `bson:"success"`
	Timestamp time.Time `bson:"timestamp"`
	Type      string    `bson:"notification_type"`
}
