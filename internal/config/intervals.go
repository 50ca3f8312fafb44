package config

import "time"

// Timing constants for the realtime pipeline
const (
	// RouteCacheTTL defines how long a cached route geometry stays fresh
	RouteCacheTTL = time.Hour

	// SweepBackoff defines how long the proximity sweeper waits after a
	// failed iteration before continuing the loop
	SweepBackoff = 5 * time.Second

	// SpeedHistoryWindow defines how far back speed samples are read for
	// ETA smoothing
	SpeedHistoryWindow = 5 * time.Minute

	// SpeedHistoryLimit caps the number of speed samples per ETA query
	SpeedHistoryLimit = 30

	// TrackingFreshness defines how recent the latest tracking log must be
	// for its speed to count as the current speed
	TrackingFreshness = 2 * time.Minute

	// ProximityRadiusMeters is the alert threshold between rider and vehicle
	ProximityRadiusMeters = 500.0
)
