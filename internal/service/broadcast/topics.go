package broadcast

// StatsTopic carries periodic count snapshots.
const StatsTopic = "stats:count"

// VehicleTopic keys the per-vehicle location channel.
func VehicleTopic(vehicleID string) string { return "vehicle:" + vehicleID }

// FleetTopic keys the per-fleet vehicle-list channel.
func FleetTopic(fleetID string) string { return "fleet:" + fleetID }

// UserTopic keys the per-user notification channel.
func UserTopic(userID string) string { return "user:" + userID }

// ETATopic keys the per-vehicle realtime ETA channel.
func ETATopic(vehicleID string) string { return "eta:" + vehicleID }
