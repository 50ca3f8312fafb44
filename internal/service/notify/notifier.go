// Package notify checks rider/vehicle proximity and dispatches push alerts
// with per-pair cooldown dedup.
package notify

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"ridealert/internal/config"
	"ridealert/internal/model"
	"ridealert/internal/service/broadcast"
	"ridealert/internal/store"
	"ridealert/internal/util"
)

// Outcome is the result of one proximity check. Every path — out of range,
// missing token, suppressed duplicate, dispatch failure, success — lands
// here; none of them is an error that aborts a sweep.
type Outcome struct {
	Notified bool
	Reason   string
}

// SweepStats summarizes one full sweep iteration.
type SweepStats struct {
	Checks        int
	Notifications int
}

// Notifier owns the proximity-alert pipeline.
type Notifier struct {
	users         store.UserStore
	vehicles      store.VehicleStore
	notifications store.NotificationStore
	guard         CooldownGuard
	gateway       Gateway
	hub           *broadcast.Hub
	cooldown      time.Duration
}

func New(
	users store.UserStore,
	vehicles store.VehicleStore,
	notifications store.NotificationStore,
	guard CooldownGuard,
	gateway Gateway,
	hub *broadcast.Hub,
	cooldown time.Duration,
) *Notifier {
	return &Notifier{
		users:         users,
		vehicles:      vehicles,
		notifications: notifications,
		guard:         guard,
		gateway:       gateway,
		hub:           hub,
		cooldown:      cooldown,
	}
}

// CheckAndNotify runs the full decision for one rider/vehicle pair:
// distance threshold, cooldown dedup, push dispatch, record append, and a
// message on the rider's notification channel.
func (n *Notifier) CheckAndNotify(ctx context.Context, user *model.User, vehicle *model.Vehicle) Outcome {
	if user.Location == nil || !user.Location.Valid() || !vehicle.HasLocation() {
		return Outcome{Reason: "missing coordinates"}
	}

	distance := util.HaversineDistance(
		user.Location.Latitude, user.Location.Longitude,
		vehicle.Location.Latitude, vehicle.Location.Longitude,
	)
	if distance > config.ProximityRadiusMeters {
		return Outcome{Reason: "out of range"}
	}

	if user.FCMToken == "" {
		return Outcome{Reason: "no push token"}
	}

	suppressed, err := n.recentlyNotified(ctx, user.ID, vehicle.ID)
	if err != nil {
		log.Warnf("Cooldown check failed for user %s: %v", user.ID, err)
		return Outcome{Reason: "cooldown check failed"}
	}
	if suppressed {
		return Outcome{Reason: "recent notification exists"}
	}

	body := fmt.Sprintf("A PUV is %dm away from you!", int(distance))
	if err := n.gateway.Send(ctx, user.FCMToken, "PUV Nearby!", body); err != nil {
		log.Warnf("Push dispatch failed for user %s: %v", user.ID, err)
		// Undo the claim so the next sweep may retry this pair.
		if relErr := n.guard.Release(ctx, user.ID, vehicle.ID); relErr != nil {
			log.Warnf("Cooldown release failed for user %s: %v", user.ID, relErr)
		}
		failed := &model.NotificationRecord{
			UserID:    user.ID,
			VehicleID: vehicle.ID,
			DistanceM: distance,
			Success:   false,
			Type:      "proximity",
		}
		if appErr := n.notifications.Append(ctx, failed); appErr != nil {
			log.Warnf("Notification record append failed for user %s: %v", user.ID, appErr)
		}
		return Outcome{Reason: "push dispatch failed"}
	}

	rec := &model.NotificationRecord{
		UserID:    user.ID,
		VehicleID: vehicle.ID,
		DistanceM: distance,
		Success:   true,
		Type:      "proximity",
	}
	if err := n.notifications.Append(ctx, rec); err != nil {
		// The alert already went out; a failed record append only weakens
		// the log-based dedup fallback.
		log.Warnf("Notification record append failed for user %s: %v", user.ID, err)
	}

	n.hub.Publish(map[string]interface{}{
		"type":       "proximity_alert",
		"vehicle_id": vehicle.ID,
		"distance":   distance,
	}, broadcast.UserTopic(user.ID))

	return Outcome{Notified: true, Reason: "notification sent"}
}

// recentlyNotified claims the cooldown via the fast guard, falling back to
// the notification-log query when the guard is unavailable. Returns true
// when the pair was alerted inside the window.
func (n *Notifier) recentlyNotified(ctx context.Context, userID, vehicleID string) (bool, error) {
	acquired, err := n.guard.Acquire(ctx, userID, vehicleID, n.cooldown)
	if err == nil {
		return !acquired, nil
	}
	log.Warnf("Cooldown guard unavailable, falling back to log query: %v", err)
	return n.notifications.RecentExists(ctx, userID, vehicleID, n.cooldown)
}

// SweepUser is the synchronous path after a rider location update: the
// rider against every available located vehicle in their fleet.
func (n *Notifier) SweepUser(ctx context.Context, user *model.User) SweepStats {
	var stats SweepStats
	if !user.Notifiable() || user.FleetID == "" {
		return stats
	}

	vehicles, err := n.vehicles.AvailableByFleet(ctx, user.FleetID)
	if err != nil {
		log.Warnf("Sweep: vehicle query failed for fleet %s: %v", user.FleetID, err)
		return stats
	}
	for _, v := range vehicles {
		stats.Checks++
		if out := n.CheckAndNotify(ctx, user, v); out.Notified {
			stats.Notifications++
		}
	}
	return stats
}

// SweepAll is the periodic path: every opted-in rider with a token and a
// valid location, grouped by fleet against that fleet's available vehicles.
// A candidate with missing coordinates is skipped, never a sweep abort.
func (n *Notifier) SweepAll(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	users, err := n.users.Notifiable(ctx)
	if err != nil {
		return stats, fmt.Errorf("sweep: user query: %w", err)
	}
	if len(users) == 0 {
		return stats, nil
	}

	byFleet := make(map[string][]*model.User)
	for _, u := range users {
		if u.FleetID != "" {
			byFleet[u.FleetID] = append(byFleet[u.FleetID], u)
		}
	}

	for fleetID, fleetUsers := range byFleet {
		vehicles, err := n.vehicles.AvailableByFleet(ctx, fleetID)
		if err != nil {
			log.Warnf("Sweep: vehicle query failed for fleet %s: %v", fleetID, err)
			continue
		}
		if len(vehicles) == 0 {
			continue
		}
		for _, u := range fleetUsers {
			for _, v := range vehicles {
				stats.Checks++
				if out := n.CheckAndNotify(ctx, u, v); out.Notified {
					stats.Notifications++
				}
			}
		}
	}

	log.Infof("Proximity sweep complete: %d checks, %d notifications", stats.Checks, stats.Notifications)
	return stats, nil
}
