package notify

import (
	"context"
	"fmt"
	"time"

	"ridealert/internal/redis"
)

// CooldownGuard claims the right to notify a (rider, vehicle) pair. Acquire
// returns false when a recent claim already exists. Release undoes a claim
// whose dispatch failed so the next sweep may retry.
type CooldownGuard interface {
	Acquire(ctx context.Context, userID, vehicleID string, window time.Duration) (bool, error)
	Release(ctx context.Context, userID, vehicleID string) error
}

// RedisCooldown implements the guard with SET NX + TTL, the fast path in
// front of the notification-log dedup query.
type RedisCooldown struct{}

func cooldownKey(userID, vehicleID string) string {
	return fmt.Sprintf("notif:cooldown:%s:%s", userID, vehicleID)
}

func (RedisCooldown) Acquire(ctx context.Context, userID, vehicleID string, window time.Duration) (bool, error) {
	return redis.SetNX(ctx, cooldownKey(userID, vehicleID), 1, window)
}

func (RedisCooldown) Release(ctx context.Context, userID, vehicleID string) error {
	return redis.Delete(ctx, cooldownKey(userID, vehicleID))
}
