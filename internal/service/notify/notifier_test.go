package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridealert/internal/model"
	"ridealert/internal/service/broadcast"
	"ridealert/internal/store"
)

type fakeUserStore struct {
	store.UserStore
	users []*model.User
}

func (f *fakeUserStore) Notifiable(ctx context.Context) ([]*model.User, error) {
	return f.users, nil
}

type fakeVehicleStore struct {
	store.VehicleStore
	byFleet map[string][]*model.Vehicle
}

func (f *fakeVehicleStore) AvailableByFleet(ctx context.Context, fleetID string) ([]*model.Vehicle, error) {
	return f.byFleet[fleetID], nil
}

type fakeNotificationStore struct {
	records      []*model.NotificationRecord
	recentExists bool
}

func (f *fakeNotificationStore) Append(ctx context.Context, rec *model.NotificationRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeNotificationStore) RecentExists(ctx context.Context, userID, vehicleID string, window time.Duration) (bool, error) {
	return f.recentExists, nil
}

type fakeGuard struct {
	acquired bool
	err      error
	releases int
}

func (g *fakeGuard) Acquire(ctx context.Context, userID, vehicleID string, window time.Duration) (bool, error) {
	return g.acquired, g.err
}

func (g *fakeGuard) Release(ctx context.Context, userID, vehicleID string) error {
	g.releases++
	return nil
}

type fakeGateway struct {
	sends []string
	err   error
}

func (g *fakeGateway) Send(ctx context.Context, token, title, body string) error {
	if g.err != nil {
		return g.err
	}
	g.sends = append(g.sends, token)
	return nil
}

type testHarness struct {
	notifier      *Notifier
	guard         *fakeGuard
	gateway       *fakeGateway
	notifications *fakeNotificationStore
	hub           *broadcast.Hub
}

func newHarness(vehicles *fakeVehicleStore, users *fakeUserStore) *testHarness {
	h := &testHarness{
		guard:         &fakeGuard{acquired: true},
		gateway:       &fakeGateway{},
		notifications: &fakeNotificationStore{},
		hub:           broadcast.NewHub(),
	}
	h.notifier = New(users, vehicles, h.notifications, h.guard, h.gateway, h.hub, 5*time.Minute)
	return h
}

func userAt(lat, lng float64) *model.User {
	return &model.User{
		ID:       "u1",
		FleetID:  "f1",
		FCMToken: "tok",
		Notify:   true,
		Location: &model.Location{Latitude: lat, Longitude: lng},
	}
}

func vehicleAt(lat, lng float64) *model.Vehicle {
	return &model.Vehicle{
		ID:       "v1",
		FleetID:  "f1",
		Status:   model.VehicleStatusAvailable,
		Location: &model.Location{Latitude: lat, Longitude: lng},
	}
}

func TestCheckAndNotifyWithinRange(t *testing.T) {
	h := newHarness(&fakeVehicleStore{}, &fakeUserStore{})

	// Just under 500 m north of the vehicle.
	out := h.notifier.CheckAndNotify(context.Background(), userAt(14.60449, 121.0), vehicleAt(14.60, 121.0))

	assert.True(t, out.Notified)
	assert.Len(t, h.gateway.sends, 1)
	require.Len(t, h.notifications.records, 1)
	assert.True(t, h.notifications.records[0].Success)
	assert.Equal(t, "proximity", h.notifications.records[0].Type)
}

func TestCheckAndNotifyOutOfRange(t *testing.T) {
	h := newHarness(&fakeVehicleStore{}, &fakeUserStore{})

	// Just past 500 m.
	out := h.notifier.CheckAndNotify(context.Background(), userAt(14.60452, 121.0), vehicleAt(14.60, 121.0))

	assert.False(t, out.Notified)
	assert.Equal(t, "out of range", out.Reason)
	assert.Empty(t, h.gateway.sends)
}

func TestCheckAndNotifyMissingCoordinates(t *testing.T) {
	h := newHarness(&fakeVehicleStore{}, &fakeUserStore{})

	user := userAt(14.60, 121.0)
	user.Location = nil
	out := h.notifier.CheckAndNotify(context.Background(), user, vehicleAt(14.60, 121.0))

	assert.False(t, out.Notified)
	assert.Equal(t, "missing coordinates", out.Reason)
}

func TestCheckAndNotifyCooldownSuppressed(t *testing.T) {
	h := newHarness(&fakeVehicleStore{}, &fakeUserStore{})
	h.guard.acquired = false

	out := h.notifier.CheckAndNotify(context.Background(), userAt(14.601, 121.0), vehicleAt(14.60, 121.0))

	assert.False(t, out.Notified)
	assert.Equal(t, "recent notification exists", out.Reason)
	assert.Empty(t, h.gateway.sends)
}

func TestCheckAndNotifyGuardFallbackToLog(t *testing.T) {
	h := newHarness(&fakeVehicleStore{}, &fakeUserStore{})
	h.guard.err = errors.New("redis down")
	h.notifications.recentExists = true

	out := h.notifier.CheckAndNotify(context.Background(), userAt(14.601, 121.0), vehicleAt(14.60, 121.0))

	assert.False(t, out.Notified)
	assert.Equal(t, "recent notification exists", out.Reason)
}

func TestCheckAndNotifyGuardFallbackAllows(t *testing.T) {
	h := newHarness(&fakeVehicleStore{}, &fakeUserStore{})
	h.guard.err = errors.New("redis down")
	h.notifications.recentExists = false

	out := h.notifier.CheckAndNotify(context.Background(), userAt(14.601, 121.0), vehicleAt(14.60, 121.0))

	assert.True(t, out.Notified)
	assert.Len(t, h.gateway.sends, 1)
}

func TestCheckAndNotifyNoToken(t *testing.T) {
	h := newHarness(&fakeVehicleStore{}, &fakeUserStore{})

	user := userAt(14.601, 121.0)
	user.FCMToken = ""
	out := h.notifier.CheckAndNotify(context.Background(), user, vehicleAt(14.60, 121.0))

	assert.False(t, out.Notified)
	assert.Equal(t, "no push token", out.Reason)
}

func TestCheckAndNotifyDispatchFailureReleasesGuard(t *testing.T) {
	h := newHarness(&fakeVehicleStore{}, &fakeUserStore{})
	h.gateway.err = errors.New("fcm unavailable")

	out := h.notifier.CheckAndNotify(context.Background(), userAt(14.601, 121.0), vehicleAt(14.60, 121.0))

	assert.False(t, out.Notified)
	assert.Equal(t, "push dispatch failed", out.Reason)
	assert.Equal(t, 1, h.guard.releases)
	require.Len(t, h.notifications.records, 1)
	assert.False(t, h.notifications.records[0].Success)
}

func TestSweepAllGroupsByFleet(t *testing.T) {
	users := &fakeUserStore{users: []*model.User{
		userAt(14.601, 121.0),
		{ID: "u2", FleetID: "f2", FCMToken: "tok2", Notify: true,
			Location: &model.Location{Latitude: 14.601, Longitude: 121.0}},
	}}
	vehicles := &fakeVehicleStore{byFleet: map[string][]*model.Vehicle{
		"f1": {vehicleAt(14.60, 121.0)},
		// f2 has no available vehicles.
	}}
	h := newHarness(vehicles, users)

	stats, err := h.notifier.SweepAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Checks)
	assert.Equal(t, 1, stats.Notifications)
}

func TestSweepUserSkipsNonNotifiable(t *testing.T) {
	h := newHarness(&fakeVehicleStore{byFleet: map[string][]*model.Vehicle{
		"f1": {vehicleAt(14.60, 121.0)},
	}}, &fakeUserStore{})

	user := userAt(14.601, 121.0)
	user.Notify = false
	stats := h.notifier.SweepUser(context.Background(), user)

	assert.Equal(t, 0, stats.Checks)
}

func TestSweepUserNotifies(t *testing.T) {
	h := newHarness(&fakeVehicleStore{byFleet: map[string][]*model.Vehicle{
		"f1": {vehicleAt(14.60, 121.0), vehicleAt(14.55, 121.0)},
	}}, &fakeUserStore{})

	stats := h.notifier.SweepUser(context.Background(), userAt(14.601, 121.0))

	// Two vehicles checked, only the near one inside the radius.
	assert.Equal(t, 2, stats.Checks)
	assert.Equal(t, 1, stats.Notifications)
}
