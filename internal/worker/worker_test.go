package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridealert/internal/model"
	"ridealert/internal/service/broadcast"
	"ridealert/internal/service/notify"
	"ridealert/internal/store"
)

type fakeRunner struct {
	mu      sync.Mutex
	started bool
	stopped bool
}

func (r *fakeRunner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
}

func (r *fakeRunner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
}

func TestSchedulerStartsAndStopsAll(t *testing.T) {
	a, b := &fakeRunner{}, &fakeRunner{}
	s := NewScheduler(a, b)

	s.StartAll()
	assert.True(t, a.started)
	assert.True(t, b.started)

	s.StopAll()
	assert.True(t, a.stopped)
	assert.True(t, b.stopped)
}

type countingVehicleStore struct {
	store.VehicleStore
}

func (countingVehicleStore) Count(ctx context.Context) (int64, error) { return 12, nil }

type countingUserStore struct {
	store.UserStore
}

func (countingUserStore) Count(ctx context.Context) (int64, error) { return 34, nil }

type collectingConn struct {
	mu       sync.Mutex
	messages []interface{}
}

func (c *collectingConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, v)
	return nil
}

func (c *collectingConn) Close() error { return nil }

func (c *collectingConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

type sweepCountingUserStore struct {
	store.UserStore
	sweeps int32
}

func (s *sweepCountingUserStore) Notifiable(ctx context.Context) ([]*model.User, error) {
	atomic.AddInt32(&s.sweeps, 1)
	return nil, nil
}

type noopGuard struct{}

func (noopGuard) Acquire(ctx context.Context, userID, vehicleID string, window time.Duration) (bool, error) {
	return true, nil
}

func (noopGuard) Release(ctx context.Context, userID, vehicleID string) error { return nil }

type noopGateway struct{}

func (noopGateway) Send(ctx context.Context, token, title, body string) error { return nil }

func TestProximitySweeperFirstPassIsImmediate(t *testing.T) {
	users := &sweepCountingUserStore{}
	notifier := notify.New(
		users, countingVehicleStore{}, nil,
		noopGuard{}, noopGateway{}, broadcast.NewHub(), time.Minute,
	)

	// An hour-long interval: any sweep observed below must be the initial
	// one, not a tick.
	w := NewProximitySweeper(notifier, time.Hour)
	w.Start()
	defer w.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && atomic.LoadInt32(&users.sweeps) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&users.sweeps))
}

func TestCountsSnapshot(t *testing.T) {
	snapshot, err := CountsSnapshot(context.Background(), countingVehicleStore{}, countingUserStore{})
	require.NoError(t, err)

	assert.Equal(t, "counts", snapshot["type"])
	assert.EqualValues(t, 12, snapshot["vehicles"])
	assert.EqualValues(t, 34, snapshot["users"])
}

func TestCountsWorkerPublishesToSubscribers(t *testing.T) {
	hub := broadcast.NewHub()
	conn := &collectingConn{}
	hub.Subscribe(conn, broadcast.StatsTopic)

	w := NewCountsWorker(countingVehicleStore{}, countingUserStore{}, hub, 10*time.Millisecond)
	w.Start()
	defer w.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && conn.count() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Greater(t, conn.count(), 0)
}

func TestCountsWorkerStopTerminates(t *testing.T) {
	hub := broadcast.NewHub()
	w := NewCountsWorker(countingVehicleStore{}, countingUserStore{}, hub, 5*time.Millisecond)
	w.Start()

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
