package routesnap

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ridealert/internal/model"
	"ridealert/internal/store"
)

type fakeRouteStore struct {
	points [][2]float64
	err    error
	calls  int32
	delay  time.Duration
}

func (f *fakeRouteStore) Geometry(ctx context.Context, routeID string) ([][2]float64, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.points, nil
}

var straightRoute = [][2]float64{
	{14.60, 121.00},
	{14.60, 121.01},
	{14.60, 121.02},
}

func TestSnapDisabledPassesThrough(t *testing.T) {
	routes := &fakeRouteStore{points: straightRoute}
	s := New(routes, false)

	pos := model.Location{Latitude: 14.605, Longitude: 121.01}
	out := s.Snap(context.Background(), "r1", pos)

	assert.False(t, out.Snapped)
	assert.Equal(t, pos.Latitude, out.Latitude)
	assert.Equal(t, pos.Longitude, out.Longitude)
	assert.EqualValues(t, 0, atomic.LoadInt32(&routes.calls))
}

func TestSnapNoRoutePassesThrough(t *testing.T) {
	s := New(&fakeRouteStore{points: straightRoute}, true)

	out := s.Snap(context.Background(), "", model.Location{Latitude: 14.605, Longitude: 121.01})
	assert.False(t, out.Snapped)
}

func TestSnapProjectsOntoRoute(t *testing.T) {
	s := New(&fakeRouteStore{points: straightRoute}, true)

	// A point north of the middle segment snaps down onto it.
	out := s.Snap(context.Background(), "r1", model.Location{Latitude: 14.605, Longitude: 121.012})

	assert.True(t, out.Snapped)
	assert.InDelta(t, 14.60, out.Latitude, 1e-3)
	assert.InDelta(t, 121.012, out.Longitude, 1e-3)
}

func TestSnapTooFewPointsPassesThrough(t *testing.T) {
	s := New(&fakeRouteStore{points: [][2]float64{{14.60, 121.00}}}, true)

	out := s.Snap(context.Background(), "r1", model.Location{Latitude: 14.605, Longitude: 121.01})
	assert.False(t, out.Snapped)
}

func TestGeometryCacheHitSkipsStore(t *testing.T) {
	routes := &fakeRouteStore{points: straightRoute}
	s := New(routes, true)

	pos := model.Location{Latitude: 14.605, Longitude: 121.01}
	s.Snap(context.Background(), "r1", pos)
	s.Snap(context.Background(), "r1", pos)
	s.Snap(context.Background(), "r1", pos)

	assert.EqualValues(t, 1, atomic.LoadInt32(&routes.calls))
}

func TestGeometryFailureIsCached(t *testing.T) {
	routes := &fakeRouteStore{err: errors.New("mongo down")}
	s := New(routes, true)

	pos := model.Location{Latitude: 14.605, Longitude: 121.01}
	out := s.Snap(context.Background(), "r1", pos)
	assert.False(t, out.Snapped)

	// The failed load is cached; the store is not retried inside the TTL.
	s.Snap(context.Background(), "r1", pos)
	assert.EqualValues(t, 1, atomic.LoadInt32(&routes.calls))
}

func TestGeometryMissingRouteIsCached(t *testing.T) {
	routes := &fakeRouteStore{err: store.ErrNotFound}
	s := New(routes, true)

	pos := model.Location{Latitude: 14.605, Longitude: 121.01}
	s.Snap(context.Background(), "r1", pos)
	s.Snap(context.Background(), "r1", pos)
	assert.EqualValues(t, 1, atomic.LoadInt32(&routes.calls))
}

func TestGeometryStaleEntryRefreshes(t *testing.T) {
	routes := &fakeRouteStore{points: straightRoute}
	s := New(routes, true)
	s.ttl = 10 * time.Millisecond

	pos := model.Location{Latitude: 14.605, Longitude: 121.01}
	s.Snap(context.Background(), "r1", pos)
	time.Sleep(20 * time.Millisecond)
	s.Snap(context.Background(), "r1", pos)

	assert.EqualValues(t, 2, atomic.LoadInt32(&routes.calls))
}

func TestGeometrySingleFlight(t *testing.T) {
	routes := &fakeRouteStore{points: straightRoute, delay: 20 * time.Millisecond}
	s := New(routes, true)

	pos := model.Location{Latitude: 14.605, Longitude: 121.01}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Snap(context.Background(), "r1", pos)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&routes.calls))
}
