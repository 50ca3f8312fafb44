// Package routesnap snaps corrected positions onto declared route geometry,
// guarding the route store behind a time-bounded cache.
package routesnap

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"ridealert/internal/config"
	"ridealert/internal/model"
	"ridealert/internal/store"
	"ridealert/internal/util"
)

// entry is one cached route geometry. A failed load is cached too (nil
// points) so repeated misses do not hammer the store.
type entry struct {
	points    [][2]float64
	fetchedAt time.Time
}

// Snapper owns the per-route geometry cache. Refreshes are single-flight:
// concurrent callers past the freshness window trigger exactly one store
// read.
type Snapper struct {
	enabled bool
	routes  store.RouteStore
	ttl     time.Duration

	mu    sync.RWMutex
	cache map[string]*entry
}

func New(routes store.RouteStore, enabled bool) *Snapper {
	return &Snapper{
		enabled: enabled,
		routes:  routes,
		ttl:     config.RouteCacheTTL,
		cache:   make(map[string]*entry),
	}
}

// Enabled reports whether snapping is feature-flagged on.
func (s *Snapper) Enabled() bool {
	return s.enabled
}

// Snap projects the position onto the vehicle's route polyline. When
// snapping is disabled, the route is unset, or no geometry is cached, the
// input passes through unchanged with Snapped=false.
func (s *Snapper) Snap(ctx context.Context, routeID string, pos model.Location) model.CorrectedPosition {
	out := model.CorrectedPosition{Latitude: pos.Latitude, Longitude: pos.Longitude}
	if !s.enabled || routeID == "" {
		return out
	}

	points := s.geometry(ctx, routeID)
	if len(points) < 2 {
		return out
	}

	bestLat, bestLng := pos.Latitude, pos.Longitude
	bestDist := -1.0
	for i := 0; i+1 < len(points); i++ {
		lat, lng, dist := util.NearestOnSegment(
			pos.Latitude, pos.Longitude,
			points[i][0], points[i][1],
			points[i+1][0], points[i+1][1],
		)
		if bestDist < 0 || dist < bestDist {
			bestLat, bestLng, bestDist = lat, lng, dist
		}
	}

	out.Latitude = bestLat
	out.Longitude = bestLng
	out.Snapped = true
	return out
}

// geometry returns the cached polyline for the route, refreshing it when
// stale. Freshness is re-checked under the lock (double-checked) so only
// one caller performs the load.
func (s *Snapper) geometry(ctx context.Context, routeID string) [][2]float64 {
	s.mu.RLock()
	e, ok := s.cache[routeID]
	if ok && time.Since(e.fetchedAt) < s.ttl {
		points := e.points
		s.mu.RUnlock()
		return points
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the write lock: another caller may have refreshed
	// while this one waited, in which case its result is reused.
	if e, ok := s.cache[routeID]; ok && time.Since(e.fetchedAt) < s.ttl {
		return e.points
	}

	points, err := s.routes.Geometry(ctx, routeID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warnf("Route geometry load failed for %s: %v", routeID, err)
		}
		// Cache the miss with a fresh timestamp to avoid repeated loads.
		points = nil
	}
	s.cache[routeID] = &entry{points: points, fetchedAt: time.Now()}
	return points
}
