package worker

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"ridealert/internal/service/broadcast"
	"ridealert/internal/store"
)

// CountsWorker pushes periodic entity totals on the stats channel so
// dashboard clients stay current without polling.
type CountsWorker struct {
	vehicles store.VehicleStore
	users    store.UserStore
	hub      *broadcast.Hub
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewCountsWorker(vehicles store.VehicleStore, users store.UserStore, hub *broadcast.Hub, interval time.Duration) *CountsWorker {
	return &CountsWorker{
		vehicles: vehicles,
		users:    users,
		hub:      hub,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the snapshot loop. Call once.
func (w *CountsWorker) Start() {
	ticker := time.NewTicker(w.interval)
	go func() {
		defer close(w.done)
		defer ticker.Stop()
		for {
			select {
			case <-w.stop:
				return
			case <-ticker.C:
				w.publish()
			}
		}
	}()
	log.Infoln("Counts worker started with interval:", w.interval)
}

func (w *CountsWorker) publish() {
	if w.hub.SubscriberCount(broadcast.StatsTopic) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snapshot, err := CountsSnapshot(ctx, w.vehicles, w.users)
	if err != nil {
		log.Warnf("Counts snapshot failed: %v", err)
		return
	}
	w.hub.Publish(snapshot, broadcast.StatsTopic)
}

// CountsSnapshot builds the stats payload; the websocket endpoint sends the
// same shape on connect.
func CountsSnapshot(ctx context.Context, vehicles store.VehicleStore, users store.UserStore) (map[string]interface{}, error) {
	vehicleCount, err := vehicles.Count(ctx)
	if err != nil {
		return nil, err
	}
	userCount, err := users.Count(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"type":     "counts",
		"vehicles": vehicleCount,
		"users":    userCount,
	}, nil
}

// Stop halts the loop and waits for the in-flight iteration to finish.
func (w *CountsWorker) Stop() {
	close(w.stop)
	<-w.done
	log.Infoln("Counts worker stopped")
}
