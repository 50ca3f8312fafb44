package worker

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"ridealert/internal/config"
	"ridealert/internal/service/notify"
)

// ProximitySweeper periodically runs a fleet-wide proximity pass. A failed
// iteration backs off briefly instead of waiting out the full interval.
type ProximitySweeper struct {
	notifier *notify.Notifier
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewProximitySweeper(notifier *notify.Notifier, interval time.Duration) *ProximitySweeper {
	return &ProximitySweeper{
		notifier: notifier,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. Call once.
func (w *ProximitySweeper) Start() {
	ticker := time.NewTicker(w.interval)
	go func() {
		defer close(w.done)
		defer ticker.Stop()
		// First pass right away; the ticker covers the rest.
		w.sweep()
		for {
			select {
			case <-w.stop:
				return
			case <-ticker.C:
				w.sweep()
			}
		}
	}()
	log.Infoln("Proximity sweeper started with interval:", w.interval)
}

func (w *ProximitySweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()
	if _, err := w.notifier.SweepAll(ctx); err != nil {
		log.Warnf("Proximity sweep failed, backing off: %v", err)
		select {
		case <-w.stop:
		case <-time.After(config.SweepBackoff):
		}
	}
}

// Stop halts the loop and waits for the in-flight iteration to finish.
func (w *ProximitySweeper) Stop() {
	close(w.stop)
	<-w.done
	log.Infoln("Proximity sweeper stopped")
}
