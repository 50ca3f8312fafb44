package routes

import (
	"time"

	"ridealert/internal/config"
	"ridealert/internal/inference"
	"ridealert/internal/service/broadcast"
	"ridealert/internal/service/corrector"
	"ridealert/internal/service/eta"
	"ridealert/internal/service/notify"
	"ridealert/internal/service/telemetry"
	"ridealert/internal/service/tracking"
	"ridealert/internal/store"
)

// Deps bundles everything the handlers reach into. Built once in main and
// threaded through the router setup.
type Deps struct {
	Cfg       config.Config
	Decoder   *telemetry.Decoder
	Loader    *inference.Loader
	Corrector *corrector.Corrector
	Tracking  *tracking.Service
	ETA       *eta.Estimator
	Notifier  *notify.Notifier
	Hub       *broadcast.Hub
	Vehicles  store.VehicleStore
	Users     store.UserStore
	Started   time.Time
}
