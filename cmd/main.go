package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"ridealert/internal/api"
	routes "ridealert/internal/api/handlers"
	"ridealert/internal/config"
	"ridealert/internal/inference"
	"ridealert/internal/mongo"
	"ridealert/internal/redis"
	"ridealert/internal/service/broadcast"
	"ridealert/internal/service/corrector"
	"ridealert/internal/service/eta"
	"ridealert/internal/service/notify"
	"ridealert/internal/service/routesnap"
	"ridealert/internal/service/telemetry"
	"ridealert/internal/service/tracking"
	"ridealert/internal/store"
	"ridealert/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	configureLogging(cfg)

	// Initialize database and cache
	db := initializeDatabaseAndCache(cfg)
	defer mongo.Close()
	defer redis.Close()

	// Build services
	deps := buildServices(cfg, db)

	// Start background model loading before the first device reports
	deps.Loader.Start()

	// Start workers
	scheduler := startWorkers(cfg, deps)
	defer scheduler.StopAll()

	// Setup and run API server
	runAPIServer(cfg, deps)
}

func configureLogging(cfg config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func initializeDatabaseAndCache(cfg config.Config) *mongodriver.Database {
	// Initialize MongoDB
	db := mongo.Init(cfg.DBUrl, cfg.DBName)

	// Initialize Redis
	redis.Init(cfg.RedisUrl)

	return db
}

func buildServices(cfg config.Config, db *mongodriver.Database) *routes.Deps {
	key, err := cfg.TelemetryKeyBytes()
	if err != nil {
		log.Fatalf("Invalid telemetry key: %v", err)
	}
	decoder, err := telemetry.NewDecoder(key)
	if err != nil {
		log.Fatalf("Failed to build telemetry decoder: %v", err)
	}

	vehicles := store.NewMongoVehicleStore(db)
	users := store.NewMongoUserStore(db)
	trackingStore := store.NewMongoTrackingStore(db)
	notifications := store.NewMongoNotificationStore(db)
	routeStore := store.NewMongoRouteStore(db)

	hub := broadcast.NewHub()
	loader := inference.NewLoader(inference.NewHTTPPredictor(cfg.ModelUrl))
	snapper := routesnap.New(routeStore, cfg.RouteSnapEnabled)

	notifier := notify.New(
		users, vehicles, notifications,
		notify.RedisCooldown{},
		notify.NewHTTPGateway(cfg.PushUrl, cfg.PushServerKey),
		hub,
		cfg.NotifCooldown(),
	)

	return &routes.Deps{
		Cfg:       cfg,
		Decoder:   decoder,
		Loader:    loader,
		Corrector: corrector.New(loader),
		Tracking:  tracking.New(vehicles, trackingStore, snapper, hub),
		ETA:       eta.New(vehicles, trackingStore),
		Notifier:  notifier,
		Hub:       hub,
		Vehicles:  vehicles,
		Users:     users,
		Started:   time.Now(),
	}
}

func startWorkers(cfg config.Config, deps *routes.Deps) *worker.Scheduler {
	scheduler := worker.NewScheduler(
		worker.NewProximitySweeper(deps.Notifier, cfg.SweepInterval()),
		worker.NewCountsWorker(deps.Vehicles, deps.Users, deps.Hub, cfg.CountsInterval()),
	)
	scheduler.StartAll()
	return scheduler
}

func runAPIServer(cfg config.Config, deps *routes.Deps) {
	// Initialize Gin router
	r := gin.Default()

	// Configure API routes
	api.SetupRouter(r, deps)

	srv := &http.Server{Addr: cfg.Port, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	log.Infoln("Server listening on", cfg.Port)

	// Block until interrupted, then drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infoln("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server shutdown: %v", err)
	}
}
