package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"ridealert/internal/service/broadcast"
	"ridealert/internal/worker"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Clients connect from mobile apps and dashboards on other origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SetupWSHandlers registers the realtime channels
func SetupWSHandlers(router *gin.RouterGroup, deps *Deps) {
	wsGroup := router.Group("/ws")

	wsGroup.GET("/vehicles/:fleet_id", func(c *gin.Context) { FleetWS(c, deps) })
	wsGroup.GET("/location/:vehicle_id", func(c *gin.Context) { LocationWS(c, deps) })
	wsGroup.GET("/notifications/:user_id", func(c *gin.Context) { NotificationsWS(c, deps) })
	wsGroup.GET("/eta/:vehicle_id", func(c *gin.Context) { ETAWS(c, deps) })
	wsGroup.GET("/stats/count", func(c *gin.Context) { StatsWS(c, deps) })
}

// serveWS upgrades the request, subscribes the connection under topic,
// sends the initial snapshot and then parks in the read loop until the
// client goes away. "ping" text frames are answered "pong"; everything
// else from the client is discarded.
func serveWS(c *gin.Context, hub *broadcast.Hub, topic string, snapshot interface{}) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	// All writes to this socket (snapshot, hub publishes, pong) go through
	// the serializing wrapper.
	sc := broadcast.NewSafeConn(conn)
	hub.Subscribe(sc, topic)
	defer func() {
		hub.Drop(sc)
		conn.Close()
	}()

	if snapshot != nil {
		if err := sc.WriteJSON(snapshot); err != nil {
			return
		}
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if string(msg) == "ping" {
			if err := sc.WriteText([]byte("pong")); err != nil {
				return
			}
		}
	}
}

// FleetWS streams the fleet's vehicle list, starting with the current one.
func FleetWS(c *gin.Context, deps *Deps) {
	fleetID := c.Param("fleet_id")

	snapshot := gin.H{"type": "vehicle_list", "fleet_id": fleetID}
	vehicles, err := deps.Vehicles.ListByFleet(c.Request.Context(), fleetID)
	if err != nil {
		log.Warnf("Fleet snapshot query failed for %s: %v", fleetID, err)
	} else {
		snapshot["vehicles"] = vehicles
	}
	serveWS(c, deps.Hub, broadcast.FleetTopic(fleetID), snapshot)
}

// LocationWS streams one vehicle's corrected fixes.
func LocationWS(c *gin.Context, deps *Deps) {
	vehicleID := c.Param("vehicle_id")

	var snapshot interface{} = gin.H{"type": "connected", "vehicle_id": vehicleID}
	if vehicle, err := deps.Vehicles.FindByID(c.Request.Context(), vehicleID); err == nil && vehicle.HasLocation() {
		snapshot = gin.H{
			"type":       "location_update",
			"vehicle_id": vehicle.ID,
			"location":   vehicle.Location,
		}
	}
	serveWS(c, deps.Hub, broadcast.VehicleTopic(vehicleID), snapshot)
}

// NotificationsWS streams proximity alerts for one rider.
func NotificationsWS(c *gin.Context, deps *Deps) {
	userID := c.Param("user_id")
	serveWS(c, deps.Hub, broadcast.UserTopic(userID),
		gin.H{"type": "connected", "user_id": userID})
}

// ETAWS streams eta_update messages published after each calculation for
// the vehicle.
func ETAWS(c *gin.Context, deps *Deps) {
	vehicleID := c.Param("vehicle_id")
	serveWS(c, deps.Hub, broadcast.ETATopic(vehicleID),
		gin.H{"type": "connected", "vehicle_id": vehicleID})
}

// StatsWS streams periodic entity totals, starting with a fresh snapshot.
func StatsWS(c *gin.Context, deps *Deps) {
	var snapshot interface{}
	if counts, err := worker.CountsSnapshot(c.Request.Context(), deps.Vehicles, deps.Users); err != nil {
		log.Warnf("Counts snapshot failed: %v", err)
	} else {
		snapshot = counts
	}
	serveWS(c, deps.Hub, broadcast.StatsTopic, snapshot)
}
