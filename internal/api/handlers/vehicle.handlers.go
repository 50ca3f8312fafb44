package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"ridealert/internal/model"
	"ridealert/internal/service/broadcast"
	"ridealert/internal/service/eta"
	"ridealert/internal/store"
)

// SetupVehicleHandlers registers the vehicle query endpoints
func SetupVehicleHandlers(router *gin.RouterGroup, deps *Deps) {
	vehicleGroup := router.Group("/vehicles")

	vehicleGroup.POST("/calculate-eta", func(c *gin.Context) { CalculateETA(c, deps) })
	vehicleGroup.GET("/track/:id", func(c *gin.Context) { TrackVehicle(c, deps) })
}

type etaRequest struct {
	VehicleID    string         `json:"vehicle_id" binding:"required"`
	UserLocation model.Location `json:"user_location" binding:"required"`
}

// CalculateETA answers a rider's on-demand ETA to a vehicle and mirrors the
// result on the vehicle's eta channel.
func CalculateETA(c *gin.Context, deps *Deps) {
	var req etaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vehicle_id and user_location are required"})
		return
	}
	if !req.UserLocation.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user location"})
		return
	}

	estimate, err := deps.ETA.Estimate(c.Request.Context(), req.VehicleID, req.UserLocation)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		case errors.Is(err, eta.ErrNoVehicleLocation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Vehicle location not available"})
		default:
			log.Errorf("ETA calculation failed for vehicle %s: %v", req.VehicleID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ETA calculation failed"})
		}
		return
	}

	deps.Hub.Publish(gin.H{
		"type": "eta_update",
		"eta":  estimate,
	}, broadcast.ETATopic(req.VehicleID))

	c.JSON(http.StatusOK, estimate)
}

// TrackVehicle returns a vehicle's registry view plus its newest tracking
// record when a paired device has reported.
func TrackVehicle(c *gin.Context, deps *Deps) {
	id := c.Param("id")

	vehicle, err := deps.Vehicles.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
			return
		}
		log.Errorf("Vehicle lookup failed for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Vehicle lookup failed"})
		return
	}

	resp := gin.H{"vehicle": vehicle}
	if latest, err := deps.Tracking.Latest(c.Request.Context(), vehicle); err == nil {
		resp["latest"] = latest
	}
	c.JSON(http.StatusOK, resp)
}
