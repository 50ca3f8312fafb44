package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"ridealert/internal/model"
	"ridealert/internal/store"
)

// SetupUserHandlers registers the rider location endpoint
func SetupUserHandlers(router *gin.RouterGroup, deps *Deps) {
	userGroup := router.Group("/users")

	userGroup.PUT("/:id/location", func(c *gin.Context) { UpdateUserLocation(c, deps) })
}

// UpdateUserLocation stores a rider's position and immediately runs the
// proximity pass for their fleet, so a rider walking into range of a parked
// vehicle gets alerted without waiting for the next sweep tick.
func UpdateUserLocation(c *gin.Context, deps *Deps) {
	id := c.Param("id")

	var loc model.Location
	if err := c.ShouldBindJSON(&loc); err != nil || !loc.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location"})
		return
	}

	user, err := deps.Users.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		log.Errorf("User lookup failed for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User lookup failed"})
		return
	}

	if err := deps.Users.UpdateLocation(c.Request.Context(), id, loc); err != nil {
		log.Errorf("User location update failed for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update location"})
		return
	}
	user.Location = &loc

	stats := deps.Notifier.SweepUser(c.Request.Context(), user)

	c.JSON(http.StatusOK, gin.H{
		"updated":       true,
		"checks":        stats.Checks,
		"notifications": stats.Notifications,
	})
}
