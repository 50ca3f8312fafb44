package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupMainHandlers registers the health and status endpoints
func SetupMainHandlers(router *gin.RouterGroup, deps *Deps) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/status", func(c *gin.Context) { ServerStatus(c, deps) })
}

// ServerStatus aggregates the pieces a dashboard probes: uptime, model
// loader state and the background workers expected to be running.
func ServerStatus(c *gin.Context, deps *Deps) {
	c.JSON(http.StatusOK, gin.H{
		"server":         "running",
		"uptime_seconds": int64(time.Since(deps.Started).Seconds()),
		"model":          deps.Loader.Status(),
		"workers": gin.H{
			"proximity_sweeper": "running",
			"counts":            "running",
		},
	})
}
