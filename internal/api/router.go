package api

import (
	routes "ridealert/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, deps *routes.Deps) {
	// API group
	api := r.Group("/api")

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""), deps)

	// Setup correction pipeline handlers
	routes.SetupPredictHandlers(api, deps)

	// Setup vehicle and rider handlers
	routes.SetupVehicleHandlers(api, deps)
	routes.SetupUserHandlers(api, deps)

	// Setup realtime channels
	routes.SetupWSHandlers(r.Group(""), deps)
}
