package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"ridealert/internal/inference"
	"ridealert/internal/service/corrector"
	"ridealert/internal/service/telemetry"
)

// SetupPredictHandlers registers the correction pipeline endpoints
func SetupPredictHandlers(router *gin.RouterGroup, deps *Deps) {
	router.POST("/predict", func(c *gin.Context) { Predict(c, deps) })
	router.GET("/predict/status", func(c *gin.Context) { PredictStatus(c, deps) })
	router.POST("/models/reload", func(c *gin.Context) { ReloadModels(c, deps) })
}

type predictRequest struct {
	EncryptedData string `json:"encrypted_data" binding:"required"`
}

// Predict runs one full correction cycle: decrypt, validate, infer, snap,
// write back. The status code distinguishes every failure class so devices
// can tell a bad envelope from a model that is still warming up.
func Predict(c *gin.Context, deps *Deps) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "encrypted_data is required"})
		return
	}

	reading, err := deps.Decoder.Decode(req.EncryptedData)
	if err != nil {
		switch {
		case errors.Is(err, telemetry.ErrDecryption):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to decrypt data"})
		case errors.Is(err, telemetry.ErrSchema):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			log.Errorf("Unexpected decode failure: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	result, err := deps.Corrector.Correct(c.Request.Context(), reading)
	if err != nil {
		if errors.Is(err, inference.ErrModelNotReady) {
			status := deps.Loader.Status()
			switch status.State {
			case inference.LoadError:
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"error":  "Model loading failed",
					"detail": status.Error,
				})
			default:
				// Covers not_started too: kick the load off and answer
				// retry-later.
				deps.Loader.Start()
				c.JSON(http.StatusAccepted, gin.H{
					"status":  "loading",
					"message": "Models are being loaded, please retry shortly",
				})
			}
			return
		}
		log.Errorf("Correction failed for device %s: %v", reading.DeviceID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction failed"})
		return
	}

	pos, _, err := deps.Tracking.Record(c.Request.Context(), reading, result)
	if err != nil {
		log.Errorf("Location write-back failed for device %s: %v", reading.DeviceID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store location"})
		return
	}

	resp := gin.H{
		"latitude":  pos.Latitude,
		"longitude": pos.Longitude,
		"snapped":   pos.Snapped,
	}
	if deps.Cfg.GroundTruthCompare && reading.GroundTruth != nil {
		resp["ground_truth_comparison"] = gin.H{
			"ground_truth": reading.GroundTruth,
			"error_meters": corrector.GroundTruthError(pos.Location(), *reading.GroundTruth),
		}
	}
	c.JSON(http.StatusOK, resp)
}

// PredictStatus reports the model loader state without blocking on a load
// in progress.
func PredictStatus(c *gin.Context, deps *Deps) {
	c.JSON(http.StatusOK, deps.Loader.Status())
}

// ReloadModels resets the loader and starts a fresh load attempt.
func ReloadModels(c *gin.Context, deps *Deps) {
	deps.Loader.Reset()
	deps.Loader.Start()
	c.JSON(http.StatusOK, gin.H{
		"status":    "reloading",
		"timestamp": time.Now().UTC(),
	})
}
