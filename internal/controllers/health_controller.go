package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthController struct {
	started time.Time
}

func NewHealthController(started time.Time) *HealthController {
	return &HealthController{started: started}
}

// Health reports liveness and process uptime in seconds.
func (hc *HealthController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(hc.started).Seconds(),
	})
}
