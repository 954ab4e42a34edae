package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthController represents a controller for health check endpoints
type HealthController struct{}

func NewHealthController() *HealthController {
	return &HealthController{}
}

// Health handles the health check endpoint and returns a 200 OK response
// with the standard envelope indicating the service is healthy
func (ctrl HealthController) Health(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"status": "ok"}, "healthy")
}
