package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// WelcomeMessage is served at the root path.
const WelcomeMessage = "Welcome to the Flask API!"

// HealthResponse reports service liveness
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Home handles GET /
func Home(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: WelcomeMessage})
}

// Health returns a handler for GET /health reporting the given service name.
func Health(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:  "healthy",
			Service: service,
		})
	}
}
