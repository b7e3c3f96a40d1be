package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/stream-master-go/internal/app"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	tracker *app.Tracker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(tracker *app.Tracker) *HealthHandler {
	return &HealthHandler{
		tracker: tracker,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Jobs    struct {
		Active int `json:"active"`
		Total  int `json:"total"`
	} `json:"jobs"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}
	for _, job := range h.tracker.List() {
		response.Jobs.Total++
		if job.IsActive() {
			response.Jobs.Active++
		}
	}

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
