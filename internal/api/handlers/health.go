package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/services"
)

// HealthHandler handles health, readiness, and liveness probes.
type HealthHandler struct {
	services  *services.Container
	logger    *logrus.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(services *services.Container, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		services:  services,
		logger:    logger,
		startTime: time.Now(),
	}
}

// GetHealth reports the health of every backing dependency.
// @Summary Health check
// @Description Get the health status of the API and its dependencies
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *gin.Context) {
	servicesHealth := h.services.Health(c.Request.Context())

	status := "healthy"
	for _, dep := range servicesHealth {
		if depMap, ok := dep.(map[string]interface{}); ok && depMap["status"] == "unhealthy" {
			status = "unhealthy"
			break
		}
	}

	response := models.HealthResponse{
		Status:   status,
		Version:  "1.0.0",
		Uptime:   time.Since(h.startTime).String(),
		Services: servicesHealth,
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, response)
}

// GetReadiness reports whether the process is ready to serve requests,
// which for ZipCase means Redis (the only backing dependency) is reachable.
// @Summary Readiness check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	servicesHealth := h.services.Health(c.Request.Context())

	ready := true
	issues := make([]string, 0)
	if redisHealth, ok := servicesHealth["redis"].(map[string]interface{}); ok {
		if redisHealth["status"] == "unhealthy" {
			ready = false
			issues = append(issues, "redis is unhealthy")
		}
	}

	response := gin.H{"ready": ready, "services": servicesHealth}
	if len(issues) > 0 {
		response["issues"] = issues
	}

	httpStatus := http.StatusOK
	if !ready {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, response)
}

// GetLiveness reports that the process is alive and responding.
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/live [get]
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"alive":  true,
		"uptime": time.Since(h.startTime).String(),
	})
}
