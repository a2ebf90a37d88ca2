package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/japb1998/contacts/internal/dto"
)

// Health liveness probe.
// @Tags HEALTH
// @Summary liveness probe.
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /healthcheck [get]
func Health(started time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now()
		c.JSON(http.StatusOK, dto.HealthResponse{
			Success:   true,
			Message:   "Server is running",
			Timestamp: now.UTC(),
			Uptime:    now.Sub(started).Seconds(),
		})
	}
}
