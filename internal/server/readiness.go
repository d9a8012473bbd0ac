package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// @Summary      Readiness
// @Description  Reports whether the datastore is reachable
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /readyz [get]
func (s *Server) Readiness(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
