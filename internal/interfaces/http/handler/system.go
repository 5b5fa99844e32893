package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/application/realtime"
	"github.com/wms/backend/internal/infrastructure/persistence"
)

// SystemHandler handles health and readiness requests
type SystemHandler struct {
	BaseHandler
	db      *persistence.Database
	hub     *realtime.Hub
	version string
}

// NewSystemHandler creates a system handler
func NewSystemHandler(db *persistence.Database, hub *realtime.Hub, version string, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		BaseHandler: NewBaseHandler(logger),
		db:          db,
		hub:         hub,
		version:     version,
	}
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if err := h.db.Ping(); err != nil {
		h.logger.Error("database ping failed", zap.Error(err))
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":           status,
		"version":          h.version,
		"realtime_clients": h.hub.ClientCount(),
	})
}
