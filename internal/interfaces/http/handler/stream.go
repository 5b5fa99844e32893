package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/application/realtime"
	"github.com/wms/backend/internal/interfaces/http/middleware"
)

// StreamHandler serves the item change feed over server-sent events
type StreamHandler struct {
	BaseHandler
	hub       *realtime.Hub
	heartbeat time.Duration
}

// NewStreamHandler creates a stream handler
func NewStreamHandler(hub *realtime.Hub, heartbeat time.Duration, logger *zap.Logger) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &StreamHandler{
		BaseHandler: NewBaseHandler(logger),
		hub:         hub,
		heartbeat:   heartbeat,
	}
}

// Items handles GET /stream/items. The first frame is a full snapshot of
// the organization's items; every later frame is one item change carrying
// the full post-change state, so a consumer can rebuild its view from any
// frame onward.
func (h *StreamHandler) Items(c *gin.Context) {
	client, err := h.hub.Register(c.Request.Context(), middleware.GetOrganizationID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer h.hub.Unregister(client.ID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("snapshot", client.Session.Items())
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	c.Stream(func(_ io.Writer) bool {
		select {
		case frame := <-client.Events:
			c.SSEvent("change", string(frame))
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().UTC().Format(time.RFC3339))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
