package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appinventory "github.com/wms/backend/internal/application/inventory"
	appreplenishment "github.com/wms/backend/internal/application/replenishment"
	"github.com/wms/backend/internal/interfaces/http/middleware"
)

// DraftReceivedRequest reports delivered goods for a purchase draft
type DraftReceivedRequest struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,gt=0"`
}

// OrdersHandler handles callbacks from the purchasing system about the
// drafts the replenishment engine created
type OrdersHandler struct {
	BaseHandler
	inventory *appinventory.Service
	engine    *appreplenishment.Engine
}

// NewOrdersHandler creates an orders callback handler
func NewOrdersHandler(inventory *appinventory.Service, engine *appreplenishment.Engine, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		BaseHandler: NewBaseHandler(logger),
		inventory:   inventory,
		engine:      engine,
	}
}

// DraftReceived handles POST /purchase-drafts/:draftID/received. The
// delivered amount lands in overstock and the incoming counter drops;
// the resulting change event closes the guarding episode.
func (h *OrdersHandler) DraftReceived(c *gin.Context) {
	var req DraftReceivedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	err := h.inventory.HandleDraftReceived(c.Request.Context(),
		middleware.GetOrganizationID(c), req.ItemID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// DraftCancelled handles POST /purchase-drafts/:draftID/cancelled,
// cancelling the episode so the item is eligible for a new draft
func (h *OrdersHandler) DraftCancelled(c *gin.Context) {
	err := h.engine.HandleDraftCancelled(c.Request.Context(),
		middleware.GetOrganizationID(c), c.Param("draftID"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListOpenEpisodes handles GET /replenishment/episodes
func (h *OrdersHandler) ListOpenEpisodes(c *gin.Context) {
	episodes, err := h.engine.ListOpenEpisodes(c.Request.Context(), middleware.GetOrganizationID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, episodes)
}
