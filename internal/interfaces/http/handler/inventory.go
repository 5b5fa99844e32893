package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appinventory "github.com/wms/backend/internal/application/inventory"
	"github.com/wms/backend/internal/interfaces/http/dto"
	"github.com/wms/backend/internal/interfaces/http/middleware"
)

// InventoryHandler handles inventory item and stock movement requests
type InventoryHandler struct {
	BaseHandler
	service *appinventory.Service
}

// NewInventoryHandler creates an inventory handler
func NewInventoryHandler(service *appinventory.Service, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// Create handles POST /items
func (h *InventoryHandler) Create(c *gin.Context) {
	var req appinventory.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	item, err := h.service.CreateItem(c.Request.Context(),
		middleware.GetOrganizationID(c), middleware.GetActorID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// Get handles GET /items/:id
func (h *InventoryHandler) Get(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, err)
		return
	}

	item, err := h.service.GetItem(c.Request.Context(), middleware.GetOrganizationID(c), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// GetBySKU handles GET /items/sku/:sku
func (h *InventoryHandler) GetBySKU(c *gin.Context) {
	item, err := h.service.GetItemBySKU(c.Request.Context(),
		middleware.GetOrganizationID(c), c.Param("sku"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// List handles GET /items
func (h *InventoryHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	result, err := h.service.ListItems(c.Request.Context(),
		middleware.GetOrganizationID(c), req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Update handles PUT /items/:id
func (h *InventoryHandler) Update(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, err)
		return
	}

	var req appinventory.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	item, err := h.service.UpdateItem(c.Request.Context(),
		middleware.GetOrganizationID(c), itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete handles DELETE /items/:id
func (h *InventoryHandler) Delete(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, err)
		return
	}

	if err := h.service.DeleteItem(c.Request.Context(),
		middleware.GetOrganizationID(c), itemID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ApplyMovement handles POST /items/:id/movements
func (h *InventoryHandler) ApplyMovement(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, err)
		return
	}

	var req appinventory.ApplyMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	movement, err := h.service.ApplyMovement(c.Request.Context(),
		middleware.GetOrganizationID(c), itemID, middleware.GetActorID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// ListMovements handles GET /items/:id/movements. The optional "since"
// query bounds the window to entries recorded at or after the given
// RFC 3339 timestamp.
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, err)
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		since, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			h.BadRequest(c, err)
			return
		}
	}

	result, err := h.service.ListMovements(c.Request.Context(),
		middleware.GetOrganizationID(c), itemID, since, req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
