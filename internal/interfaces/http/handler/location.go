package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	applocation "github.com/wms/backend/internal/application/location"
	"github.com/wms/backend/internal/interfaces/http/dto"
	"github.com/wms/backend/internal/interfaces/http/middleware"
)

// LocationHandler handles storage location requests
type LocationHandler struct {
	BaseHandler
	service *applocation.Service
}

// NewLocationHandler creates a location handler
func NewLocationHandler(service *applocation.Service, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// Upsert handles PUT /locations
func (h *LocationHandler) Upsert(c *gin.Context) {
	var req applocation.UpsertLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	loc, err := h.service.Upsert(c.Request.Context(), middleware.GetOrganizationID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, loc)
}

// GetByCode handles GET /locations/:code
func (h *LocationHandler) GetByCode(c *gin.Context) {
	loc, err := h.service.GetByCode(c.Request.Context(),
		middleware.GetOrganizationID(c), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, loc)
}

// List handles GET /locations
func (h *LocationHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	locs, err := h.service.List(c.Request.Context(),
		middleware.GetOrganizationID(c), req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, locs)
}

// Delete handles DELETE /locations/:id
func (h *LocationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.GetOrganizationID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Decode handles GET /locations/:code/parts, splitting a canonical code
// into its five address parts without touching storage
func (h *LocationHandler) Decode(c *gin.Context) {
	parts, err := h.service.Decode(c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, parts)
}
