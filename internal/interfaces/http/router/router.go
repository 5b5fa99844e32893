package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/infrastructure/config"
	"github.com/wms/backend/internal/infrastructure/logger"
	"github.com/wms/backend/internal/interfaces/http/handler"
	"github.com/wms/backend/internal/interfaces/http/middleware"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Inventory *handler.InventoryHandler
	Location  *handler.LocationHandler
	Orders    *handler.OrdersHandler
	Stream    *handler.StreamHandler
	System    *handler.SystemHandler
}

// New builds the gin engine with all routes and middleware mounted
func New(cfg *config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		engine.Use(corsMiddleware(cfg.HTTP.CORSAllowOrigins))
	}

	engine.GET("/health", h.System.Health)

	api := engine.Group("/api/v1")
	api.Use(middleware.Identity())
	{
		items := api.Group("/items")
		{
			items.POST("", h.Inventory.Create)
			items.GET("", h.Inventory.List)
			items.GET("/sku/:sku", h.Inventory.GetBySKU)
			items.GET("/:id", h.Inventory.Get)
			items.PUT("/:id", h.Inventory.Update)
			items.DELETE("/:id", h.Inventory.Delete)
			items.POST("/:id/movements", h.Inventory.ApplyMovement)
			items.GET("/:id/movements", h.Inventory.ListMovements)
		}

		locations := api.Group("/locations")
		{
			locations.PUT("", h.Location.Upsert)
			locations.GET("", h.Location.List)
			locations.GET("/:code", h.Location.GetByCode)
			locations.GET("/:code/parts", h.Location.Decode)
			locations.DELETE("/:id", h.Location.Delete)
		}

		drafts := api.Group("/purchase-drafts")
		{
			drafts.POST("/:draftID/received", h.Orders.DraftReceived)
			drafts.POST("/:draftID/cancelled", h.Orders.DraftCancelled)
		}

		api.GET("/replenishment/episodes", h.Orders.ListOpenEpisodes)
		api.GET("/stream/items", h.Stream.Items)
	}

	return engine
}

func corsMiddleware(allowOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowOrigins))
	wildcard := false
	for _, origin := range allowOrigins {
		if origin == "*" {
			wildcard = true
		}
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (wildcard || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers",
				"Content-Type, X-Request-ID, X-Organization-ID, X-Actor-ID")
			c.Header("Access-Control-Max-Age", "3600")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
