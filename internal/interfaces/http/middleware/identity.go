package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wms/backend/internal/interfaces/http/dto"
)

// Header names for the identity propagated by the gateway
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderOrganizationID = "X-Organization-ID"
	HeaderActorID        = "X-Actor-ID"
)

// RequestID assigns each request an ID, honoring one set by the gateway
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

// Identity resolves the organization and actor from gateway headers.
// Authentication happens upstream; this service trusts the forwarded
// identity and only rejects requests that arrive without one.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgIDStr := c.GetHeader(HeaderOrganizationID)
		if orgIDStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse("MISSING_ORGANIZATION", "Organization header is required", c.GetString("request_id")))
			return
		}
		orgID, err := uuid.Parse(orgIDStr)
		if err != nil || orgID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "Organization header is not a valid UUID", c.GetString("request_id")))
			return
		}
		c.Set("organization_id", orgID)

		if actorIDStr := c.GetHeader(HeaderActorID); actorIDStr != "" {
			if actorID, err := uuid.Parse(actorIDStr); err == nil {
				c.Set("actor_id", actorID)
			}
		}
		c.Next()
	}
}

// GetOrganizationID returns the organization resolved by Identity
func GetOrganizationID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get("organization_id"); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// GetActorID returns the acting user, if the gateway forwarded one
func GetActorID(c *gin.Context) *uuid.UUID {
	if v, ok := c.Get("actor_id"); ok {
		if id, ok := v.(uuid.UUID); ok {
			return &id
		}
	}
	return nil
}
