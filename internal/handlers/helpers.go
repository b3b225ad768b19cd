package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-backend/internal/observability"
	"chat-backend/internal/telemetry"
)

const requestIDContextKey = "request_id"

const maxPageSize = 100

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func eventMeta(c *gin.Context) telemetry.EventMeta {
	meta := telemetry.EventMeta{
		RequestID: requestIDFromContext(c),
		ClientIP:  observability.IPFromRequest(c.Request),
	}
	if userID := c.GetInt("userID"); userID != 0 {
		value := int64(userID)
		meta.UserID = &value
	}
	return meta
}

// paginationParams reads page/page_size query params, clamped to sane bounds.
func paginationParams(c *gin.Context, defaultSize int) (limit int, offset int) {
	size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultSize)))
	if err != nil || size < 1 {
		size = defaultSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	return size, (page - 1) * size
}
