package middleware

import (
	"CheckinVoyage/internal/pkg/logger"
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceMiddleware 透传上游的 X-Trace-ID，缺失时本地生成，
// 并回写到响应头方便客户端对账
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(logger.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.TraceIDKey, traceID))
		c.Header("X-Trace-ID", traceID)

		c.Next()
	}
}
