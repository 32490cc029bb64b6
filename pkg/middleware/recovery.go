package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alispeech/streaming-gateway/pkg/apierr"
	"github.com/alispeech/streaming-gateway/pkg/protocol"
)

// RecoveryMiddleware converts a panic in any handler into the sanitized
// HTTP 500 envelope instead of letting gin's default recovery print a raw
// stack trace to the client.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"task_id": protocol.NewID(),
					"result":  "",
					"status":  int(apierr.DefaultServerError),
					"message": "internal server error",
				})
			}
		}()
		c.Next()
	}
}
