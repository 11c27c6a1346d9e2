package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/trendharvest/internal/logger"
)

// Recovery turns a handler panic into a logged 500 response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		GetLogger(c).WithField("panic", recovered).Error("Handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":      "Internal server error",
			"request_id": logger.GetRequestID(c.Request.Context()),
		})
	})
}
