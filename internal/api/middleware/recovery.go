package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/bhandras/agbridge/internal/logger"
	"github.com/bhandras/agbridge/pkg/types"
	"github.com/gin-gonic/gin"
)

// RecoveryMiddleware turns a handler panic into a 500 response and keeps the
// process running.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Errorf("[%s] %s panicked: %v\n%s", c.Request.Method, c.Request.URL.Path, recovered, debug.Stack())
		c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{Error: "internal_error"})
	})
}
