// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"nedlog/internal/core/apperror"
	"nedlog/pkg/logger"
)

// Recovery turns a panic into a 500 problem body. The stack is logged only.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", rec,
					"stack", string(debug.Stack()),
				)

				err := apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
					WithDetail("request_id", c.GetString(ContextRequestID))
				_ = c.Error(err)
				c.Abort()
				if !c.Writer.Written() {
					writeError(c, err)
				}
			}
		}()
		c.Next()
	}
}
