// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"autobill/internal/core/apperror"
	"autobill/pkg/logger"
)

// Recovery middleware recovers from panics and returns 500 error.
// Logs stack trace but never exposes internal details to client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
				)

				// A panic unwinds past ErrorHandler, so the body is written here.
				_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", err)))
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"code":    apperror.CodeInternal,
						"message": "Internal server error",
						"details": map[string]any{
							"request_id": c.GetString("request_id"),
						},
					})
					return
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
