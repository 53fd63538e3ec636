package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"autobill/internal/core/apperror"
	appctx "autobill/internal/core/context"
)

// TokenValidator interface for token validation.
type TokenValidator interface {
	ValidateToken(tokenString string) (*appctx.Operator, error)
}

// Auth middleware validates bearer tokens and populates the operator context.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		op, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := appctx.WithOperator(c.Request.Context(), op)
		c.Request = c.Request.WithContext(ctx)
		c.Set("operator_id", op.OperatorID)

		c.Next()
	}
}

// RequireRole middleware checks if the operator has any of roles.
// Requests without an operator pass when auth is disabled.
func RequireRole(enabled bool, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		op := appctx.GetOperator(c.Request.Context())
		if op == nil {
			abortUnauthorized(c, "authentication required")
			return
		}

		for _, required := range roles {
			if slices.Contains(op.Roles, required) {
				c.Next()
				return
			}
		}
		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_roles", roles),
		)
		c.Abort()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
