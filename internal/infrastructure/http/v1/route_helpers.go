package v1

import (
	"github.com/gin-gonic/gin"
)

// CatalogRouteHandler defines the interface for catalog handlers.
// All catalog handlers must implement these methods.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
// writeGuards run before every mutating route.
//
// Usage:
//
//	handler := handlers.NewProductHandler(base, productService)
//	RegisterCatalogRoutes(catalogs.Group("/products"), handler)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, writeGuards ...gin.HandlerFunc) {
	write := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, writeGuards...), h)
	}

	group.GET("", handler.List)
	group.POST("", write(handler.Create)...)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", write(handler.Update)...)
	group.DELETE("/:id", write(handler.Delete)...)
}
