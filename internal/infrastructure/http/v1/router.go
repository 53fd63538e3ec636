// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autobill/internal/domain/catalogs/customer"
	"autobill/internal/domain/catalogs/product"
	"autobill/internal/domain/catalogs/taxcategory"
	"autobill/internal/infrastructure/http/v1/handlers"
	"autobill/internal/infrastructure/http/v1/middleware"
	"autobill/pkg/logger"
)

// RoleAdmin may delete invoices and force recomputation.
const RoleAdmin = "admin"

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Pool backs the health endpoints
	Pool handlers.Pinger

	// TokenValidator enables bearer auth on /api/v1 when set
	TokenValidator middleware.TokenValidator

	// Metrics records request latency when set
	Metrics middleware.RequestObserver

	// MetricsHandler serves /metrics when set
	MetricsHandler http.Handler

	TaxCategories handlers.CatalogService[*taxcategory.TaxCategory]
	Products      handlers.CatalogService[*product.Product]
	Customers     handlers.CatalogService[*customer.Customer]
	Vehicles      handlers.VehicleService
	Invoices      handlers.InvoiceService
	Renderer      handlers.BillRenderer

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	router.Use(middleware.ErrorHandler())

	if cfg.Pool != nil {
		healthHandler := handlers.NewHealthHandler(cfg.Pool)
		health := router.Group("/health")
		{
			health.GET("/live", healthHandler.Live)
			health.GET("/ready", healthHandler.Ready)
			health.GET("/info", healthHandler.Info)
		}
	}

	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	authEnabled := cfg.TokenValidator != nil
	v1 := router.Group("/api/v1")
	if authEnabled {
		v1.Use(middleware.Auth(cfg.TokenValidator))
	}
	adminOnly := middleware.RequireRole(authEnabled, RoleAdmin)

	registerCatalogRoutes(v1, cfg)
	registerInvoiceRoutes(v1, cfg, adminOnly)

	return router
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")
	base := handlers.NewBaseHandler()

	if cfg.TaxCategories != nil {
		RegisterCatalogRoutes(catalogs.Group("/tax-categories"), handlers.NewTaxCategoryHandler(base, cfg.TaxCategories))
	}
	if cfg.Products != nil {
		RegisterCatalogRoutes(catalogs.Group("/products"), handlers.NewProductHandler(base, cfg.Products))
	}
	if cfg.Customers != nil {
		RegisterCatalogRoutes(catalogs.Group("/customers"), handlers.NewCustomerHandler(base, cfg.Customers))
	}
	if cfg.Vehicles != nil {
		vehicles := handlers.NewVehicleHandler(base, cfg.Vehicles)
		RegisterCatalogRoutes(catalogs.Group("/vehicles"), vehicles)
		catalogs.GET("/customers/:id/vehicles", vehicles.ListByCustomer)
	}
}

// registerInvoiceRoutes registers invoice, bill and report endpoints.
func registerInvoiceRoutes(rg *gin.RouterGroup, cfg RouterConfig, adminOnly gin.HandlerFunc) {
	if cfg.Invoices == nil {
		return
	}

	h := handlers.NewInvoiceHandler(handlers.NewBaseHandler(), handlers.InvoiceHandlerConfig{
		Service:   cfg.Invoices,
		Customers: cfg.Customers,
		Vehicles:  cfg.Vehicles,
		Renderer:  cfg.Renderer,
	})

	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.Create)
		invoices.GET("", h.List)
		invoices.GET("/:id", h.Get)
		invoices.DELETE("/:id", adminOnly, h.Delete)
		invoices.PUT("/:id/status", h.SetStatus)
		invoices.POST("/:id/recompute", adminOnly, h.Recompute)

		invoices.POST("/:id/items", h.AddItem)
		invoices.PUT("/:id/items/:itemId", h.UpdateItem)
		invoices.DELETE("/:id/items/:itemId", h.RemoveItem)

		invoices.GET("/:id/bill", h.Bill)
		if cfg.Renderer != nil {
			invoices.GET("/:id/pdf", h.PDF)
			invoices.GET("/:id/pdf/goods", h.GoodsPDF)
			invoices.GET("/:id/pdf/services", h.ServicesPDF)
		}
	}

	rg.GET("/reports/bills", h.BillReport)
}
