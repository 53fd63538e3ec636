package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"autobill/internal/core/id"
	"autobill/internal/domain/catalogs/customer"
	"autobill/internal/domain/catalogs/product"
	"autobill/internal/domain/catalogs/taxcategory"
	"autobill/internal/domain/catalogs/vehicle"
	"autobill/internal/infrastructure/http/v1/dto"
)

// TaxCategoryHandler handles tax category requests.
type TaxCategoryHandler = CatalogHandler[*taxcategory.TaxCategory, dto.CreateTaxCategoryRequest, dto.UpdateTaxCategoryRequest]

// NewTaxCategoryHandler creates a new tax category handler.
func NewTaxCategoryHandler(base *BaseHandler, service CatalogService[*taxcategory.TaxCategory]) *TaxCategoryHandler {
	return NewCatalogHandler(base, CatalogHandlerConfig[*taxcategory.TaxCategory, dto.CreateTaxCategoryRequest, dto.UpdateTaxCategoryRequest]{
		Service: service,
		MapCreateDTO: func(req *dto.CreateTaxCategoryRequest) (*taxcategory.TaxCategory, error) {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req *dto.UpdateTaxCategoryRequest, existing *taxcategory.TaxCategory) (*taxcategory.TaxCategory, error) {
			return req.ApplyTo(existing)
		},
		MapToDTO: func(c *taxcategory.TaxCategory) any {
			return dto.FromTaxCategory(c)
		},
	})
}

// ProductHandler handles product requests.
type ProductHandler = CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service CatalogService[*product.Product]) *ProductHandler {
	return NewCatalogHandler(base, CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
		Service: service,
		MapCreateDTO: func(req *dto.CreateProductRequest) (*product.Product, error) {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req *dto.UpdateProductRequest, existing *product.Product) (*product.Product, error) {
			return req.ApplyTo(existing)
		},
		MapToDTO: func(p *product.Product) any {
			return dto.FromProduct(p)
		},
	})
}

// CustomerHandler handles customer requests.
type CustomerHandler = CatalogHandler[*customer.Customer, dto.CreateCustomerRequest, dto.UpdateCustomerRequest]

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(base *BaseHandler, service CatalogService[*customer.Customer]) *CustomerHandler {
	return NewCatalogHandler(base, CatalogHandlerConfig[*customer.Customer, dto.CreateCustomerRequest, dto.UpdateCustomerRequest]{
		Service: service,
		MapCreateDTO: func(req *dto.CreateCustomerRequest) (*customer.Customer, error) {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req *dto.UpdateCustomerRequest, existing *customer.Customer) (*customer.Customer, error) {
			return req.ApplyTo(existing)
		},
		MapToDTO: func(c *customer.Customer) any {
			return dto.FromCustomer(c)
		},
	})
}

// VehicleService adds the per-customer listing to the catalog operations.
type VehicleService interface {
	CatalogService[*vehicle.Vehicle]
	ListByCustomer(ctx context.Context, customerID id.ID) ([]*vehicle.Vehicle, error)
}

// VehicleHandler handles vehicle requests.
type VehicleHandler struct {
	*CatalogHandler[*vehicle.Vehicle, dto.CreateVehicleRequest, dto.UpdateVehicleRequest]
	vehicles VehicleService
}

// NewVehicleHandler creates a new vehicle handler.
func NewVehicleHandler(base *BaseHandler, service VehicleService) *VehicleHandler {
	return &VehicleHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[*vehicle.Vehicle, dto.CreateVehicleRequest, dto.UpdateVehicleRequest]{
			Service: service,
			MapCreateDTO: func(req *dto.CreateVehicleRequest) (*vehicle.Vehicle, error) {
				return req.ToEntity()
			},
			MapUpdateDTO: func(req *dto.UpdateVehicleRequest, existing *vehicle.Vehicle) (*vehicle.Vehicle, error) {
				return req.ApplyTo(existing)
			},
			MapToDTO: func(v *vehicle.Vehicle) any {
				return dto.FromVehicle(v)
			},
		}),
		vehicles: service,
	}
}

// ListByCustomer handles GET /catalog/customers/:id/vehicles.
func (h *VehicleHandler) ListByCustomer(c *gin.Context) {
	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	vehicles, err := h.vehicles.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.VehicleResponse, len(vehicles))
	for i, v := range vehicles {
		items[i] = dto.FromVehicle(v)
	}
	h.OK(c, gin.H{"items": items})
}
