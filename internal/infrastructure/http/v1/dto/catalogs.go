package dto

import (
	"github.com/shopspring/decimal"

	"autobill/internal/core/id"
	"autobill/internal/domain/catalogs/customer"
	"autobill/internal/domain/catalogs/product"
	"autobill/internal/domain/catalogs/taxcategory"
	"autobill/internal/domain/catalogs/vehicle"
)

// --- Tax categories ---

// CreateTaxCategoryRequest is the request body for creating a tax category.
type CreateTaxCategoryRequest struct {
	Label string          `json:"label" binding:"required"`
	Rate  decimal.Decimal `json:"rate"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateTaxCategoryRequest) ToEntity() (*taxcategory.TaxCategory, error) {
	return taxcategory.NewTaxCategory(r.Label, r.Rate), nil
}

// UpdateTaxCategoryRequest is the request body for updating a tax category.
type UpdateTaxCategoryRequest struct {
	Label   string          `json:"label" binding:"required"`
	Rate    decimal.Decimal `json:"rate"`
	Version int             `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateTaxCategoryRequest) ApplyTo(c *taxcategory.TaxCategory) (*taxcategory.TaxCategory, error) {
	c.Label = r.Label
	c.Rate = r.Rate
	c.Version = r.Version
	return c, nil
}

// TaxCategoryResponse is the response body for a tax category.
type TaxCategoryResponse struct {
	BaseResponse
	Label string `json:"label"`
	Rate  string `json:"rate"`
}

// FromTaxCategory creates response DTO from entity.
func FromTaxCategory(c *taxcategory.TaxCategory) TaxCategoryResponse {
	return TaxCategoryResponse{
		BaseResponse: FromBaseCatalog(c.BaseCatalog),
		Label:        c.Label,
		Rate:         Rate(c.Rate),
	}
}

// --- Products ---

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Name          string          `json:"name" binding:"required"`
	HSCode        *string         `json:"hsCode"`
	PriceExclTax  decimal.Decimal `json:"priceExclTax"`
	TaxCategoryID *string         `json:"taxCategoryId"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() (*product.Product, error) {
	categoryID, err := parseOptionalID("taxCategoryId", r.TaxCategoryID)
	if err != nil {
		return nil, err
	}
	p := product.NewProduct(r.Name, r.PriceExclTax)
	p.HSCode = r.HSCode
	p.TaxCategoryID = categoryID
	return p, nil
}

// UpdateProductRequest is the request body for updating a product.
type UpdateProductRequest struct {
	Name          string          `json:"name" binding:"required"`
	HSCode        *string         `json:"hsCode"`
	PriceExclTax  decimal.Decimal `json:"priceExclTax"`
	TaxCategoryID *string         `json:"taxCategoryId"`
	Version       int             `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) (*product.Product, error) {
	categoryID, err := parseOptionalID("taxCategoryId", r.TaxCategoryID)
	if err != nil {
		return nil, err
	}
	p.Name = r.Name
	p.HSCode = r.HSCode
	p.PriceExclTax = r.PriceExclTax
	p.TaxCategoryID = categoryID
	p.Version = r.Version
	return p, nil
}

// ProductResponse is the response body for a product.
type ProductResponse struct {
	BaseResponse
	Name          string  `json:"name"`
	HSCode        *string `json:"hsCode,omitempty"`
	PriceExclTax  string  `json:"priceExclTax"`
	TaxCategoryID *string `json:"taxCategoryId,omitempty"`
}

// FromProduct creates response DTO from entity.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		BaseResponse:  FromBaseCatalog(p.BaseCatalog),
		Name:          p.Name,
		HSCode:        p.HSCode,
		PriceExclTax:  Money(p.PriceExclTax),
		TaxCategoryID: optionalID(p.TaxCategoryID),
	}
}

// --- Customers ---

// CreateCustomerRequest is the request body for creating a customer.
type CreateCustomerRequest struct {
	Name    string  `json:"name" binding:"required"`
	Address *string `json:"address"`
	STRN    *string `json:"strn"`
	NTN     *string `json:"ntn"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateCustomerRequest) ToEntity() (*customer.Customer, error) {
	c := customer.NewCustomer(r.Name)
	c.Address = r.Address
	c.STRN = r.STRN
	c.NTN = r.NTN
	return c, nil
}

// UpdateCustomerRequest is the request body for updating a customer.
type UpdateCustomerRequest struct {
	Name    string  `json:"name" binding:"required"`
	Address *string `json:"address"`
	STRN    *string `json:"strn"`
	NTN     *string `json:"ntn"`
	Version int     `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateCustomerRequest) ApplyTo(c *customer.Customer) (*customer.Customer, error) {
	c.Name = r.Name
	c.Address = r.Address
	c.STRN = r.STRN
	c.NTN = r.NTN
	c.Version = r.Version
	return c, nil
}

// CustomerResponse is the response body for a customer.
type CustomerResponse struct {
	BaseResponse
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
	STRN    *string `json:"strn,omitempty"`
	NTN     *string `json:"ntn,omitempty"`
}

// FromCustomer creates response DTO from entity.
func FromCustomer(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		BaseResponse: FromBaseCatalog(c.BaseCatalog),
		Name:         c.Name,
		Address:      c.Address,
		STRN:         c.STRN,
		NTN:          c.NTN,
	}
}

// --- Vehicles ---

// CreateVehicleRequest is the request body for creating a vehicle.
type CreateVehicleRequest struct {
	CustomerID string `json:"customerId" binding:"required"`
	Make       string `json:"make" binding:"required"`
	Number     string `json:"number" binding:"required"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateVehicleRequest) ToEntity() (*vehicle.Vehicle, error) {
	customerID, err := id.ParseField("customerId", r.CustomerID)
	if err != nil {
		return nil, err
	}
	return vehicle.NewVehicle(customerID, r.Make, r.Number), nil
}

// UpdateVehicleRequest is the request body for updating a vehicle.
type UpdateVehicleRequest struct {
	CustomerID string `json:"customerId" binding:"required"`
	Make       string `json:"make" binding:"required"`
	Number     string `json:"number" binding:"required"`
	Version    int    `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateVehicleRequest) ApplyTo(v *vehicle.Vehicle) (*vehicle.Vehicle, error) {
	customerID, err := id.ParseField("customerId", r.CustomerID)
	if err != nil {
		return nil, err
	}
	v.CustomerID = customerID
	v.Make = r.Make
	v.Number = r.Number
	v.Version = r.Version
	return v, nil
}

// VehicleResponse is the response body for a vehicle.
type VehicleResponse struct {
	BaseResponse
	CustomerID string `json:"customerId"`
	Make       string `json:"make"`
	Number     string `json:"number"`
}

// FromVehicle creates response DTO from entity.
func FromVehicle(v *vehicle.Vehicle) VehicleResponse {
	return VehicleResponse{
		BaseResponse: FromBaseCatalog(v.BaseCatalog),
		CustomerID:   v.CustomerID.String(),
		Make:         v.Make,
		Number:       v.Number,
	}
}
