// Package product provides the product catalog. A product carries the list
// price and the tax category a line item snapshots when it is priced.
package product

import (
	"context"
	"strings"

	"autobill/internal/core/apperror"
	"autobill/internal/core/entity"
	"autobill/internal/core/id"
	"autobill/internal/core/types"
)

// Product is a sellable good or service.
type Product struct {
	entity.Catalog

	// HSCode is the customs tariff code printed on bills
	HSCode *string `db:"hs_code" json:"hsCode,omitempty"`

	// PriceExclTax is the unit list price before tax
	PriceExclTax types.Money `db:"price_excl_tax" json:"priceExclTax"`

	// TaxCategoryID may be empty for products that cannot be invoiced yet
	TaxCategoryID *id.ID `db:"tax_category_id" json:"taxCategoryId,omitempty"`
}

// NewProduct creates a new Product.
func NewProduct(name string, price types.Money) *Product {
	return &Product{
		Catalog:      entity.NewCatalog(name),
		PriceExclTax: price,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.PriceExclTax.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "priceExclTax").
			WithDetail("value", p.PriceExclTax.String())
	}

	if !p.PriceExclTax.Equal(types.RoundMoney(p.PriceExclTax)) {
		return apperror.NewValidation("price allows at most two decimal places").
			WithDetail("field", "priceExclTax").
			WithDetail("value", p.PriceExclTax.String())
	}

	if p.HSCode != nil {
		code := strings.TrimSpace(*p.HSCode)
		if code == "" {
			p.HSCode = nil
		} else {
			p.HSCode = &code
		}
	}

	return nil
}

// HasTaxCategory reports whether the product references a tax category.
func (p *Product) HasTaxCategory() bool {
	return p.TaxCategoryID != nil && !id.IsNil(*p.TaxCategoryID)
}
