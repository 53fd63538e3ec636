// Package taxcategory provides the tax category registry: a small reference
// table mapping a category label to a tax rate.
package taxcategory

import (
	"context"
	"strings"

	"autobill/internal/core/apperror"
	"autobill/internal/core/entity"
	"autobill/internal/core/types"
)

// Labels understood by bill variants. The registry accepts any other label too.
const (
	LabelGoods   = "goods"
	LabelService = "service"
)

// TaxCategory is a named tax rate applied to products.
type TaxCategory struct {
	entity.BaseCatalog

	// Label identifies the category, compared case-insensitively
	Label string `db:"label" json:"label"`

	// Rate is a percentage with two decimals (17.00 means 17%)
	Rate types.Rate `db:"rate" json:"rate"`
}

// NewTaxCategory creates a new TaxCategory.
func NewTaxCategory(label string, rate types.Rate) *TaxCategory {
	return &TaxCategory{
		BaseCatalog: entity.NewBaseCatalog(),
		Label:       NormalizeLabel(label),
		Rate:        rate,
	}
}

// NormalizeLabel returns the canonical form of a label.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Validate implements entity.Validatable interface.
func (c *TaxCategory) Validate(ctx context.Context) error {
	if NormalizeLabel(c.Label) == "" {
		return apperror.NewValidation("label is required").
			WithDetail("field", "label")
	}

	if !types.IsValidRate(c.Rate) {
		return apperror.NewValidation("rate must be between 0 and 100").
			WithDetail("field", "rate").
			WithDetail("value", c.Rate.String())
	}

	if !c.Rate.Equal(c.Rate.Round(types.MoneyPlaces)) {
		return apperror.NewValidation("rate allows at most two decimal places").
			WithDetail("field", "rate").
			WithDetail("value", c.Rate.String())
	}

	return nil
}
