package taxcategory

import (
	"context"

	"autobill/internal/domain"
)

// Repository defines the interface for TaxCategory persistence.
type Repository interface {
	domain.CatalogRepository[*TaxCategory]

	// FindByLabel retrieves a category by normalized label.
	FindByLabel(ctx context.Context, label string) (*TaxCategory, error)
}
