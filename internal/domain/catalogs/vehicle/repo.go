package vehicle

import (
	"context"

	"autobill/internal/core/id"
	"autobill/internal/domain"
)

// Repository defines the interface for Vehicle persistence.
type Repository interface {
	domain.CatalogRepository[*Vehicle]

	// ListByCustomer returns the customer's vehicles that are not marked for deletion.
	ListByCustomer(ctx context.Context, customerID id.ID) ([]*Vehicle, error)
}
