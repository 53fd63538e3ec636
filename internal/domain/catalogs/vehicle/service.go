package vehicle

import (
	"context"

	"autobill/internal/core/apperror"
	"autobill/internal/core/id"
	"autobill/internal/core/tx"
	"autobill/internal/domain"
	"autobill/internal/domain/catalogs/customer"
)

// CustomerGetter looks up a customer by ID.
type CustomerGetter interface {
	GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error)
}

// Service provides business logic for the vehicle catalog.
type Service struct {
	*domain.CatalogService[*Vehicle]
	repo      Repository
	customers CustomerGetter
}

// NewService creates a new Vehicle service.
func NewService(repo Repository, customers CustomerGetter, txm tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Vehicle]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "vehicle",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		customers:      customers,
	}

	base.Hooks().OnBeforeCreate(svc.checkCustomer)
	base.Hooks().OnBeforeUpdate(svc.checkCustomer)

	return svc
}

func (s *Service) checkCustomer(ctx context.Context, v *Vehicle) error {
	if _, err := s.customers.GetByID(ctx, v.CustomerID); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("customer does not exist").
				WithDetail("field", "customerId").
				WithDetail("value", v.CustomerID.String())
		}
		return err
	}
	return nil
}

// ListByCustomer returns the customer's active vehicles.
func (s *Service) ListByCustomer(ctx context.Context, customerID id.ID) ([]*Vehicle, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}
