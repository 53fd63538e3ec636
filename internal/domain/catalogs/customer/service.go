package customer

import (
	"autobill/internal/core/tx"
	"autobill/internal/domain"
)

// Service provides business logic for the customer catalog.
type Service struct {
	*domain.CatalogService[*Customer]
}

// NewService creates a new Customer service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Customer]{
			Repo:       repo,
			TxManager:  txm,
			EntityName: "customer",
		}),
	}
}
