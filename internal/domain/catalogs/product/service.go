package product

import (
	"context"

	"autobill/internal/core/apperror"
	"autobill/internal/core/id"
	"autobill/internal/core/tx"
	"autobill/internal/domain"
	"autobill/internal/domain/catalogs/taxcategory"
)

// TaxCategoryResolver looks up a tax category by ID.
type TaxCategoryResolver interface {
	Resolve(ctx context.Context, categoryID id.ID) (*taxcategory.TaxCategory, error)
}

// Service provides business logic for the product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	categories TaxCategoryResolver
}

// NewService creates a new Product service.
func NewService(repo Repository, categories TaxCategoryResolver, txm tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		categories:     categories,
	}

	base.Hooks().OnBeforeCreate(svc.checkTaxCategory)
	base.Hooks().OnBeforeUpdate(svc.checkTaxCategory)

	return svc
}

// checkTaxCategory rejects references to unknown or deleted categories.
func (s *Service) checkTaxCategory(ctx context.Context, p *Product) error {
	if !p.HasTaxCategory() {
		p.TaxCategoryID = nil
		return nil
	}
	c, err := s.categories.Resolve(ctx, *p.TaxCategoryID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("tax category does not exist").
				WithDetail("field", "taxCategoryId").
				WithDetail("value", p.TaxCategoryID.String())
		}
		return err
	}
	if c.DeletionMark {
		return apperror.NewValidation("tax category is marked for deletion").
			WithDetail("field", "taxCategoryId").
			WithDetail("value", p.TaxCategoryID.String())
	}
	return nil
}
