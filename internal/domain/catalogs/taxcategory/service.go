package taxcategory

import (
	"context"

	"autobill/internal/core/apperror"
	"autobill/internal/core/id"
	"autobill/internal/core/tx"
	"autobill/internal/domain"
)

// Service provides business logic for the tax category registry.
type Service struct {
	*domain.CatalogService[*TaxCategory]
	repo Repository
}

// NewService creates a new TaxCategory service.
func NewService(repo Repository, txm tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*TaxCategory]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "tax category",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().OnBeforeCreate(svc.prepare)
	base.Hooks().OnBeforeUpdate(svc.prepare)

	return svc
}

// prepare normalizes the label and enforces its uniqueness.
func (s *Service) prepare(ctx context.Context, c *TaxCategory) error {
	c.Label = NormalizeLabel(c.Label)

	existing, err := s.repo.FindByLabel(ctx, c.Label)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != c.ID {
		return apperror.NewDuplicate("tax category", "label", c.Label)
	}
	return nil
}

// Resolve returns the category a product references.
func (s *Service) Resolve(ctx context.Context, categoryID id.ID) (*TaxCategory, error) {
	return s.GetByID(ctx, categoryID)
}

// FindByLabel retrieves a category by label, ignoring case.
func (s *Service) FindByLabel(ctx context.Context, label string) (*TaxCategory, error) {
	c, err := s.repo.FindByLabel(ctx, NormalizeLabel(label))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("tax category", label)
		}
		return nil, err
	}
	return c, nil
}
