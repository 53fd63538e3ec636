package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"autobill/internal/domain/catalogs/taxcategory"
	"autobill/internal/infrastructure/storage/postgres"
)

// TaxCategoryRepo implements taxcategory.Repository.
type TaxCategoryRepo struct {
	*BaseCatalogRepo[*taxcategory.TaxCategory]
}

// Compile-time interface check.
var _ taxcategory.Repository = (*TaxCategoryRepo)(nil)

// NewTaxCategoryRepo creates a new tax category repository.
func NewTaxCategoryRepo(txm *postgres.TxManager) *TaxCategoryRepo {
	return &TaxCategoryRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, BaseConfig[*taxcategory.TaxCategory]{
			TableName:    "tax_categories",
			EntityName:   "tax category",
			SearchCols:   []string{"label"},
			DefaultOrder: "label",
			New:          func() *taxcategory.TaxCategory { return &taxcategory.TaxCategory{} },
		}),
	}
}

// FindByLabel retrieves an active category by label, ignoring case.
func (r *TaxCategoryRepo) FindByLabel(ctx context.Context, label string) (*taxcategory.TaxCategory, error) {
	q := r.baseSelect().
		Where(squirrel.Expr("lower(label) = lower(?)", label)).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)
	return r.FindOne(ctx, q, label)
}
