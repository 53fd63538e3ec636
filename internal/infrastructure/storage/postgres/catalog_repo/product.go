package catalog_repo

import (
	"autobill/internal/domain/catalogs/product"
	"autobill/internal/infrastructure/storage/postgres"
)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, BaseConfig[*product.Product]{
			TableName:    "products",
			EntityName:   "product",
			SearchCols:   []string{"name", "hs_code"},
			DefaultOrder: "name",
			New:          func() *product.Product { return &product.Product{} },
		}),
	}
}
