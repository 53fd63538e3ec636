package catalog_repo

import (
	"autobill/internal/domain/catalogs/customer"
	"autobill/internal/infrastructure/storage/postgres"
)

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	*BaseCatalogRepo[*customer.Customer]
}

var _ customer.Repository = (*CustomerRepo)(nil)

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, BaseConfig[*customer.Customer]{
			TableName:    "customers",
			EntityName:   "customer",
			SearchCols:   []string{"name", "strn", "ntn"},
			DefaultOrder: "name",
			New:          func() *customer.Customer { return &customer.Customer{} },
		}),
	}
}
