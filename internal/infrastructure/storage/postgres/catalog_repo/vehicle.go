package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"autobill/internal/core/id"
	"autobill/internal/domain/catalogs/vehicle"
	"autobill/internal/infrastructure/storage/postgres"
)

// VehicleRepo implements vehicle.Repository.
type VehicleRepo struct {
	*BaseCatalogRepo[*vehicle.Vehicle]
}

var _ vehicle.Repository = (*VehicleRepo)(nil)

// NewVehicleRepo creates a new vehicle repository.
func NewVehicleRepo(txm *postgres.TxManager) *VehicleRepo {
	return &VehicleRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, BaseConfig[*vehicle.Vehicle]{
			TableName:    "vehicles",
			EntityName:   "vehicle",
			SearchCols:   []string{"make", "number"},
			DefaultOrder: "number",
			New:          func() *vehicle.Vehicle { return &vehicle.Vehicle{} },
		}),
	}
}

// ListByCustomer returns the customer's vehicles not marked for deletion.
func (r *VehicleRepo) ListByCustomer(ctx context.Context, customerID id.ID) ([]*vehicle.Vehicle, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"customer_id": customerID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("number ASC")
	return r.FindMany(ctx, q)
}
