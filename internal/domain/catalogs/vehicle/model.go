// Package vehicle provides the vehicle catalog. Every vehicle belongs to one customer.
package vehicle

import (
	"context"
	"strings"

	"autobill/internal/core/apperror"
	"autobill/internal/core/entity"
	"autobill/internal/core/id"
)

// Vehicle is a customer vehicle referenced by invoices.
type Vehicle struct {
	entity.BaseCatalog

	CustomerID id.ID  `db:"customer_id" json:"customerId"`
	Make       string `db:"make" json:"make"`

	// Number is the registration plate
	Number string `db:"number" json:"number"`
}

// NewVehicle creates a new Vehicle.
func NewVehicle(customerID id.ID, vehicleMake, number string) *Vehicle {
	return &Vehicle{
		BaseCatalog: entity.NewBaseCatalog(),
		CustomerID:  customerID,
		Make:        strings.TrimSpace(vehicleMake),
		Number:      strings.TrimSpace(number),
	}
}

// Validate implements entity.Validatable interface.
func (v *Vehicle) Validate(ctx context.Context) error {
	if id.IsNil(v.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	v.Make = strings.TrimSpace(v.Make)
	v.Number = strings.TrimSpace(v.Number)

	if v.Make == "" {
		return apperror.NewValidation("make is required").
			WithDetail("field", "make")
	}
	if v.Number == "" {
		return apperror.NewValidation("number is required").
			WithDetail("field", "number")
	}
	return nil
}

// BelongsTo reports whether the vehicle is registered to customerID.
func (v *Vehicle) BelongsTo(customerID id.ID) bool {
	return v.CustomerID == customerID
}
