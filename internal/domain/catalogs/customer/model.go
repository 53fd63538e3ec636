// Package customer provides the customer catalog.
package customer

import (
	"context"
	"strings"

	"autobill/internal/core/entity"
)

// Customer is the billed party.
type Customer struct {
	entity.Catalog

	Address *string `db:"address" json:"address,omitempty"`

	// STRN is the sales tax registration number
	STRN *string `db:"strn" json:"strn,omitempty"`

	// NTN is the national tax number
	NTN *string `db:"ntn" json:"ntn,omitempty"`
}

// NewCustomer creates a new Customer.
func NewCustomer(name string) *Customer {
	return &Customer{
		Catalog: entity.NewCatalog(name),
	}
}

// Validate implements entity.Validatable interface.
func (c *Customer) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	c.Address = trimOptional(c.Address)
	c.STRN = trimOptional(c.STRN)
	c.NTN = trimOptional(c.NTN)
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
