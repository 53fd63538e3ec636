package entity

import (
	"context"
	"strings"

	"autobill/internal/core/apperror"
)

// Catalog is the base type for named reference data.
// Examples: products, customers.
type Catalog struct {
	BaseCatalog

	// Name is the display name
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(name string) Catalog {
	return Catalog{
		BaseCatalog: NewBaseCatalog(),
		Name:        strings.TrimSpace(name),
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
