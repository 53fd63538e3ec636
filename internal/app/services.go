// Package app wires repositories and domain services on top of PostgreSQL.
// It is shared by the server and the seeding tool.
package app

import (
	"autobill/internal/config"
	"autobill/internal/core/numerator"
	"autobill/internal/domain/catalogs/customer"
	"autobill/internal/domain/catalogs/product"
	"autobill/internal/domain/catalogs/taxcategory"
	"autobill/internal/domain/catalogs/vehicle"
	"autobill/internal/domain/documents/invoice"
	"autobill/internal/infrastructure/storage/postgres"
	"autobill/internal/infrastructure/storage/postgres/catalog_repo"
	"autobill/internal/infrastructure/storage/postgres/document_repo"
	seq "autobill/pkg/numerator"
)

// Options tune the wiring. Nil observers are allowed.
type Options struct {
	Numbering        config.NumberingConfig
	InvoiceObserver  invoice.Observer
	SequenceObserver seq.Observer
}

// Services holds every domain service of the application.
type Services struct {
	TaxCategories *taxcategory.Service
	Products      *product.Service
	Customers     *customer.Service
	Vehicles      *vehicle.Service
	Numbers       *seq.Service
	Invoices      *invoice.Service
}

// NewServices builds the repositories and services sharing txm.
func NewServices(txm *postgres.TxManager, opts Options) *Services {
	taxCategories := taxcategory.NewService(catalog_repo.NewTaxCategoryRepo(txm), txm)
	products := product.NewService(catalog_repo.NewProductRepo(txm), taxCategories, txm)
	customers := customer.NewService(catalog_repo.NewCustomerRepo(txm), txm)
	vehicles := vehicle.NewService(catalog_repo.NewVehicleRepo(txm), customers, txm)

	numbers := seq.New(txm, txm.SequenceQuerier(), seq.Options{
		MaxAttempts: opts.Numbering.MaxAttempts,
		Backoff:     opts.Numbering.RetryBackoff,
		SeedTable:   "invoices",
		Observer:    opts.SequenceObserver,
	})

	invoices := invoice.NewService(invoice.Deps{
		Repo:       document_repo.NewInvoiceRepo(txm),
		Products:   products,
		Categories: taxCategories,
		Customers:  customers,
		Vehicles:   vehicles,
		Numbers:    numbers,
		Numbering: numerator.Config{
			Prefix:   opts.Numbering.Prefix,
			PadWidth: opts.Numbering.PadWidth,
		},
		TxManager: txm,
		Observer:  opts.InvoiceObserver,
	})

	return &Services{
		TaxCategories: taxCategories,
		Products:      products,
		Customers:     customers,
		Vehicles:      vehicles,
		Numbers:       numbers,
		Invoices:      invoices,
	}
}
