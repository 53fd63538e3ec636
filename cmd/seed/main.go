// Package main provides a CLI tool for seeding the database with reference data.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"autobill/internal/app"
	"autobill/internal/config"
	"autobill/internal/core/apperror"
	"autobill/internal/core/types"
	"autobill/internal/domain"
	"autobill/internal/domain/catalogs/customer"
	"autobill/internal/domain/catalogs/product"
	"autobill/internal/domain/catalogs/taxcategory"
	"autobill/internal/domain/catalogs/vehicle"
	"autobill/internal/domain/documents/invoice"
	"autobill/internal/infrastructure/storage/postgres"
	"autobill/pkg/logger"
)

type seedProduct struct {
	name     string
	hsCode   string
	price    string
	category string
}

var seedCategories = []struct {
	label string
	rate  string
}{
	{taxcategory.LabelGoods, "17"},
	{taxcategory.LabelService, "15"},
}

var seedProducts = []seedProduct{
	{"Oil Filter", "8421.2300", "800", taxcategory.LabelGoods},
	{"Air Filter", "8421.3100", "900", taxcategory.LabelGoods},
	{"Brake Pads", "8708.3000", "2500", taxcategory.LabelGoods},
	{"Wheel Alignment", "", "1200", taxcategory.LabelService},
	{"AC Service", "", "3500", taxcategory.LabelService},
	{"Engine Tuning", "", "5000", taxcategory.LabelService},
}

var seedCustomers = []struct {
	name     string
	address  string
	vehicles [][2]string
}{
	{"Karachi Logistics", "Plot 12, SITE Area, Karachi", [][2]string{{"Toyota Hilux", "KHI-4521"}, {"Suzuki Bolan", "KHI-7720"}}},
	{"Ahmed Traders", "Shop 4, Saddar, Rawalpindi", [][2]string{{"Honda Civic", "RIZ-1189"}}},
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx := logger.WithLogger(context.Background(), log)

	// Connect to database
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to migrate database", "error", err)
	}

	services := app.NewServices(postgres.NewTxManager(pool), app.Options{Numbering: cfg.Numbering})

	categories, err := seedTaxCategories(ctx, services.TaxCategories, log)
	if err != nil {
		log.Fatalw("failed to seed tax categories", "error", err)
	}

	products, err := seedProductCatalog(ctx, services.Products, categories, log)
	if err != nil {
		log.Fatalw("failed to seed products", "error", err)
	}

	// Position the counter after numbers imported from a previous system.
	if last := os.Getenv("SEED_RESUME_FROM"); last != "" {
		if err := resumeNumbering(ctx, services, last, log); err != nil {
			log.Fatalw("failed to resume invoice numbering", "error", err)
		}
	}

	// Seed demo data if requested
	if os.Getenv("SEED_DEMO_DATA") != "true" {
		log.Info("seeding completed successfully")
		return
	}

	vehicles, err := seedDemoCustomers(ctx, services.Customers, services.Vehicles, log)
	if err != nil {
		log.Fatalw("failed to seed customers", "error", err)
	}

	if n, _ := strconv.Atoi(os.Getenv("SEED_INVOICES")); n > 0 {
		if err := seedInvoices(ctx, services.Invoices, vehicles, products, n, log); err != nil {
			log.Fatalw("failed to seed invoices", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedTaxCategories(ctx context.Context, svc *taxcategory.Service, log *logger.Logger) (map[string]*taxcategory.TaxCategory, error) {
	out := make(map[string]*taxcategory.TaxCategory, len(seedCategories))
	for _, sc := range seedCategories {
		existing, err := svc.FindByLabel(ctx, sc.label)
		if err == nil {
			log.Infow("tax category already exists", "label", sc.label, "rate", types.FormatMoney(existing.Rate))
			out[sc.label] = existing
			continue
		}
		if !apperror.IsNotFound(err) {
			return nil, err
		}

		c := taxcategory.NewTaxCategory(sc.label, types.MustMoney(sc.rate))
		if err := svc.Create(ctx, c); err != nil {
			return nil, fmt.Errorf("create tax category %s: %w", sc.label, err)
		}
		log.Infow("tax category created", "label", c.Label, "rate", types.FormatMoney(c.Rate))
		out[sc.label] = c
	}
	return out, nil
}

func seedProductCatalog(ctx context.Context, svc *product.Service, categories map[string]*taxcategory.TaxCategory, log *logger.Logger) ([]*product.Product, error) {
	out := make([]*product.Product, 0, len(seedProducts))
	for _, sp := range seedProducts {
		existing, err := findByName(ctx, svc.List, sp.name, func(p *product.Product) string { return p.Name })
		if err != nil {
			return nil, err
		}
		if existing != nil {
			out = append(out, existing)
			continue
		}

		p := product.NewProduct(sp.name, types.MustMoney(sp.price))
		if sp.hsCode != "" {
			hs := sp.hsCode
			p.HSCode = &hs
		}
		categoryID := categories[sp.category].ID
		p.TaxCategoryID = &categoryID

		if err := svc.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("create product %s: %w", sp.name, err)
		}
		log.Infow("product created", "name", p.Name, "price", types.FormatMoney(p.PriceExclTax), "category", sp.category)
		out = append(out, p)
	}
	return out, nil
}

func seedDemoCustomers(ctx context.Context, customers *customer.Service, vehicles *vehicle.Service, log *logger.Logger) ([]*vehicle.Vehicle, error) {
	var out []*vehicle.Vehicle
	for _, sc := range seedCustomers {
		cust, err := findByName(ctx, customers.List, sc.name, func(c *customer.Customer) string { return c.Name })
		if err != nil {
			return nil, err
		}
		if cust != nil {
			owned, err := vehicles.ListByCustomer(ctx, cust.ID)
			if err != nil {
				return nil, err
			}
			out = append(out, owned...)
			continue
		}

		cust = customer.NewCustomer(sc.name)
		address := sc.address
		cust.Address = &address
		if err := customers.Create(ctx, cust); err != nil {
			return nil, fmt.Errorf("create customer %s: %w", sc.name, err)
		}

		for _, v := range sc.vehicles {
			veh := vehicle.NewVehicle(cust.ID, v[0], v[1])
			if err := vehicles.Create(ctx, veh); err != nil {
				return nil, fmt.Errorf("create vehicle %s: %w", v[1], err)
			}
			out = append(out, veh)
		}
		log.Infow("customer created", "name", cust.Name, "vehicles", len(sc.vehicles))
	}
	return out, nil
}

// seedInvoices creates n invoices through the invoice service, so numbers are
// allocated and totals recomputed exactly as for API requests.
func seedInvoices(ctx context.Context, svc *invoice.Service, vehicles []*vehicle.Vehicle, products []*product.Product, n int, log *logger.Logger) error {
	if len(vehicles) == 0 || len(products) == 0 {
		return errors.New("no vehicles or products to invoice")
	}

	for i := 0; i < n; i++ {
		veh := vehicles[rand.IntN(len(vehicles))]
		inv, err := svc.CreateInvoice(ctx, invoice.CreateInput{
			CustomerID: veh.CustomerID,
			VehicleID:  veh.ID,
			CreatedBy:  "seed",
		})
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		for _, idx := range rand.Perm(len(products))[:min(len(products), 1+rand.IntN(3))] {
			if _, err := svc.AddLineItem(ctx, inv.ID, invoice.ItemInput{
				ProductID: products[idx].ID,
				Quantity:  1 + rand.IntN(4),
			}); err != nil {
				return fmt.Errorf("add line item to %s: %w", inv.Number, err)
			}
		}

		inv, err = svc.GetByID(ctx, inv.ID)
		if err != nil {
			return err
		}
		log.Infow("invoice created", "number", inv.Number, "grand_total", types.FormatMoney(inv.GrandTotal))
	}
	return nil
}

// resumeNumbering makes the next invoice number the one after last.
// The counter is never lowered.
func resumeNumbering(ctx context.Context, services *app.Services, last string, log *logger.Logger) error {
	cfg := services.Invoices.Numbering()
	seq, err := cfg.Parse(strings.TrimSpace(last))
	if err != nil {
		return err
	}
	if err := services.Numbers.SetCurrent(ctx, cfg, seq); err != nil {
		return err
	}
	log.Infow("invoice numbering resumed", "last", cfg.Format(seq), "next", cfg.Format(seq+1))
	return nil
}

// findByName returns the live catalog entry named exactly name, or nil.
func findByName[T any](
	ctx context.Context,
	list func(context.Context, domain.ListFilter) (domain.ListResult[T], error),
	name string,
	nameOf func(T) string,
) (T, error) {
	var zero T
	filter := domain.DefaultListFilter()
	filter.Search = name
	result, err := list(ctx, filter)
	if err != nil {
		return zero, err
	}
	for _, item := range result.Items {
		if strings.EqualFold(nameOf(item), name) {
			return item, nil
		}
	}
	return zero, nil
}
