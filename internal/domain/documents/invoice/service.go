package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"autobill/internal/core/apperror"
	"autobill/internal/core/id"
	"autobill/internal/core/numerator"
	"autobill/internal/core/tx"
	"autobill/internal/domain"
	"autobill/internal/domain/catalogs/customer"
	"autobill/internal/domain/catalogs/product"
	"autobill/internal/domain/catalogs/taxcategory"
	"autobill/internal/domain/catalogs/vehicle"
	"autobill/pkg/logger"
)

// Line item mutation kinds reported to the Observer.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpRemove = "remove"
)

// ProductGetter looks up a product by ID.
type ProductGetter interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// TaxCategoryResolver looks up a tax category by ID.
type TaxCategoryResolver interface {
	Resolve(ctx context.Context, categoryID id.ID) (*taxcategory.TaxCategory, error)
}

// CustomerGetter looks up a customer by ID.
type CustomerGetter interface {
	GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error)
}

// VehicleGetter looks up a vehicle by ID.
type VehicleGetter interface {
	GetByID(ctx context.Context, vehicleID id.ID) (*vehicle.Vehicle, error)
}

// Observer receives ledger events (metrics).
type Observer interface {
	InvoiceCreated()
	LineItemMutated(op string)
	TotalsRecomputed()
}

type noopObserver struct{}

func (noopObserver) InvoiceCreated()        {}
func (noopObserver) LineItemMutated(string) {}
func (noopObserver) TotalsRecomputed()      {}

// Deps are the collaborators of Service.
type Deps struct {
	Repo       Repository
	Products   ProductGetter
	Categories TaxCategoryResolver
	Customers  CustomerGetter
	Vehicles   VehicleGetter

	// Numbers allocates invoice numbers inside its own transaction
	Numbers   numerator.Generator
	Numbering numerator.Config

	// TxManager runs mutations in read-write transactions and multi-query
	// reads in one read-only snapshot
	TxManager tx.ReadOnlyManager
	Observer  Observer
}

// Service provides business operations for invoices.
//
// Every line item mutation goes through mutateItem, which locks the owning
// invoice, saves the item and runs the item hooks in one transaction. The
// total recomputation is registered as the first after-hook of each event, so
// no caller can change items without refreshing the invoice totals.
type Service struct {
	repo       Repository
	products   ProductGetter
	categories TaxCategoryResolver
	customers  CustomerGetter
	vehicles   VehicleGetter
	numbers    numerator.Generator
	numbering  numerator.Config
	txManager  tx.ReadOnlyManager
	observer   Observer

	itemHooks *domain.HookRegistry[*LineItem]
}

// NewService creates a new invoice service.
func NewService(d Deps) *Service {
	if d.TxManager == nil {
		d.TxManager = tx.Passthrough{}
	}
	if d.Observer == nil {
		d.Observer = noopObserver{}
	}
	if d.Numbering.Prefix == "" {
		d.Numbering = numerator.DefaultConfig(DefaultNumberPrefix)
	}

	s := &Service{
		repo:       d.Repo,
		products:   d.Products,
		categories: d.Categories,
		customers:  d.Customers,
		vehicles:   d.Vehicles,
		numbers:    d.Numbers,
		numbering:  d.Numbering,
		txManager:  d.TxManager,
		observer:   d.Observer,
		itemHooks:  domain.NewHookRegistry[*LineItem](),
	}

	s.itemHooks.OnAfterCreate(s.recomputeOwner)
	s.itemHooks.OnAfterUpdate(s.recomputeOwner)
	s.itemHooks.OnAfterDelete(s.recomputeOwner)

	return s
}

// DefaultNumberPrefix is the invoice number prefix used when none is configured.
const DefaultNumberPrefix = "MFES"

// ItemHooks returns the line item hook registry. Hooks run inside the
// mutation transaction; an error rolls the mutation back.
func (s *Service) ItemHooks() *domain.HookRegistry[*LineItem] {
	return s.itemHooks
}

// Numbering returns the invoice number format.
func (s *Service) Numbering() numerator.Config {
	return s.numbering
}

// --- Invoices ---

// CreateInput holds the fields of a new invoice.
type CreateInput struct {
	CustomerID id.ID
	VehicleID  id.ID

	// Date defaults to now
	Date *time.Time

	CreatedBy string
}

// CreateInvoice allocates the next number and stores an unpaid invoice with
// zero totals. Number allocation and the insert commit together.
func (s *Service) CreateInvoice(ctx context.Context, in CreateInput) (*Invoice, error) {
	inv := NewInvoice(in.CustomerID, in.VehicleID)
	if in.Date != nil && !in.Date.IsZero() {
		inv.Date = in.Date.UTC()
	}
	inv.CreatedBy = in.CreatedBy

	if err := inv.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.checkParties(ctx, inv.CustomerID, inv.VehicleID); err != nil {
		return nil, err
	}

	err := s.numbers.Allocate(ctx, s.numbering, func(ctx context.Context, n numerator.Number) error {
		// A retried attempt receives a fresh number.
		inv.Number, inv.NumberSeq = "", 0
		if err := inv.AssignNumber(n.Value, n.Seq); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	inv.Items = []LineItem{}
	s.observer.InvoiceCreated()
	logger.Info(ctx, "invoice created", "id", inv.ID, "number", inv.Number)
	return inv, nil
}

func (s *Service) checkParties(ctx context.Context, customerID, vehicleID id.ID) error {
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return err
	}
	v, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return err
	}
	if !v.BelongsTo(customerID) {
		return apperror.NewValidation("vehicle does not belong to customer").
			WithDetail("field", "vehicleId").
			WithDetail("vehicle_id", vehicleID.String()).
			WithDetail("customer_id", customerID.String())
	}
	return nil
}

// GetByID retrieves an invoice with its items. The row and the items come
// from one snapshot, so the stored totals always match the returned items.
func (s *Service) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	var inv *Invoice
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.repo.GetByID(ctx, invoiceID)
		if err != nil {
			return invoiceErr(err, invoiceID)
		}

		items, err := s.repo.GetItems(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
		}
		inv.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// List retrieves invoices ordered by number sequence.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListFilter().Limit
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

// SetStatus changes the payment status label. Totals and number are untouched.
func (s *Service) SetStatus(ctx context.Context, invoiceID id.ID, status Status) (*Invoice, error) {
	if !status.IsValid() {
		return nil, apperror.NewValidation("unknown invoice status").
			WithDetail("field", "status").
			WithDetail("value", string(status))
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return invoiceErr(err, invoiceID)
		}
		if inv.Status == status {
			return nil
		}
		return s.repo.UpdateStatus(ctx, invoiceID, status)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice status changed", "id", invoiceID, "status", status)
	return s.GetByID(ctx, invoiceID)
}

// Delete removes an invoice with its items. The number is never reissued.
func (s *Service) Delete(ctx context.Context, invoiceID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return invoiceErr(err, invoiceID)
		}
		if err := s.repo.Delete(ctx, invoiceID); err != nil {
			return fmt.Errorf("delete invoice %s: %w", inv.Number, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "invoice deleted", "id", invoiceID)
	return nil
}

// --- Totals ---

// Recompute re-aggregates the invoice's current items and stores the result.
// Calling it again without item changes yields the same totals.
func (s *Service) Recompute(ctx context.Context, invoiceID id.ID) (Totals, error) {
	var totals Totals
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, invoiceID); err != nil {
			return invoiceErr(err, invoiceID)
		}
		var err error
		totals, err = s.recompute(ctx, invoiceID)
		return err
	})
	if err != nil {
		return Totals{}, err
	}
	return totals, nil
}

// recompute expects the invoice row to be locked by the caller.
func (s *Service) recompute(ctx context.Context, invoiceID id.ID) (Totals, error) {
	items, err := s.repo.GetItems(ctx, invoiceID)
	if err != nil {
		return Totals{}, fmt.Errorf("get items: %w", err)
	}

	totals := Aggregate(items)
	if err := s.repo.SaveTotals(ctx, invoiceID, totals); err != nil {
		return Totals{}, fmt.Errorf("save totals: %w", err)
	}

	s.observer.TotalsRecomputed()
	logger.Debug(ctx, "invoice totals recomputed",
		"id", invoiceID,
		"items", len(items),
		"grand_total", totals.GrandTotal.StringFixed(2),
	)
	return totals, nil
}

func (s *Service) recomputeOwner(ctx context.Context, item *LineItem) error {
	_, err := s.recompute(ctx, item.InvoiceID)
	return err
}

// --- Line items ---

// ItemInput holds the fields of a new line item.
type ItemInput struct {
	ProductID   id.ID
	Quantity    int
	Description *string
}

// ItemPatch holds optional changes to a line item.
type ItemPatch struct {
	ProductID   *id.ID
	Quantity    *int
	Description *string

	// Refresh re-reads price and tax category from the catalog on a
	// description-only edit
	Refresh bool
}

// AddLineItem prices a new item from the current catalog and appends it.
func (s *Service) AddLineItem(ctx context.Context, invoiceID id.ID, in ItemInput) (*LineItem, error) {
	if err := CheckQuantity(in.Quantity); err != nil {
		return nil, err
	}

	item := NewLineItem(invoiceID, in.ProductID, in.Quantity)
	item.Description = trimDescription(in.Description)

	err := s.mutateItem(ctx, invoiceID, domain.BeforeCreate, item, func(ctx context.Context) error {
		if err := s.snapshot(ctx, item); err != nil {
			return err
		}
		pos, err := s.repo.NextPosition(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("next position: %w", err)
		}
		item.Position = pos
		return s.repo.InsertItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.observer.LineItemMutated(OpAdd)
	logger.Info(ctx, "line item added", "invoice_id", invoiceID, "item_id", item.ID, "product_id", item.ProductID)
	return item, nil
}

// UpdateLineItem applies patch to an item. Product and quantity edits
// re-snapshot price and tax category from the current catalog. A patch that
// only touches the description keeps the saved snapshot unless Refresh is set.
func (s *Service) UpdateLineItem(ctx context.Context, invoiceID, itemID id.ID, patch ItemPatch) (*LineItem, error) {
	if patch.Quantity != nil {
		if err := CheckQuantity(*patch.Quantity); err != nil {
			return nil, err
		}
	}

	var item *LineItem
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, invoiceID); err != nil {
			return invoiceErr(err, invoiceID)
		}

		var err error
		item, err = s.ownedItem(ctx, invoiceID, itemID)
		if err != nil {
			return err
		}

		refresh := patch.Refresh || patch.Quantity != nil
		if patch.ProductID != nil {
			item.ProductID = *patch.ProductID
			refresh = true
		}
		if patch.Quantity != nil {
			item.Quantity = *patch.Quantity
		}
		if patch.Description != nil {
			item.Description = trimDescription(patch.Description)
		}

		return s.saveItem(ctx, domain.BeforeUpdate, item, func(ctx context.Context) error {
			if refresh {
				if err := s.snapshot(ctx, item); err != nil {
					return err
				}
			} else if err := item.Reprice(); err != nil {
				return err
			}
			return s.repo.UpdateItem(ctx, item)
		})
	})
	if err != nil {
		return nil, err
	}

	s.observer.LineItemMutated(OpUpdate)
	logger.Info(ctx, "line item updated", "invoice_id", invoiceID, "item_id", itemID)
	return item, nil
}

// RemoveLineItem deletes an item and recomputes the invoice against the reduced set.
func (s *Service) RemoveLineItem(ctx context.Context, invoiceID, itemID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, invoiceID); err != nil {
			return invoiceErr(err, invoiceID)
		}
		item, err := s.ownedItem(ctx, invoiceID, itemID)
		if err != nil {
			return err
		}
		return s.saveItem(ctx, domain.BeforeDelete, item, func(ctx context.Context) error {
			return s.repo.DeleteItem(ctx, itemID)
		})
	})
	if err != nil {
		return err
	}

	s.observer.LineItemMutated(OpRemove)
	logger.Info(ctx, "line item removed", "invoice_id", invoiceID, "item_id", itemID)
	return nil
}

// mutateItem locks the invoice and runs save through saveItem in one transaction.
func (s *Service) mutateItem(
	ctx context.Context,
	invoiceID id.ID,
	before domain.HookEvent,
	item *LineItem,
	save func(ctx context.Context) error,
) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, invoiceID); err != nil {
			return invoiceErr(err, invoiceID)
		}
		return s.saveItem(ctx, before, item, save)
	})
}

// saveItem runs the before-hooks, the save itself and then the after-hooks.
// The item is fully saved before any after-hook reads the item set.
func (s *Service) saveItem(ctx context.Context, before domain.HookEvent, item *LineItem, save func(ctx context.Context) error) error {
	if err := s.itemHooks.Run(ctx, before, item); err != nil {
		return err
	}
	if err := save(ctx); err != nil {
		return err
	}
	return s.itemHooks.Run(ctx, afterEvent(before), item)
}

func afterEvent(before domain.HookEvent) domain.HookEvent {
	switch before {
	case domain.BeforeCreate:
		return domain.AfterCreate
	case domain.BeforeUpdate:
		return domain.AfterUpdate
	case domain.BeforeDelete:
		return domain.AfterDelete
	}
	return before
}

func (s *Service) ownedItem(ctx context.Context, invoiceID, itemID id.ID) (*LineItem, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("line item", itemID.String())
		}
		return nil, err
	}
	if item.InvoiceID != invoiceID {
		return nil, apperror.NewNotFound("line item", itemID.String()).
			WithDetail("invoice_id", invoiceID.String())
	}
	return item, nil
}

// snapshot copies the product's current price and tax category onto item and
// computes its amounts.
func (s *Service) snapshot(ctx context.Context, item *LineItem) error {
	p, err := s.products.GetByID(ctx, item.ProductID)
	if err != nil {
		return err
	}
	if p.DeletionMark {
		return apperror.NewValidation("product is marked for deletion").
			WithDetail("field", "productId").
			WithDetail("value", p.ID.String())
	}
	if !p.HasTaxCategory() {
		return apperror.NewMissingTaxCategory(p.ID.String())
	}
	c, err := s.categories.Resolve(ctx, *p.TaxCategoryID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewMissingTaxCategory(p.ID.String()).WithCause(err)
		}
		return err
	}

	categoryID := c.ID
	item.ProductName = p.Name
	item.HSCode = p.HSCode
	item.UnitPrice = p.PriceExclTax
	item.TaxCategoryID = &categoryID
	item.TaxLabel = c.Label
	item.TaxRate = c.Rate

	return item.Reprice()
}

// --- Bills ---

// GetBill returns the items and totals of one bill variant.
func (s *Service) GetBill(ctx context.Context, invoiceID id.ID, variant Variant) (BillView, error) {
	inv, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return BillView{}, err
	}
	return Partition(inv, variant)
}

// ReportRow summarizes one invoice across the bill variants.
type ReportRow struct {
	Invoice  *Invoice
	All      Totals
	Goods    Totals
	Services Totals
}

// Report is the bill report over a filtered invoice set.
type Report struct {
	Rows       []ReportRow
	TotalCount int64
	All        Totals
	Goods      Totals
	Services   Totals
}

// BillReport partitions every listed invoice and sums the variant totals.
// The page and its items are read from one snapshot.
func (s *Service) BillReport(ctx context.Context, filter ListFilter) (Report, error) {
	var (
		page  domain.ListResult[*Invoice]
		items map[id.ID][]LineItem
	)
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		page, err = s.List(ctx, filter)
		if err != nil {
			return err
		}

		ids := make([]id.ID, len(page.Items))
		for i, inv := range page.Items {
			ids[i] = inv.ID
		}
		items, err = s.repo.GetItemsForInvoices(ctx, ids)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Rows:       make([]ReportRow, 0, len(page.Items)),
		TotalCount: page.TotalCount,
		All:        ZeroTotals(),
		Goods:      ZeroTotals(),
		Services:   ZeroTotals(),
	}
	for _, inv := range page.Items {
		inv.Items = items[inv.ID]

		row := ReportRow{Invoice: inv}
		for _, v := range Variants {
			view, err := Partition(inv, v)
			if err != nil {
				return Report{}, err
			}
			switch v {
			case VariantAll:
				row.All = view.Totals
			case VariantGoodsOnly:
				row.Goods = view.Totals
			case VariantServicesOnly:
				row.Services = view.Totals
			}
		}

		report.Rows = append(report.Rows, row)
		report.All = report.All.Add(row.All)
		report.Goods = report.Goods.Add(row.Goods)
		report.Services = report.Services.Add(row.Services)
	}
	return report, nil
}

func invoiceErr(err error, invoiceID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound("invoice", invoiceID.String())
	}
	return err
}

func trimDescription(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
