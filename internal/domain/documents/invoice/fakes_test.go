package invoice

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"autobill/internal/core/apperror"
	"autobill/internal/core/id"
	"autobill/internal/domain"
	"autobill/internal/domain/catalogs/customer"
	"autobill/internal/domain/catalogs/product"
	"autobill/internal/domain/catalogs/taxcategory"
	"autobill/internal/domain/catalogs/vehicle"
)

// memRepo is an in-memory Repository. Values are copied in and out like rows.
type memRepo struct {
	mu       sync.Mutex
	invoices map[id.ID]Invoice
	items    map[id.ID]LineItem
}

func newMemRepo() *memRepo {
	return &memRepo{
		invoices: make(map[id.ID]Invoice),
		items:    make(map[id.ID]LineItem),
	}
}

func (r *memRepo) snapshot() (map[id.ID]Invoice, map[id.ID]LineItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv := make(map[id.ID]Invoice, len(r.invoices))
	for k, v := range r.invoices {
		inv[k] = v
	}
	items := make(map[id.ID]LineItem, len(r.items))
	for k, v := range r.items {
		items[k] = v
	}
	return inv, items
}

func (r *memRepo) restore(inv map[id.ID]Invoice, items map[id.ID]LineItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices = inv
	r.items = items
}

func (r *memRepo) Create(_ context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.invoices {
		if existing.Number == inv.Number {
			return errors.New("duplicate invoice number " + inv.Number)
		}
	}
	row := *inv
	row.Items = nil
	r.invoices[inv.ID] = row
	return nil
}

func (r *memRepo) GetByID(_ context.Context, invoiceID id.ID) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.invoices[invoiceID]
	if !ok {
		return nil, apperror.NewNotFound("row", invoiceID)
	}
	return &row, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return r.GetByID(ctx, invoiceID)
}

func (r *memRepo) List(_ context.Context, f ListFilter) (domain.ListResult[*Invoice], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*Invoice
	for _, row := range r.invoices {
		if f.Status != nil && row.Status != *f.Status {
			continue
		}
		if f.CustomerID != nil && row.CustomerID != *f.CustomerID {
			continue
		}
		if f.Search != "" && !strings.Contains(row.Number, f.Search) {
			continue
		}
		row := row
		all = append(all, &row)
	}
	slices.SortFunc(all, func(a, b *Invoice) int {
		if f.Descending {
			return int(b.NumberSeq - a.NumberSeq)
		}
		return int(a.NumberSeq - b.NumberSeq)
	})
	total := int64(len(all))
	if f.Offset < len(all) {
		all = all[f.Offset:]
	} else {
		all = nil
	}
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return domain.ListResult[*Invoice]{Items: all, TotalCount: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, invoiceID id.ID, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.invoices[invoiceID]
	if !ok {
		return apperror.NewNotFound("row", invoiceID)
	}
	row.Status = status
	r.invoices[invoiceID] = row
	return nil
}

func (r *memRepo) SaveTotals(_ context.Context, invoiceID id.ID, t Totals) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.invoices[invoiceID]
	if !ok {
		return apperror.NewNotFound("row", invoiceID)
	}
	row.ApplyTotals(t)
	r.invoices[invoiceID] = row
	return nil
}

func (r *memRepo) Delete(_ context.Context, invoiceID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.invoices, invoiceID)
	for k, it := range r.items {
		if it.InvoiceID == invoiceID {
			delete(r.items, k)
		}
	}
	return nil
}

func (r *memRepo) GetItems(_ context.Context, invoiceID id.ID) ([]LineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.itemsOf(invoiceID), nil
}

func (r *memRepo) itemsOf(invoiceID id.ID) []LineItem {
	items := []LineItem{}
	for _, it := range r.items {
		if it.InvoiceID == invoiceID {
			items = append(items, it)
		}
	}
	slices.SortFunc(items, func(a, b LineItem) int { return a.Position - b.Position })
	return items
}

func (r *memRepo) GetItemsForInvoices(_ context.Context, ids []id.ID) (map[id.ID][]LineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[id.ID][]LineItem, len(ids))
	for _, invoiceID := range ids {
		out[invoiceID] = r.itemsOf(invoiceID)
	}
	return out, nil
}

func (r *memRepo) GetItem(_ context.Context, itemID id.ID) (*LineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("row", itemID)
	}
	return &it, nil
}

func (r *memRepo) InsertItem(_ context.Context, item *LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = *item
	return nil
}

func (r *memRepo) UpdateItem(_ context.Context, item *LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return apperror.NewNotFound("row", item.ID)
	}
	r.items[item.ID] = *item
	return nil
}

func (r *memRepo) DeleteItem(_ context.Context, itemID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, itemID)
	return nil
}

func (r *memRepo) NextPosition(_ context.Context, invoiceID id.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := 1
	for _, it := range r.items {
		if it.InvoiceID == invoiceID && it.Position >= next {
			next = it.Position + 1
		}
	}
	return next, nil
}

// memTx serialises units of work and rolls the repository back on error.
// ReadOnly takes the same lock, so a read never observes half of a mutation.
type memTx struct {
	mu   sync.Mutex
	repo *memRepo
}

type memTxKey struct{}

func (m *memTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	invoices, items := m.repo.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, m)); err != nil {
		m.repo.restore(invoices, items)
		return err
	}
	return nil
}

func (m *memTx) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(context.WithValue(ctx, memTxKey{}, m))
}

// interleavingRepo runs between once, right after the first invoice row read
// and before the items are read.
type interleavingRepo struct {
	*memRepo
	once    sync.Once
	between func()
}

func (r *interleavingRepo) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, err := r.memRepo.GetByID(ctx, invoiceID)
	if r.between != nil {
		r.once.Do(r.between)
	}
	return inv, err
}

func (r *interleavingRepo) List(ctx context.Context, f ListFilter) (domain.ListResult[*Invoice], error) {
	page, err := r.memRepo.List(ctx, f)
	if r.between != nil {
		r.once.Do(r.between)
	}
	return page, err
}

type memCatalog struct {
	categories map[id.ID]*taxcategory.TaxCategory
	products   map[id.ID]*product.Product
	customers  map[id.ID]*customer.Customer
	vehicles   map[id.ID]*vehicle.Vehicle
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		categories: make(map[id.ID]*taxcategory.TaxCategory),
		products:   make(map[id.ID]*product.Product),
		customers:  make(map[id.ID]*customer.Customer),
		vehicles:   make(map[id.ID]*vehicle.Vehicle),
	}
}

func (c *memCatalog) Resolve(_ context.Context, categoryID id.ID) (*taxcategory.TaxCategory, error) {
	if v, ok := c.categories[categoryID]; ok {
		return v, nil
	}
	return nil, apperror.NewNotFound("tax category", categoryID)
}

type productGetter struct{ *memCatalog }

func (c productGetter) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	if v, ok := c.products[productID]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, apperror.NewNotFound("product", productID.String())
}

type customerGetter struct{ *memCatalog }

func (c customerGetter) GetByID(_ context.Context, customerID id.ID) (*customer.Customer, error) {
	if v, ok := c.customers[customerID]; ok {
		return v, nil
	}
	return nil, apperror.NewNotFound("customer", customerID.String())
}

type vehicleGetter struct{ *memCatalog }

func (c vehicleGetter) GetByID(_ context.Context, vehicleID id.ID) (*vehicle.Vehicle, error) {
	if v, ok := c.vehicles[vehicleID]; ok {
		return v, nil
	}
	return nil, apperror.NewNotFound("vehicle", vehicleID.String())
}

type countingObserver struct {
	mu         sync.Mutex
	created    int
	mutations  map[string]int
	recomputed int
}

func (o *countingObserver) InvoiceCreated() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created++
}

func (o *countingObserver) LineItemMutated(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mutations == nil {
		o.mutations = make(map[string]int)
	}
	o.mutations[op]++
}

func (o *countingObserver) TotalsRecomputed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recomputed++
}
