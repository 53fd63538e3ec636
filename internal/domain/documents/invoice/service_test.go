package invoice

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autobill/internal/core/apperror"
	"autobill/internal/core/entity"
	"autobill/internal/core/id"
	"autobill/internal/core/numerator"
	"autobill/internal/core/types"
	"autobill/internal/domain/catalogs/customer"
	"autobill/internal/domain/catalogs/product"
	"autobill/internal/domain/catalogs/taxcategory"
	"autobill/internal/domain/catalogs/vehicle"
)

type fixture struct {
	svc      *Service
	repo     *memRepo
	catalog  *memCatalog
	numbers  *numerator.MockGenerator
	observer *countingObserver
	tx       *memTx

	goods    *taxcategory.TaxCategory
	service  *taxcategory.TaxCategory
	customer *customer.Customer
	vehicle  *vehicle.Vehicle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:     newMemRepo(),
		catalog:  newMemCatalog(),
		numbers:  numerator.NewMockGenerator(),
		observer: &countingObserver{},
	}
	f.tx = &memTx{repo: f.repo}

	f.goods = taxcategory.NewTaxCategory("goods", types.MustMoney("17"))
	f.service = taxcategory.NewTaxCategory("service", types.MustMoney("15"))
	f.catalog.categories[f.goods.ID] = f.goods
	f.catalog.categories[f.service.ID] = f.service

	f.customer = customer.NewCustomer("Fleet Co")
	f.catalog.customers[f.customer.ID] = f.customer
	f.vehicle = vehicle.NewVehicle(f.customer.ID, "Toyota", "LEA-1234")
	f.catalog.vehicles[f.vehicle.ID] = f.vehicle

	f.svc = NewService(Deps{
		Repo:       f.repo,
		Products:   productGetter{f.catalog},
		Categories: f.catalog,
		Customers:  customerGetter{f.catalog},
		Vehicles:   vehicleGetter{f.catalog},
		Numbers:    f.numbers,
		Numbering:  numerator.DefaultConfig("MFES"),
		TxManager:  f.tx,
		Observer:   f.observer,
	})
	return f
}

func (f *fixture) product(name, price string, category *taxcategory.TaxCategory) *product.Product {
	p := product.NewProduct(name, types.MustMoney(price))
	if category != nil {
		categoryID := category.ID
		p.TaxCategoryID = &categoryID
	}
	f.catalog.products[p.ID] = p
	return p
}

func (f *fixture) invoice(t *testing.T) *Invoice {
	t.Helper()
	inv, err := f.svc.CreateInvoice(context.Background(), CreateInput{
		CustomerID: f.customer.ID,
		VehicleID:  f.vehicle.ID,
	})
	require.NoError(t, err)
	return inv
}

func (f *fixture) add(t *testing.T, invoiceID id.ID, p *product.Product, qty int) *LineItem {
	t.Helper()
	item, err := f.svc.AddLineItem(context.Background(), invoiceID, ItemInput{ProductID: p.ID, Quantity: qty})
	require.NoError(t, err)
	return item
}

func (f *fixture) stored(t *testing.T, invoiceID id.ID) *Invoice {
	t.Helper()
	inv, err := f.svc.GetByID(context.Background(), invoiceID)
	require.NoError(t, err)
	return inv
}

func assertConsistent(t *testing.T, inv *Invoice) {
	t.Helper()
	assert.True(t, inv.Totals().Equal(Aggregate(inv.Items)),
		"stored %+v, items %+v", inv.Totals(), Aggregate(inv.Items))
}

func TestCreateInvoice_NumbersAndDefaults(t *testing.T) {
	f := newFixture(t)

	first := f.invoice(t)
	assert.Equal(t, "MFES00001", first.Number)
	assert.Equal(t, int64(1), first.NumberSeq)
	assert.Equal(t, StatusUnpaid, first.Status)
	assert.True(t, first.Totals().Equal(ZeroTotals()))

	// Line-item edits on the first invoice do not affect numbering.
	f.add(t, first.ID, f.product("Oil Filter", "800.00", f.goods), 1)

	second := f.invoice(t)
	assert.Equal(t, "MFES00002", second.Number)
	assert.Equal(t, 2, f.observer.created)
}

func TestCreateInvoice_VehicleMustBelongToCustomer(t *testing.T) {
	f := newFixture(t)
	other := customer.NewCustomer("Other")
	f.catalog.customers[other.ID] = other

	_, err := f.svc.CreateInvoice(context.Background(), CreateInput{CustomerID: other.ID, VehicleID: f.vehicle.ID})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	// No number was consumed by the rejected request.
	assert.Equal(t, "MFES00001", f.invoice(t).Number)
}

func TestCreateInvoice_UnknownCustomer(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateInvoice(context.Background(), CreateInput{CustomerID: id.New(), VehicleID: f.vehicle.ID})
	require.True(t, apperror.IsNotFound(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "customer", appErr.Details["entity"])
}

func TestCreateInvoice_FailedInsertDoesNotIssueNumber(t *testing.T) {
	f := newFixture(t)
	f.invoice(t)

	boom := errors.New("insert failed")
	f.numbers.AllocateFunc = func(ctx context.Context, cfg numerator.Config, fn func(context.Context, numerator.Number) error) error {
		return boom
	}
	_, err := f.svc.CreateInvoice(context.Background(), CreateInput{CustomerID: f.customer.ID, VehicleID: f.vehicle.ID})
	require.ErrorIs(t, err, boom)

	f.numbers.AllocateFunc = nil
	assert.Equal(t, "MFES00002", f.invoice(t).Number)
}

func TestCreateInvoice_Concurrent(t *testing.T) {
	f := newFixture(t)

	const workers = 25
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]bool)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := f.svc.CreateInvoice(context.Background(), CreateInput{CustomerID: f.customer.ID, VehicleID: f.vehicle.ID})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, numbers[inv.Number], "duplicate %s", inv.Number)
			numbers[inv.Number] = true
		}()
	}
	wg.Wait()

	cfg := numerator.DefaultConfig("MFES")
	require.Len(t, numbers, workers)
	for i := int64(1); i <= workers; i++ {
		assert.True(t, numbers[cfg.Format(i)], "missing %s", cfg.Format(i))
	}

	list, err := f.svc.List(context.Background(), ListFilter{Limit: workers})
	require.NoError(t, err)
	for i := 1; i < len(list.Items); i++ {
		assert.Equal(t, list.Items[i-1].NumberSeq+1, list.Items[i].NumberSeq)
	}
}

func TestCreateInvoice_Exhausted(t *testing.T) {
	f := newFixture(t)
	f.numbers.Set(numerator.DefaultConfig("MFES"), 99999)

	_, err := f.svc.CreateInvoice(context.Background(), CreateInput{CustomerID: f.customer.ID, VehicleID: f.vehicle.ID})
	assert.True(t, apperror.IsCode(err, apperror.CodeSequenceExhausted))
}

func TestAddLineItem_OilFilter(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t)
	oil := f.product("Oil Filter", "100.00", f.goods)

	item := f.add(t, inv.ID, oil, 2)
	assert.Equal(t, "200.00", types.FormatMoney(item.ExtendedPrice))
	assert.Equal(t, "34.00", types.FormatMoney(item.TaxAmount))
	assert.Equal(t, "234.00", types.FormatMoney(item.PriceInclTax))
	assert.Equal(t, "goods", item.TaxLabel)
	assert.Equal(t, "Oil Filter", item.ProductName)
	assert.Equal(t, 1, item.Position)

	stored := f.stored(t, inv.ID)
	assert.Equal(t, "200.00", types.FormatMoney(stored.SubtotalExclTax))
	assert.Equal(t, "34.00", types.FormatMoney(stored.TaxTotal))
	assert.Equal(t, "234.00", types.FormatMoney(stored.GrandTotal))
	assert.Equal(t, inv.Number, stored.Number)
	assertConsistent(t, stored)
}

func TestAddLineItem_Errors(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t)
	ctx := context.Background()

	t.Run("invalid quantity", func(t *testing.T) {
		_, err := f.svc.AddLineItem(ctx, inv.ID, ItemInput{ProductID: f.product("A", "1.00", f.goods).ID, Quantity: 0})
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidQuantity))
	})

	t.Run("quantity above column range", func(t *testing.T) {
		tooMany := MaxQuantity
		tooMany++
		_, err := f.svc.AddLineItem(ctx, inv.ID, ItemInput{ProductID: f.product("D", "1.00", f.goods).ID, Quantity: tooMany})
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidQuantity))
	})

	t.Run("missing tax category", func(t *testing.T) {
		_, err := f.svc.AddLineItem(ctx, inv.ID, ItemInput{ProductID: f.product("B", "1.00", nil).ID, Quantity: 1})
		assert.True(t, apperror.IsCode(err, apperror.CodeMissingTaxCategory))
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := f.svc.AddLineItem(ctx, inv.ID, ItemInput{ProductID: id.New(), Quantity: 1})
		require.True(t, apperror.IsNotFound(err))
		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, "product", appErr.Details["entity"])
	})

	t.Run("unknown invoice", func(t *testing.T) {
		_, err := f.svc.AddLineItem(ctx, id.New(), ItemInput{ProductID: f.product("C", "1.00", f.goods).ID, Quantity: 1})
		require.True(t, apperror.IsNotFound(err))
		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, "invoice", appErr.Details["entity"])
	})

	stored := f.stored(t, inv.ID)
	assert.Empty(t, stored.Items)
	assert.True(t, stored.Totals().Equal(ZeroTotals()))
}

func TestAddLineItem_FailingHookRollsBack(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t)
	oil := f.product("Oil Filter", "100.00", f.goods)
	f.add(t, inv.ID, oil, 1)

	boom := errors.New("hook failed")
	f.svc.ItemHooks().OnAfterCreate(func(ctx context.Context, item *LineItem) error {
		return boom
	})

	_, err := f.svc.AddLineItem(context.Background(), inv.ID, ItemInput{ProductID: oil.ID, Quantity: 5})
	require.ErrorIs(t, err, boom)

	stored := f.stored(t, inv.ID)
	assert.Len(t, stored.Items, 1)
	assert.Equal(t, "117.00", types.FormatMoney(stored.GrandTotal))
	assertConsistent(t, stored)
}

func TestGetBill_Variants(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t)
	f.add(t, inv.ID, f.product("Brake Pads", "100.00", f.goods), 1)
	f.add(t, inv.ID, f.product("Wheel Alignment", "50.00", f.service), 1)

	want := map[Variant]string{
		VariantAll:          "174.50",
		VariantGoodsOnly:    "117.00",
		VariantServicesOnly: "57.50",
	}
	for v, total := range want {
		bill, err := f.svc.GetBill(context.Background(), inv.ID, v)
		require.NoError(t, err)
		assert.Equal(t, total, types.FormatMoney(bill.GrandTotal), v)
	}

	_, err := f.svc.GetBill(context.Background(), id.New(), VariantAll)
	assert.True(t, apperror.IsNotFound(err))
}

func TestRemoveLineItem_LastItemZeroesTotals(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t)
	item := f.add(t, inv.ID, f.product("Oil Filter", "100.00", f.goods), 2)

	require.NoError(t, f.svc.RemoveLineItem(context.Background(), inv.ID, item.ID))

	stored := f.stored(t, inv.ID)
	assert.Empty(t, stored.Items)
	assert.Equal(t, "0.00", types.FormatMoney(stored.SubtotalExclTax))
	assert.Equal(t, "0.00", types.FormatMoney(stored.TaxTotal))
	assert.Equal(t, "0.00", types.FormatMoney(stored.GrandTotal))
}

func TestRemoveLineItem_WrongInvoice(t *testing.T) {
	f := newFixture(t)
	a := f.invoice(t)
	b := f.invoice(t)
	item := f.add(t, a.ID, f.product("Oil Filter", "100.00", f.goods), 1)

	err := f.svc.RemoveLineItem(context.Background(), b.ID, item.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Len(t, f.stored(t, a.ID).Items, 1)
}

func TestUpdateLineItem_Snapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.invoice(t)
	oil := f.product("Oil Filter", "100.00", f.goods)
	item := f.add(t, inv.ID, oil, 1)

	// Catalog price changes after the item was saved.
	oil.PriceExclTax = types.MustMoney("150.00")

	note := "synthetic"
	updated, err := f.svc.UpdateLineItem(ctx, inv.ID, item.ID, ItemPatch{Description: &note})
	require.NoError(t, err)
	assert.Equal(t, "100.00", types.FormatMoney(updated.UnitPrice), "description edit keeps historical price")
	assert.Equal(t, "synthetic", *updated.Description)

	qty := 3
	updated, err = f.svc.UpdateLineItem(ctx, inv.ID, item.ID, ItemPatch{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, "150.00", types.FormatMoney(updated.UnitPrice), "quantity edit re-reads the catalog")
	assert.Equal(t, "450.00", types.FormatMoney(updated.ExtendedPrice))
	assert.Equal(t, "526.50", types.FormatMoney(updated.PriceInclTax))
	assertConsistent(t, f.stored(t, inv.ID))

	oil.PriceExclTax = types.MustMoney("200.00")
	updated, err = f.svc.UpdateLineItem(ctx, inv.ID, item.ID, ItemPatch{Refresh: true})
	require.NoError(t, err)
	assert.Equal(t, "200.00", types.FormatMoney(updated.UnitPrice))
	assert.Equal(t, "600.00", types.FormatMoney(updated.ExtendedPrice))

	ac := f.product("AC Service", "3500.00", f.service)
	updated, err = f.svc.UpdateLineItem(ctx, inv.ID, item.ID, ItemPatch{ProductID: &ac.ID})
	require.NoError(t, err)
	assert.Equal(t, "service", updated.TaxLabel)
	assert.Equal(t, "AC Service", updated.ProductName)
	assert.Equal(t, "10500.00", types.FormatMoney(updated.ExtendedPrice))
	assert.Equal(t, "12075.00", types.FormatMoney(updated.PriceInclTax))

	stored := f.stored(t, inv.ID)
	assert.Equal(t, "12075.00", types.FormatMoney(stored.GrandTotal))
	assertConsistent(t, stored)
	assert.Equal(t, 4, f.observer.mutations[OpUpdate])
}

func TestUpdateLineItem_InvalidQuantityKeepsItem(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t)
	item := f.add(t, inv.ID, f.product("Oil Filter", "100.00", f.goods), 2)

	qty := -1
	_, err := f.svc.UpdateLineItem(context.Background(), inv.ID, item.ID, ItemPatch{Quantity: &qty})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidQuantity))
	assert.Equal(t, 2, f.stored(t, inv.ID).Items[0].Quantity)
}

func TestTotalsStayConsistent_RandomMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.invoice(t)

	products := []*product.Product{
		f.product("Oil Filter", "800.00", f.goods),
		f.product("Air Filter", "900.00", f.goods),
		f.product("Brake Pads", "2500.00", f.goods),
		f.product("Wheel Alignment", "1200.00", f.service),
		f.product("AC Service", "3500.00", f.service),
		f.product("Engine Tuning", "5000.00", f.service),
	}

	rng := rand.New(rand.NewSource(42))
	var live []id.ID
	for step := 0; step < 200; step++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(live) == 0:
			p := products[rng.Intn(len(products))]
			item := f.add(t, inv.ID, p, 1+rng.Intn(9))
			live = append(live, item.ID)
		case op == 1:
			qty := 1 + rng.Intn(9)
			_, err := f.svc.UpdateLineItem(ctx, inv.ID, live[rng.Intn(len(live))], ItemPatch{Quantity: &qty})
			require.NoError(t, err)
		default:
			i := rng.Intn(len(live))
			require.NoError(t, f.svc.RemoveLineItem(ctx, inv.ID, live[i]))
			live = append(live[:i], live[i+1:]...)
		}

		stored := f.stored(t, inv.ID)
		require.Len(t, stored.Items, len(live))
		require.True(t, stored.Totals().Equal(Aggregate(stored.Items)), "step %d", step)
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.invoice(t)
	f.add(t, inv.ID, f.product("Oil Filter", "100.00", f.goods), 2)

	first, err := f.svc.Recompute(ctx, inv.ID)
	require.NoError(t, err)
	second, err := f.svc.Recompute(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
	assert.Equal(t, inv.Number, f.stored(t, inv.ID).Number)

	_, err = f.svc.Recompute(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.invoice(t)
	f.add(t, inv.ID, f.product("Oil Filter", "100.00", f.goods), 1)

	got, err := f.svc.SetStatus(ctx, inv.ID, StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.Status)
	assert.Equal(t, "117.00", types.FormatMoney(got.GrandTotal))
	assert.Equal(t, inv.Number, got.Number)

	_, err = f.svc.SetStatus(ctx, inv.ID, Status("refunded"))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = f.svc.SetStatus(ctx, id.New(), StatusPartial)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDelete_NumberNotReused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.invoice(t)
	f.add(t, first.ID, f.product("Oil Filter", "100.00", f.goods), 1)

	require.NoError(t, f.svc.Delete(ctx, first.ID))
	_, err := f.svc.GetByID(ctx, first.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, f.repo.items)

	assert.Equal(t, "MFES00002", f.invoice(t).Number)
	assert.True(t, apperror.IsNotFound(f.svc.Delete(ctx, first.ID)))
}

func TestBillReport(t *testing.T) {
	f := newFixture(t)
	goods := f.product("Brake Pads", "100.00", f.goods)
	svc := f.product("Wheel Alignment", "50.00", f.service)

	a := f.invoice(t)
	f.add(t, a.ID, goods, 1)
	f.add(t, a.ID, svc, 1)
	b := f.invoice(t)
	f.add(t, b.ID, svc, 2)

	report, err := f.svc.BillReport(context.Background(), DefaultListFilter())
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, a.ID, report.Rows[0].Invoice.ID)
	assert.Equal(t, "174.50", types.FormatMoney(report.Rows[0].All.GrandTotal))
	assert.Equal(t, "115.00", types.FormatMoney(report.Rows[1].Services.GrandTotal))
	assert.Equal(t, "0.00", types.FormatMoney(report.Rows[1].Goods.GrandTotal))

	assert.Equal(t, "289.50", types.FormatMoney(report.All.GrandTotal))
	assert.Equal(t, "117.00", types.FormatMoney(report.Goods.GrandTotal))
	assert.Equal(t, "172.50", types.FormatMoney(report.Services.GrandTotal))
	assert.True(t, report.All.Equal(report.Goods.Add(report.Services)))
}

func TestInvoiceValidate(t *testing.T) {
	inv := &Invoice{Document: entity.NewDocument(), Status: StatusUnpaid}
	assert.Error(t, inv.Validate(context.Background()))

	inv = NewInvoice(id.New(), id.New())
	assert.NoError(t, inv.Validate(context.Background()))

	_, err := ParseStatus("PAID")
	assert.NoError(t, err)
	_, err = ParseStatus("void")
	assert.Error(t, err)
}

// readerWith builds a second service over the same store and lock whose repo
// runs between after the invoice rows are read.
func (f *fixture) readerWith(between func()) *Service {
	return NewService(Deps{
		Repo:       &interleavingRepo{memRepo: f.repo, between: between},
		Products:   productGetter{f.catalog},
		Categories: f.catalog,
		Customers:  customerGetter{f.catalog},
		Vehicles:   vehicleGetter{f.catalog},
		Numbers:    f.numbers,
		TxManager:  f.tx,
	})
}

// concurrentAdd starts an AddLineItem and gives it a moment to commit.
// A read holding its snapshot keeps the add waiting.
func (f *fixture) concurrentAdd(invoiceID id.ID, p *product.Product, done chan<- error) func() {
	return func() {
		finished := make(chan struct{})
		go func() {
			defer close(finished)
			_, err := f.svc.AddLineItem(context.Background(), invoiceID, ItemInput{ProductID: p.ID, Quantity: 1})
			done <- err
		}()
		select {
		case <-finished:
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestGetBill_ReadsItemsAndTotalsTogether(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t)
	f.add(t, inv.ID, f.product("Oil Filter", "100.00", f.goods), 1)
	ac := f.product("AC Service", "3500.00", f.service)

	done := make(chan error, 1)
	reader := f.readerWith(f.concurrentAdd(inv.ID, ac, done))

	view, err := reader.GetBill(context.Background(), inv.ID, VariantAll)
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.True(t, view.Totals.Equal(Aggregate(view.Items)),
		"bill totals %+v, items %+v", view.Totals, Aggregate(view.Items))

	stored := f.stored(t, inv.ID)
	assert.Len(t, stored.Items, 2)
	assertConsistent(t, stored)
}

func TestBillReport_ReadsPageAndItemsTogether(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t)
	f.add(t, inv.ID, f.product("Oil Filter", "100.00", f.goods), 2)
	ac := f.product("AC Service", "3500.00", f.service)

	done := make(chan error, 1)
	reader := f.readerWith(f.concurrentAdd(inv.ID, ac, done))

	report, err := reader.BillReport(context.Background(), DefaultListFilter())
	require.NoError(t, err)
	require.NoError(t, <-done)

	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.True(t, row.All.Equal(row.Goods.Add(row.Services)),
		"all %+v, goods %+v, services %+v", row.All, row.Goods, row.Services)
	assert.True(t, row.All.Equal(Aggregate(row.Invoice.Items)))
}
