package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autobill/internal/core/id"
	"autobill/internal/core/types"
)

func pricedItem(t *testing.T, label, price string, qty int, r string) LineItem {
	t.Helper()
	item := NewLineItem(id.New(), id.New(), qty)
	item.UnitPrice = types.MustMoney(price)
	item.TaxLabel = label
	item.TaxRate = types.MustMoney(r)
	require.NoError(t, item.Reprice())
	return *item
}

func invoiceWith(items ...LineItem) *Invoice {
	inv := NewInvoice(id.New(), id.New())
	for i := range items {
		items[i].InvoiceID = inv.ID
		items[i].Position = i + 1
	}
	inv.Items = items
	inv.ApplyTotals(Aggregate(items))
	return inv
}

func TestPartition_GoodsAndServices(t *testing.T) {
	inv := invoiceWith(
		pricedItem(t, "goods", "100.00", 1, "17"),
		pricedItem(t, "service", "50.00", 1, "15"),
	)

	all, err := Partition(inv, VariantAll)
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	assert.Equal(t, "174.50", types.FormatMoney(all.GrandTotal))

	goods, err := Partition(inv, VariantGoodsOnly)
	require.NoError(t, err)
	require.Len(t, goods.Items, 1)
	assert.Equal(t, "100.00", types.FormatMoney(goods.Subtotal))
	assert.Equal(t, "17.00", types.FormatMoney(goods.TaxTotal))
	assert.Equal(t, "117.00", types.FormatMoney(goods.GrandTotal))

	services, err := Partition(inv, VariantServicesOnly)
	require.NoError(t, err)
	require.Len(t, services.Items, 1)
	assert.Equal(t, "57.50", types.FormatMoney(services.GrandTotal))
}

func TestPartition_LabelMatchIgnoresCase(t *testing.T) {
	inv := invoiceWith(
		pricedItem(t, "GOODS", "10.00", 1, "17"),
		pricedItem(t, " Service ", "10.00", 1, "15"),
	)

	goods, err := Partition(inv, VariantGoodsOnly)
	require.NoError(t, err)
	assert.Len(t, goods.Items, 1)

	services, err := Partition(inv, VariantServicesOnly)
	require.NoError(t, err)
	assert.Len(t, services.Items, 1)
}

func TestPartition_IsTruePartition(t *testing.T) {
	uncategorized := pricedItem(t, "goods", "5.00", 1, "0")
	uncategorized.TaxLabel = ""

	inv := invoiceWith(
		pricedItem(t, "service", "1200.00", 1, "15"),
		pricedItem(t, "goods", "800.00", 2, "17"),
		uncategorized,
		pricedItem(t, "exempt", "20.00", 1, "0"),
		pricedItem(t, "goods", "2500.00", 1, "17"),
		pricedItem(t, "service", "3500.00", 3, "15"),
	)

	all, err := Partition(inv, VariantAll)
	require.NoError(t, err)
	goods, err := Partition(inv, VariantGoodsOnly)
	require.NoError(t, err)
	services, err := Partition(inv, VariantServicesOnly)
	require.NoError(t, err)

	seen := make(map[id.ID]Variant)
	for _, it := range goods.Items {
		seen[it.ID] = VariantGoodsOnly
	}
	for _, it := range services.Items {
		_, dup := seen[it.ID]
		assert.False(t, dup, "item %s in both variants", it.ID)
		seen[it.ID] = VariantServicesOnly
	}

	var expected []id.ID
	for _, it := range all.Items {
		if it.TaxLabel == "goods" || it.TaxLabel == "service" {
			expected = append(expected, it.ID)
		}
	}
	assert.Len(t, seen, len(expected))
	for _, itemID := range expected {
		assert.Contains(t, seen, itemID)
	}

	// Order follows the invoice.
	for i := 1; i < len(goods.Items); i++ {
		assert.Less(t, goods.Items[i-1].Position, goods.Items[i].Position)
	}
	for i := 1; i < len(services.Items); i++ {
		assert.Less(t, services.Items[i-1].Position, services.Items[i].Position)
	}

	assert.True(t, goods.Totals.Equal(Aggregate(goods.Items)))
	assert.True(t, services.Totals.Equal(Aggregate(services.Items)))
	assert.True(t, all.Totals.Equal(inv.Totals()))
}

func TestPartition_EmptySelection(t *testing.T) {
	inv := invoiceWith(pricedItem(t, "goods", "10.00", 1, "17"))

	services, err := Partition(inv, VariantServicesOnly)
	require.NoError(t, err)
	assert.Empty(t, services.Items)
	assert.NotNil(t, services.Items)
	assert.True(t, services.Totals.Equal(ZeroTotals()))
	assert.Equal(t, "0.00", types.FormatMoney(services.GrandTotal))
}

func TestPartition_UnknownVariant(t *testing.T) {
	_, err := Partition(invoiceWith(), Variant("SOMETHING"))
	assert.Error(t, err)
}

func TestParseVariant(t *testing.T) {
	cases := map[string]Variant{
		"":              VariantAll,
		"all":           VariantAll,
		"GOODS_ONLY":    VariantGoodsOnly,
		"goods":         VariantGoodsOnly,
		"services_only": VariantServicesOnly,
		"services":      VariantServicesOnly,
	}
	for in, want := range cases {
		got, err := ParseVariant(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseVariant("tax")
	assert.Error(t, err)
}

func TestAggregate(t *testing.T) {
	assert.True(t, Aggregate(nil).Equal(ZeroTotals()))

	items := []LineItem{
		pricedItem(t, "goods", "100.00", 2, "17"),
		pricedItem(t, "service", "50.00", 1, "15"),
	}
	got := Aggregate(items)
	assert.Equal(t, "250.00", types.FormatMoney(got.Subtotal))
	assert.Equal(t, "41.50", types.FormatMoney(got.TaxTotal))
	assert.Equal(t, "291.50", types.FormatMoney(got.GrandTotal))

	// Idempotent and order independent.
	assert.True(t, got.Equal(Aggregate(items)))
	assert.True(t, got.Equal(Aggregate([]LineItem{items[1], items[0]})))
}
