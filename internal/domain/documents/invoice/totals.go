package invoice

import (
	"autobill/internal/core/types"
)

// Totals are the derived invoice-level amounts.
type Totals struct {
	Subtotal   types.Money `json:"subtotal"`
	TaxTotal   types.Money `json:"taxTotal"`
	GrandTotal types.Money `json:"grandTotal"`
}

// ZeroTotals returns the totals of an invoice without items.
func ZeroTotals() Totals {
	return Totals{
		Subtotal:   types.Zero(),
		TaxTotal:   types.Zero(),
		GrandTotal: types.Zero(),
	}
}

// Aggregate sums the computed fields of items. Order does not matter and the
// result for an empty slice is all zero.
func Aggregate(items []LineItem) Totals {
	t := ZeroTotals()
	for i := range items {
		t.Subtotal = t.Subtotal.Add(items[i].ExtendedPrice)
		t.TaxTotal = t.TaxTotal.Add(items[i].TaxAmount)
		t.GrandTotal = t.GrandTotal.Add(items[i].PriceInclTax)
	}
	return Totals{
		Subtotal:   types.RoundMoney(t.Subtotal),
		TaxTotal:   types.RoundMoney(t.TaxTotal),
		GrandTotal: types.RoundMoney(t.GrandTotal),
	}
}

// Equal compares amounts numerically, ignoring representation scale.
func (t Totals) Equal(o Totals) bool {
	return t.Subtotal.Equal(o.Subtotal) &&
		t.TaxTotal.Equal(o.TaxTotal) &&
		t.GrandTotal.Equal(o.GrandTotal)
}

// Add returns the element-wise sum of t and o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Subtotal:   t.Subtotal.Add(o.Subtotal),
		TaxTotal:   t.TaxTotal.Add(o.TaxTotal),
		GrandTotal: t.GrandTotal.Add(o.GrandTotal),
	}
}
