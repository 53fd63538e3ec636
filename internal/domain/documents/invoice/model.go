// Package invoice implements the invoice ledger: priced line items, derived
// invoice totals, strictly increasing invoice numbers and bill variants.
package invoice

import (
	"context"
	"strings"
	"time"

	"autobill/internal/core/apperror"
	"autobill/internal/core/entity"
	"autobill/internal/core/id"
	"autobill/internal/core/types"
)

// Status is the payment status label of an invoice.
type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPaid    Status = "paid"
	StatusPartial Status = "partial"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusUnpaid, StatusPaid, StatusPartial:
		return true
	}
	return false
}

// ParseStatus converts a caller supplied label into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", apperror.NewValidation("unknown invoice status").
			WithDetail("field", "status").
			WithDetail("value", s).
			WithDetail("allowed", []Status{StatusUnpaid, StatusPaid, StatusPartial})
	}
	return st, nil
}

// Invoice is a billable document for repair work on a customer's vehicle.
// The three monetary fields are derived from Items and only written by recomputation.
type Invoice struct {
	entity.Document

	CustomerID id.ID  `db:"customer_id" json:"customerId"`
	VehicleID  id.ID  `db:"vehicle_id" json:"vehicleId"`
	Status     Status `db:"status" json:"status"`

	SubtotalExclTax types.Money `db:"subtotal_excl_tax" json:"subtotalExclTax"`
	TaxTotal        types.Money `db:"tax_total" json:"taxTotal"`
	GrandTotal      types.Money `db:"grand_total" json:"grandTotal"`

	// Items ordered by Position; loaded separately from the invoice row
	Items []LineItem `db:"-" json:"items"`
}

// NewInvoice creates an unnumbered, unpaid invoice with zero totals.
func NewInvoice(customerID, vehicleID id.ID) *Invoice {
	return &Invoice{
		Document:        entity.NewDocument(),
		CustomerID:      customerID,
		VehicleID:       vehicleID,
		Status:          StatusUnpaid,
		SubtotalExclTax: types.Zero(),
		TaxTotal:        types.Zero(),
		GrandTotal:      types.Zero(),
	}
}

// Validate implements entity.Validatable interface.
func (inv *Invoice) Validate(ctx context.Context) error {
	if err := inv.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(inv.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if id.IsNil(inv.VehicleID) {
		return apperror.NewValidation("vehicle is required").
			WithDetail("field", "vehicleId")
	}
	if !inv.Status.IsValid() {
		return apperror.NewValidation("unknown invoice status").
			WithDetail("field", "status").
			WithDetail("value", string(inv.Status))
	}
	return nil
}

// Totals returns the stored derived totals.
func (inv *Invoice) Totals() Totals {
	return Totals{
		Subtotal:   inv.SubtotalExclTax,
		TaxTotal:   inv.TaxTotal,
		GrandTotal: inv.GrandTotal,
	}
}

// ApplyTotals overwrites the derived totals.
func (inv *Invoice) ApplyTotals(t Totals) {
	inv.SubtotalExclTax = t.Subtotal
	inv.TaxTotal = t.TaxTotal
	inv.GrandTotal = t.GrandTotal
}

// LineItem is one priced product/quantity entry on an invoice.
//
// Product name, HS code, unit price and tax category are copied from the
// catalog when the item is priced, so later catalog edits do not alter saved
// items.
type LineItem struct {
	ID          id.ID   `db:"id" json:"id"`
	InvoiceID   id.ID   `db:"invoice_id" json:"invoiceId"`
	Position    int     `db:"position" json:"position"`
	ProductID   id.ID   `db:"product_id" json:"productId"`
	Description *string `db:"description" json:"description,omitempty"`
	Quantity    int     `db:"quantity" json:"quantity"`

	// Snapshot
	ProductName   string      `db:"product_name" json:"productName"`
	HSCode        *string     `db:"hs_code" json:"hsCode,omitempty"`
	UnitPrice     types.Money `db:"unit_price" json:"unitPrice"`
	TaxCategoryID *id.ID      `db:"tax_category_id" json:"taxCategoryId,omitempty"`
	TaxLabel      string      `db:"tax_label" json:"taxLabel"`
	TaxRate       types.Rate  `db:"tax_rate" json:"taxRate"`

	// Computed
	ExtendedPrice types.Money `db:"extended_price" json:"extendedPrice"`
	TaxAmount     types.Money `db:"tax_amount" json:"taxAmount"`
	PriceInclTax  types.Money `db:"price_incl_tax" json:"priceInclTax"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewLineItem creates an unpriced item for invoiceID.
func NewLineItem(invoiceID, productID id.ID, quantity int) *LineItem {
	now := time.Now().UTC()
	return &LineItem{
		ID:        id.New(),
		InvoiceID: invoiceID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Categorized reports whether the item carries a tax category snapshot.
func (li *LineItem) Categorized() bool {
	return strings.TrimSpace(li.TaxLabel) != ""
}

// Amounts returns the computed monetary fields.
func (li *LineItem) Amounts() Amounts {
	return Amounts{
		ExtendedPrice: li.ExtendedPrice,
		TaxAmount:     li.TaxAmount,
		PriceInclTax:  li.PriceInclTax,
	}
}

func (li *LineItem) applyAmounts(a Amounts) {
	li.ExtendedPrice = a.ExtendedPrice
	li.TaxAmount = a.TaxAmount
	li.PriceInclTax = a.PriceInclTax
}

// Reprice recomputes the computed fields from the item's own snapshot.
func (li *LineItem) Reprice() error {
	rate := li.TaxRate
	var ratePtr *types.Rate
	if li.Categorized() {
		ratePtr = &rate
	}
	a, err := Compute(li.UnitPrice, li.Quantity, ratePtr)
	if err != nil {
		if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeMissingTaxCategory {
			appErr.WithDetail("product_id", li.ProductID.String())
		}
		return err
	}
	li.applyAmounts(a)
	li.UpdatedAt = time.Now().UTC()
	return nil
}
