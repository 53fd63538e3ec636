package dto

import (
	"time"

	"autobill/internal/core/id"
	"autobill/internal/domain/documents/invoice"
)

// --- Request DTOs ---

// CreateInvoiceRequest is the request body for creating an invoice.
type CreateInvoiceRequest struct {
	CustomerID string     `json:"customerId" binding:"required"`
	VehicleID  string     `json:"vehicleId" binding:"required"`
	Date       *time.Time `json:"date"`
}

// ToInput converts DTO to service input.
func (r *CreateInvoiceRequest) ToInput(createdBy string) (invoice.CreateInput, error) {
	customerID, err := id.ParseField("customerId", r.CustomerID)
	if err != nil {
		return invoice.CreateInput{}, err
	}
	vehicleID, err := id.ParseField("vehicleId", r.VehicleID)
	if err != nil {
		return invoice.CreateInput{}, err
	}
	return invoice.CreateInput{
		CustomerID: customerID,
		VehicleID:  vehicleID,
		Date:       r.Date,
		CreatedBy:  createdBy,
	}, nil
}

// SetStatusRequest is the request body for changing the payment status.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AddLineItemRequest is the request body for adding a line item.
type AddLineItemRequest struct {
	ProductID   string  `json:"productId" binding:"required"`
	Quantity    int     `json:"quantity"`
	Description *string `json:"description"`
}

// ToInput converts DTO to service input.
func (r *AddLineItemRequest) ToInput() (invoice.ItemInput, error) {
	productID, err := id.ParseField("productId", r.ProductID)
	if err != nil {
		return invoice.ItemInput{}, err
	}
	return invoice.ItemInput{
		ProductID:   productID,
		Quantity:    r.Quantity,
		Description: r.Description,
	}, nil
}

// UpdateLineItemRequest is the request body for changing a line item.
// Absent fields are left unchanged.
type UpdateLineItemRequest struct {
	ProductID   *string `json:"productId"`
	Quantity    *int    `json:"quantity"`
	Description *string `json:"description"`
	Refresh     bool    `json:"refresh"`
}

// ToPatch converts DTO to service patch.
func (r *UpdateLineItemRequest) ToPatch() (invoice.ItemPatch, error) {
	productID, err := parseOptionalID("productId", r.ProductID)
	if err != nil {
		return invoice.ItemPatch{}, err
	}
	return invoice.ItemPatch{
		ProductID:   productID,
		Quantity:    r.Quantity,
		Description: r.Description,
		Refresh:     r.Refresh,
	}, nil
}

// --- Response DTOs ---

// TotalsResponse renders invoice or bill totals.
type TotalsResponse struct {
	SubtotalExclTax string `json:"subtotalExclTax"`
	TaxTotal        string `json:"taxTotal"`
	GrandTotal      string `json:"grandTotal"`
}

// FromTotals creates response DTO from totals.
func FromTotals(t invoice.Totals) TotalsResponse {
	return TotalsResponse{
		SubtotalExclTax: Money(t.Subtotal),
		TaxTotal:        Money(t.TaxTotal),
		GrandTotal:      Money(t.GrandTotal),
	}
}

// LineItemResponse is the response body for a line item.
type LineItemResponse struct {
	ID            string    `json:"id"`
	Position      int       `json:"position"`
	ProductID     string    `json:"productId"`
	ProductName   string    `json:"productName"`
	Description   *string   `json:"description,omitempty"`
	HSCode        *string   `json:"hsCode,omitempty"`
	Quantity      int       `json:"quantity"`
	UnitPrice     string    `json:"unitPrice"`
	TaxCategoryID *string   `json:"taxCategoryId,omitempty"`
	TaxLabel      string    `json:"taxLabel"`
	TaxRate       string    `json:"taxRate"`
	ExtendedPrice string    `json:"extendedPrice"`
	TaxAmount     string    `json:"taxAmount"`
	PriceInclTax  string    `json:"priceInclTax"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FromLineItem creates response DTO from a line item.
func FromLineItem(li *invoice.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:            li.ID.String(),
		Position:      li.Position,
		ProductID:     li.ProductID.String(),
		ProductName:   li.ProductName,
		Description:   li.Description,
		HSCode:        li.HSCode,
		Quantity:      li.Quantity,
		UnitPrice:     Money(li.UnitPrice),
		TaxCategoryID: optionalID(li.TaxCategoryID),
		TaxLabel:      li.TaxLabel,
		TaxRate:       Rate(li.TaxRate),
		ExtendedPrice: Money(li.ExtendedPrice),
		TaxAmount:     Money(li.TaxAmount),
		PriceInclTax:  Money(li.PriceInclTax),
		UpdatedAt:     li.UpdatedAt,
	}
}

func fromLineItems(items []invoice.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, len(items))
	for i := range items {
		out[i] = FromLineItem(&items[i])
	}
	return out
}

// LineItemMutationResponse returns a changed item with the invoice totals
// recomputed in the same transaction.
type LineItemMutationResponse struct {
	Item   *LineItemResponse `json:"item,omitempty"`
	Totals TotalsResponse    `json:"totals"`
}

// InvoiceResponse is the response body for an invoice.
type InvoiceResponse struct {
	ID         string    `json:"id"`
	Number     string    `json:"number"`
	Date       time.Time `json:"date"`
	CustomerID string    `json:"customerId"`
	VehicleID  string    `json:"vehicleId"`
	Status     string    `json:"status"`
	TotalsResponse
	Items     []LineItemResponse `json:"items,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	CreatedBy string             `json:"createdBy,omitempty"`
}

// FromInvoice creates response DTO from an invoice, including loaded items.
func FromInvoice(inv *invoice.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:             inv.ID.String(),
		Number:         inv.Number,
		Date:           inv.Date,
		CustomerID:     inv.CustomerID.String(),
		VehicleID:      inv.VehicleID.String(),
		Status:         string(inv.Status),
		TotalsResponse: FromTotals(inv.Totals()),
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
		CreatedBy:      inv.CreatedBy,
	}
	if inv.Items != nil {
		resp.Items = fromLineItems(inv.Items)
	}
	return resp
}

// BillResponse is the response body of one bill variant.
type BillResponse struct {
	InvoiceID string             `json:"invoiceId"`
	Number    string             `json:"number"`
	Variant   string             `json:"variant"`
	Items     []LineItemResponse `json:"items"`
	TotalsResponse
}

// FromBill creates response DTO from a bill view.
func FromBill(view invoice.BillView) BillResponse {
	resp := BillResponse{
		Variant:        string(view.Variant),
		Items:          fromLineItems(view.Items),
		TotalsResponse: FromTotals(view.Totals),
	}
	if view.Invoice != nil {
		resp.InvoiceID = view.Invoice.ID.String()
		resp.Number = view.Invoice.Number
	}
	return resp
}

// --- Report ---

// BillReportRow is one invoice of the bill report.
type BillReportRow struct {
	InvoiceID  string         `json:"invoiceId"`
	Number     string         `json:"number"`
	Date       time.Time      `json:"date"`
	CustomerID string         `json:"customerId"`
	Status     string         `json:"status"`
	All        TotalsResponse `json:"all"`
	Goods      TotalsResponse `json:"goods"`
	Services   TotalsResponse `json:"services"`
}

// BillReportResponse is the response body of the bill report.
type BillReportResponse struct {
	Rows       []BillReportRow `json:"rows"`
	TotalCount int64           `json:"totalCount"`
	All        TotalsResponse  `json:"all"`
	Goods      TotalsResponse  `json:"goods"`
	Services   TotalsResponse  `json:"services"`
}

// FromReport creates response DTO from a bill report.
func FromReport(r invoice.Report) BillReportResponse {
	rows := make([]BillReportRow, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = BillReportRow{
			InvoiceID:  row.Invoice.ID.String(),
			Number:     row.Invoice.Number,
			Date:       row.Invoice.Date,
			CustomerID: row.Invoice.CustomerID.String(),
			Status:     string(row.Invoice.Status),
			All:        FromTotals(row.All),
			Goods:      FromTotals(row.Goods),
			Services:   FromTotals(row.Services),
		}
	}
	return BillReportResponse{
		Rows:       rows,
		TotalCount: r.TotalCount,
		All:        FromTotals(r.All),
		Goods:      FromTotals(r.Goods),
		Services:   FromTotals(r.Services),
	}
}
