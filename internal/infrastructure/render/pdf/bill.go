// Package pdf renders bill variants as PDF documents.
//
// Page layout (A4):
//
//	seller name, NTN, GST        | title, invoice number, date
//	customer, address, STRN/NTN  | vehicle make and registration
//	S.No | HS Code | Description | Qty | Unit Price | Amount | Tax % | Tax Amt | Total
//	                               subtotal / sales tax / grand total
//	signature line
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"autobill/internal/core/types"
	"autobill/internal/domain/catalogs/customer"
	"autobill/internal/domain/catalogs/vehicle"
	"autobill/internal/domain/documents/invoice"
)

var tracer = otel.Tracer("autobill/render")

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// Seller identifies the workshop printed in the bill header.
type Seller struct {
	Name string
	NTN  string
	GST  string
}

// Bill is everything one rendered document needs.
type Bill struct {
	View     invoice.BillView
	Customer *customer.Customer
	Vehicle  *vehicle.Vehicle
}

// Renderer produces PDF bills.
type Renderer struct {
	seller Seller
}

// NewRenderer creates a renderer for seller.
func NewRenderer(seller Seller) *Renderer {
	return &Renderer{seller: seller}
}

// Filename returns the download name of an invoice's bill.
func Filename(number string) string {
	return "Invoice_" + number + ".pdf"
}

// Render draws bill and returns the PDF bytes.
func (r *Renderer) Render(ctx context.Context, bill Bill) ([]byte, error) {
	if bill.View.Invoice == nil {
		return nil, fmt.Errorf("pdf: bill has no invoice")
	}
	inv := bill.View.Invoice

	_, span := tracer.Start(ctx, "bill.render", trace.WithAttributes(
		attribute.String("invoice.number", inv.Number),
		attribute.String("bill.variant", string(bill.View.Variant)),
		attribute.Int("bill.items", len(bill.View.Items)),
	))
	defer span.End()

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title(bill.View.Variant)+" "+inv.Number, true).
		WithAuthor(r.seller.Name, true).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRows(r.headerRow(bill))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partiesRow(bill))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for i := range bill.View.Items {
		m.AddRows(itemRow(i+1, &bill.View.Items[i]))
	}
	if len(bill.View.Items) == 0 {
		m.AddRows(text.NewRow(8, "No items", props.Text{Size: 8, Align: align.Center, Color: colorGray, Top: 2}))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRows(bill.View.Totals)...)

	m.AddRows(line.NewRow(20))
	m.AddRows(signatureRows()...)

	doc, err := m.Generate()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return nil, fmt.Errorf("pdf: generate document: %w", err)
	}
	return doc.GetBytes(), nil
}

func title(v invoice.Variant) string {
	switch v {
	case invoice.VariantGoodsOnly:
		return "SALES TAX INVOICE (GOODS)"
	case invoice.VariantServicesOnly:
		return "SERVICES INVOICE"
	default:
		return "SALES TAX INVOICE"
	}
}

func (r *Renderer) headerRow(bill Bill) core.Row {
	inv := bill.View.Invoice
	return row.New(20).Add(
		col.New(7).Add(
			text.New(r.seller.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("NTN: "+r.seller.NTN, props.Text{Size: 8, Top: 9, Color: colorGray}),
			text.New("GST: "+r.seller.GST, props.Text{Size: 8, Top: 13, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(title(bill.View.Variant), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(inv.Number, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7}),
			text.New("Date: "+inv.Date.Format("02/01/2006"), props.Text{Size: 8, Align: align.Right, Top: 14, Color: colorGray}),
		),
	)
}

func partiesRow(bill Bill) core.Row {
	customerCol := col.New(7)
	if c := bill.Customer; c != nil {
		customerCol.Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary}),
			text.New(c.Name, props.Text{Style: fontstyle.Bold, Size: 9, Top: 4}),
			text.New(deref(c.Address), props.Text{Size: 8, Top: 8}),
			text.New("STRN: "+deref(c.STRN)+"   NTN: "+deref(c.NTN), props.Text{Size: 8, Top: 12, Color: colorGray}),
		)
	}

	vehicleCol := col.New(5)
	if v := bill.Vehicle; v != nil {
		vehicleCol.Add(
			text.New("Vehicle", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary}),
			text.New(v.Make, props.Text{Size: 9, Align: align.Right, Top: 4}),
			text.New(v.Number, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 8}),
		)
	}

	return row.New(18).Add(customerCol, vehicleCol)
}

func tableHeaderRow() core.Row {
	header := props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}
	right := header
	right.Align = align.Right

	return row.New(8).Add(
		text.NewCol(1, "S.No", header),
		text.NewCol(1, "HS Code", header),
		text.NewCol(3, "Description", header),
		text.NewCol(1, "Qty", right),
		text.NewCol(1, "Unit Price", right),
		text.NewCol(1, "Amount", right),
		text.NewCol(1, "Tax %", right),
		text.NewCol(1, "Tax Amt", right),
		text.NewCol(2, "Total", right),
	)
}

func itemRow(n int, li *invoice.LineItem) core.Row {
	cell := props.Text{Size: 8, Top: 1}
	right := cell
	right.Align = align.Right

	description := li.ProductName
	if li.Description != nil && *li.Description != "" {
		description += " - " + *li.Description
	}

	return row.New(7).Add(
		text.NewCol(1, strconv.Itoa(n), cell),
		text.NewCol(1, deref(li.HSCode), cell),
		text.NewCol(3, description, cell),
		text.NewCol(1, strconv.Itoa(li.Quantity), right),
		text.NewCol(1, types.FormatMoney(li.UnitPrice), right),
		text.NewCol(1, types.FormatMoney(li.ExtendedPrice), right),
		text.NewCol(1, li.TaxRate.StringFixed(2), right),
		text.NewCol(1, types.FormatMoney(li.TaxAmount), right),
		text.NewCol(2, types.FormatMoney(li.PriceInclTax), right),
	)
}

func totalsRows(t invoice.Totals) []core.Row {
	label := props.Text{Size: 9, Top: 1}
	value := props.Text{Size: 9, Top: 1, Align: align.Right}
	bold := props.Text{Size: 10, Top: 1, Style: fontstyle.Bold}
	boldValue := props.Text{Size: 10, Top: 1, Style: fontstyle.Bold, Align: align.Right}

	return []core.Row{
		row.New(6).Add(col.New(7), text.NewCol(3, "Subtotal (excl. tax)", label), text.NewCol(2, types.FormatMoney(t.Subtotal), value)),
		row.New(6).Add(col.New(7), text.NewCol(3, "Sales tax", label), text.NewCol(2, types.FormatMoney(t.TaxTotal), value)),
		row.New(8).Add(col.New(7), text.NewCol(3, "Grand total", bold), text.NewCol(2, types.FormatMoney(t.GrandTotal), boldValue)),
	}
}

func signatureRows() []core.Row {
	return []core.Row{
		row.New(1).Add(col.New(8), line.NewCol(4, props.Line{Color: colorGray, Thickness: 0.3})),
		row.New(6).Add(col.New(8), text.NewCol(4, "Authorized signature", props.Text{Size: 8, Align: align.Center, Color: colorGray, Top: 1})),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
