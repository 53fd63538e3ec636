package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"autobill/internal/core/apperror"
	"autobill/internal/core/id"
	"autobill/internal/domain"
	"autobill/internal/domain/documents/invoice"
	"autobill/internal/infrastructure/http/v1/dto"
	"autobill/internal/infrastructure/render/pdf"
	"autobill/pkg/logger"
)

// InvoiceService is the invoice behaviour the handler depends on.
// *invoice.Service satisfies it.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, in invoice.CreateInput) (*invoice.Invoice, error)
	GetByID(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error)
	List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error)
	SetStatus(ctx context.Context, invoiceID id.ID, status invoice.Status) (*invoice.Invoice, error)
	Delete(ctx context.Context, invoiceID id.ID) error
	Recompute(ctx context.Context, invoiceID id.ID) (invoice.Totals, error)

	AddLineItem(ctx context.Context, invoiceID id.ID, in invoice.ItemInput) (*invoice.LineItem, error)
	UpdateLineItem(ctx context.Context, invoiceID, itemID id.ID, patch invoice.ItemPatch) (*invoice.LineItem, error)
	RemoveLineItem(ctx context.Context, invoiceID, itemID id.ID) error

	GetBill(ctx context.Context, invoiceID id.ID, variant invoice.Variant) (invoice.BillView, error)
	BillReport(ctx context.Context, filter invoice.ListFilter) (invoice.Report, error)
}

// BillRenderer turns a bill into a document.
type BillRenderer interface {
	Render(ctx context.Context, bill pdf.Bill) ([]byte, error)
}

// InvoiceHandlerConfig configures the invoice handler.
type InvoiceHandlerConfig struct {
	Service   InvoiceService
	Customers invoice.CustomerGetter
	Vehicles  invoice.VehicleGetter
	Renderer  BillRenderer
}

// InvoiceHandler handles invoice, line item, bill and report requests.
type InvoiceHandler struct {
	*BaseHandler
	service   InvoiceService
	customers invoice.CustomerGetter
	vehicles  invoice.VehicleGetter
	renderer  BillRenderer
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, cfg InvoiceHandlerConfig) *InvoiceHandler {
	return &InvoiceHandler{
		BaseHandler: base,
		service:     cfg.Service,
		customers:   cfg.Customers,
		vehicles:    cfg.Vehicles,
		renderer:    cfg.Renderer,
	}
}

// --- Invoices ---

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput(h.GetOperatorID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	inv, err := h.service.CreateInvoice(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromInvoice(inv))
}

// List handles GET /invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	filter, ok := h.parseListFilter(c)
	if !ok {
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.InvoiceResponse, len(result.Items))
	for i, inv := range result.Items {
		items[i] = dto.FromInvoice(inv)
	}

	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(inv))
}

// Delete handles DELETE /invoices/:id.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), invoiceID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// SetStatus handles PUT /invoices/:id/status.
func (h *InvoiceHandler) SetStatus(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	status, err := invoice.ParseStatus(req.Status)
	if err != nil {
		h.Error(c, err)
		return
	}

	inv, err := h.service.SetStatus(c.Request.Context(), invoiceID, status)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(inv))
}

// Recompute handles POST /invoices/:id/recompute.
func (h *InvoiceHandler) Recompute(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	totals, err := h.service.Recompute(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTotals(totals))
}

// --- Line items ---

// AddItem handles POST /invoices/:id/items.
func (h *InvoiceHandler) AddItem(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AddLineItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	item, err := h.service.AddLineItem(c.Request.Context(), invoiceID, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.respondMutation(c, http.StatusCreated, invoiceID, item)
}

// UpdateItem handles PUT /invoices/:id/items/:itemId.
func (h *InvoiceHandler) UpdateItem(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	var req dto.UpdateLineItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	patch, err := req.ToPatch()
	if err != nil {
		h.Error(c, err)
		return
	}

	item, err := h.service.UpdateLineItem(c.Request.Context(), invoiceID, itemID, patch)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.respondMutation(c, http.StatusOK, invoiceID, item)
}

// RemoveItem handles DELETE /invoices/:id/items/:itemId.
func (h *InvoiceHandler) RemoveItem(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	if err := h.service.RemoveLineItem(c.Request.Context(), invoiceID, itemID); err != nil {
		h.Error(c, err)
		return
	}

	h.respondMutation(c, http.StatusOK, invoiceID, nil)
}

// respondMutation reads back the committed totals of invoiceID.
func (h *InvoiceHandler) respondMutation(c *gin.Context, status int, invoiceID id.ID, item *invoice.LineItem) {
	inv, err := h.service.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.LineItemMutationResponse{Totals: dto.FromTotals(inv.Totals())}
	if item != nil {
		itemDTO := dto.FromLineItem(item)
		resp.Item = &itemDTO
	}
	c.JSON(status, resp)
}

// --- Bills ---

// Bill handles GET /invoices/:id/bill?variant=ALL|GOODS_ONLY|SERVICES_ONLY.
func (h *InvoiceHandler) Bill(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	variant, err := invoice.ParseVariant(c.Query("variant"))
	if err != nil {
		h.Error(c, err)
		return
	}

	view, err := h.service.GetBill(c.Request.Context(), invoiceID, variant)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBill(view))
}

// PDF handles GET /invoices/:id/pdf.
func (h *InvoiceHandler) PDF(c *gin.Context) {
	h.renderPDF(c, invoice.VariantAll)
}

// GoodsPDF handles GET /invoices/:id/pdf/goods.
func (h *InvoiceHandler) GoodsPDF(c *gin.Context) {
	h.renderPDF(c, invoice.VariantGoodsOnly)
}

// ServicesPDF handles GET /invoices/:id/pdf/services.
func (h *InvoiceHandler) ServicesPDF(c *gin.Context) {
	h.renderPDF(c, invoice.VariantServicesOnly)
}

func (h *InvoiceHandler) renderPDF(c *gin.Context, variant invoice.Variant) {
	ctx := c.Request.Context()

	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	view, err := h.service.GetBill(ctx, invoiceID, variant)
	if err != nil {
		h.Error(c, err)
		return
	}

	bill := pdf.Bill{View: view}
	if h.customers != nil {
		if cust, err := h.customers.GetByID(ctx, view.Invoice.CustomerID); err == nil {
			bill.Customer = cust
		} else {
			logger.Warn(ctx, "bill customer not found", "invoice", view.Invoice.Number, "error", err)
		}
	}
	if h.vehicles != nil {
		if veh, err := h.vehicles.GetByID(ctx, view.Invoice.VehicleID); err == nil {
			bill.Vehicle = veh
		} else {
			logger.Warn(ctx, "bill vehicle not found", "invoice", view.Invoice.Number, "error", err)
		}
	}

	out, err := h.renderer.Render(ctx, bill)
	if err != nil {
		h.Error(c, apperror.NewInternal(err).WithDetail("invoice", view.Invoice.Number))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+pdf.Filename(view.Invoice.Number)+`"`)
	c.DataFromReader(http.StatusOK, int64(len(out)), "application/pdf", bytes.NewReader(out), nil)
}

// --- Reports ---

// BillReport handles GET /reports/bills.
func (h *InvoiceHandler) BillReport(c *gin.Context) {
	filter, ok := h.parseListFilter(c)
	if !ok {
		return
	}

	report, err := h.service.BillReport(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromReport(report))
}

// parseListFilter reads status, customerId, vehicleId, dateFrom, dateTo,
// search, order, limit and offset. A date-only dateTo includes that day.
func (h *InvoiceHandler) parseListFilter(c *gin.Context) (invoice.ListFilter, bool) {
	filter := invoice.DefaultListFilter()
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.Descending = strings.EqualFold(c.Query("order"), "desc")

	if s := c.Query("status"); s != "" {
		status, err := invoice.ParseStatus(s)
		if err != nil {
			h.Error(c, err)
			return filter, false
		}
		filter.Status = &status
	}

	var ok bool
	if filter.CustomerID, ok = h.queryID(c, "customerId"); !ok {
		return filter, false
	}
	if filter.VehicleID, ok = h.queryID(c, "vehicleId"); !ok {
		return filter, false
	}

	if s := c.Query("dateFrom"); s != "" {
		from, _, err := parseDate("dateFrom", s)
		if err != nil {
			h.Error(c, err)
			return filter, false
		}
		filter.DateFrom = &from
	}
	if s := c.Query("dateTo"); s != "" {
		to, dateOnly, err := parseDate("dateTo", s)
		if err != nil {
			h.Error(c, err)
			return filter, false
		}
		if dateOnly {
			to = to.AddDate(0, 0, 1)
		}
		filter.DateTo = &to
	}

	return filter, true
}

func (h *InvoiceHandler) queryID(c *gin.Context, key string) (*id.ID, bool) {
	s := c.Query(key)
	if s == "" {
		return nil, true
	}
	v, err := id.ParseField(key, s)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return &v, true
}

func parseDate(field, s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, apperror.NewValidation("invalid date").
			WithDetail("field", field).
			WithDetail("value", s)
	}
	return t, false, nil
}
