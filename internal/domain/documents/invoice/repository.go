package invoice

import (
	"context"
	"time"

	"autobill/internal/core/id"
	"autobill/internal/domain"
)

// ListFilter narrows invoice listings. Results are always ordered by NumberSeq.
type ListFilter struct {
	Status     *Status
	CustomerID *id.ID
	VehicleID  *id.ID
	DateFrom   *time.Time
	DateTo     *time.Time

	// Search matches the invoice number as a substring
	Search string

	// Descending lists the newest number first
	Descending bool

	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: 50}
}

// Repository defines persistence for invoices and their line items.
type Repository interface {
	// Create inserts a numbered invoice row
	Create(ctx context.Context, inv *Invoice) error

	// GetByID retrieves the invoice row without items
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)

	// GetForUpdate retrieves the invoice row and locks it until the transaction ends
	GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)

	// UpdateStatus changes the status label only
	UpdateStatus(ctx context.Context, invoiceID id.ID, status Status) error

	// SaveTotals writes the three derived fields only
	SaveTotals(ctx context.Context, invoiceID id.ID, totals Totals) error

	// Delete removes the invoice and its items
	Delete(ctx context.Context, invoiceID id.ID) error

	// GetItems returns the invoice's items ordered by position
	GetItems(ctx context.Context, invoiceID id.ID) ([]LineItem, error)

	// GetItemsForInvoices returns items of several invoices keyed by invoice ID
	GetItemsForInvoices(ctx context.Context, invoiceIDs []id.ID) (map[id.ID][]LineItem, error)

	GetItem(ctx context.Context, itemID id.ID) (*LineItem, error)
	InsertItem(ctx context.Context, item *LineItem) error
	UpdateItem(ctx context.Context, item *LineItem) error
	DeleteItem(ctx context.Context, itemID id.ID) error

	// NextPosition returns the position for an item appended to the invoice
	NextPosition(ctx context.Context, invoiceID id.ID) (int, error)
}
