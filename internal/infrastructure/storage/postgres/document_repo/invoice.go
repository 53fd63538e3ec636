// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"autobill/internal/core/apperror"
	"autobill/internal/core/id"
	"autobill/internal/domain"
	"autobill/internal/domain/documents/invoice"
	"autobill/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable = "invoices"
	itemsTable    = "invoice_items"
)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	txm         *postgres.TxManager
	invoiceCols []string
	itemCols    []string
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		txm:         txm,
		invoiceCols: postgres.ExtractDBColumns[invoice.Invoice](),
		itemCols:    postgres.ExtractDBColumns[invoice.LineItem](),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *InvoiceRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *InvoiceRepo) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

func (r *InvoiceRepo) exec(ctx context.Context, q squirrel.Sqlizer, what string) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s: %w", what, err)
	}
	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return tag.RowsAffected(), nil
}

// Constraints that fail when two allocators hand out the same number.
var numberConstraints = []string{"invoices_number_key", "invoices_number_seq_key"}

// Create inserts the invoice row.
func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	data := postgres.FilterColumns(postgres.StructToMap(inv), r.invoiceCols)
	_, err := r.exec(ctx, r.Builder().Insert(invoicesTable).SetMap(data), "insert invoice")
	if err != nil {
		return classifyInsertError(err)
	}
	return nil
}

// classifyInsertError turns a duplicate number into a sequence conflict the
// sequencer re-runs. Every other violation is final.
func classifyInsertError(err error) error {
	if postgres.IsUniqueViolationOf(err, numberConstraints...) {
		return apperror.NewSequenceConflict(invoicesTable, err)
	}
	return postgres.ClassifyWriteError(err, "invoice")
}

func (r *InvoiceRepo) selectInvoices() squirrel.SelectBuilder {
	return r.Builder().Select(r.invoiceCols...).From(invoicesTable)
}

func (r *InvoiceRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, invoiceID id.ID) (*invoice.Invoice, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	inv := &invoice.Invoice{}
	if err := pgxscan.Get(ctx, r.querier(ctx), inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("invoice", invoiceID.String())
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetByID retrieves the invoice row.
func (r *InvoiceRepo) GetByID(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	return r.getOne(ctx, r.selectInvoices().Where(squirrel.Eq{"id": invoiceID}), invoiceID)
}

// GetForUpdate retrieves the invoice row and locks it for the current transaction.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	return r.getOne(ctx, r.selectInvoices().Where(squirrel.Eq{"id": invoiceID}).Suffix("FOR UPDATE"), invoiceID)
}

// listQuery applies filter conditions, without ordering or pagination.
func (r *InvoiceRepo) listQuery(f invoice.ListFilter) squirrel.SelectBuilder {
	q := r.selectInvoices()

	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": string(*f.Status)})
	}
	if f.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *f.CustomerID})
	}
	if f.VehicleID != nil {
		q = q.Where(squirrel.Eq{"vehicle_id": *f.VehicleID})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.Lt{"date": *f.DateTo})
	}
	if f.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + f.Search + "%"})
	}
	return q
}

// List retrieves invoices ordered by number_seq.
func (r *InvoiceRepo) List(ctx context.Context, f invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	result := domain.ListResult[*invoice.Invoice]{
		Items:  []*invoice.Invoice{},
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := r.listQuery(f)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count invoices: %w", err)
	}

	if f.Descending {
		q = q.OrderBy("number_seq DESC")
	} else {
		q = q.OrderBy("number_seq ASC")
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list invoices: %w", err)
	}
	return result, nil
}

// UpdateStatus changes the status label.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, invoiceID id.ID, status invoice.Status) error {
	n, err := r.exec(ctx, r.Builder().
		Update(invoicesTable).
		Set("status", string(status)).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": invoiceID}), "update invoice status")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("invoice", invoiceID.String())
	}
	return nil
}

// totalsQuery writes the three derived columns and nothing else.
func (r *InvoiceRepo) totalsQuery(invoiceID id.ID, t invoice.Totals) squirrel.UpdateBuilder {
	return r.Builder().
		Update(invoicesTable).
		Set("subtotal_excl_tax", t.Subtotal).
		Set("tax_total", t.TaxTotal).
		Set("grand_total", t.GrandTotal).
		Where(squirrel.Eq{"id": invoiceID})
}

// SaveTotals stores recomputed totals.
func (r *InvoiceRepo) SaveTotals(ctx context.Context, invoiceID id.ID, t invoice.Totals) error {
	n, err := r.exec(ctx, r.totalsQuery(invoiceID, t), "save invoice totals")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("invoice", invoiceID.String())
	}
	return nil
}

// Delete removes the invoice; items go with it through ON DELETE CASCADE.
func (r *InvoiceRepo) Delete(ctx context.Context, invoiceID id.ID) error {
	n, err := r.exec(ctx, r.Builder().Delete(invoicesTable).Where(squirrel.Eq{"id": invoiceID}), "delete invoice")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("invoice", invoiceID.String())
	}
	return nil
}

// --- Items ---

func (r *InvoiceRepo) selectItems() squirrel.SelectBuilder {
	return r.Builder().Select(r.itemCols...).From(itemsTable)
}

// GetItems returns the invoice's items ordered by position.
func (r *InvoiceRepo) GetItems(ctx context.Context, invoiceID id.ID) ([]invoice.LineItem, error) {
	sql, args, err := r.selectItems().
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("position ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := []invoice.LineItem{}
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get invoice items: %w", err)
	}
	return items, nil
}

// GetItemsForInvoices returns the items of several invoices in one query.
func (r *InvoiceRepo) GetItemsForInvoices(ctx context.Context, invoiceIDs []id.ID) (map[id.ID][]invoice.LineItem, error) {
	out := make(map[id.ID][]invoice.LineItem, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return out, nil
	}

	sql, args, err := r.selectItems().
		Where(squirrel.Eq{"invoice_id": invoiceIDs}).
		OrderBy("invoice_id", "position ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []invoice.LineItem
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get invoice items: %w", err)
	}
	for _, it := range items {
		out[it.InvoiceID] = append(out[it.InvoiceID], it)
	}
	return out, nil
}

// GetItem retrieves one item.
func (r *InvoiceRepo) GetItem(ctx context.Context, itemID id.ID) (*invoice.LineItem, error) {
	sql, args, err := r.selectItems().Where(squirrel.Eq{"id": itemID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	item := &invoice.LineItem{}
	if err := pgxscan.Get(ctx, r.querier(ctx), item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("line item", itemID.String())
		}
		return nil, fmt.Errorf("get invoice item: %w", err)
	}
	return item, nil
}

// InsertItem stores a new item.
func (r *InvoiceRepo) InsertItem(ctx context.Context, item *invoice.LineItem) error {
	data := postgres.FilterColumns(postgres.StructToMap(item), r.itemCols)
	_, err := r.exec(ctx, r.Builder().Insert(itemsTable).SetMap(data), "insert invoice item")
	if err != nil {
		return postgres.ClassifyWriteError(err, "line item")
	}
	return nil
}

// UpdateItem overwrites an item's mutable columns.
func (r *InvoiceRepo) UpdateItem(ctx context.Context, item *invoice.LineItem) error {
	data := postgres.FilterColumns(postgres.StructToMap(item), r.itemCols, "id", "invoice_id", "position", "created_at")
	n, err := r.exec(ctx, r.Builder().
		Update(itemsTable).
		SetMap(data).
		Where(squirrel.Eq{"id": item.ID}), "update invoice item")
	if err != nil {
		return postgres.ClassifyWriteError(err, "line item")
	}
	if n == 0 {
		return apperror.NewNotFound("line item", item.ID.String())
	}
	return nil
}

// DeleteItem removes an item.
func (r *InvoiceRepo) DeleteItem(ctx context.Context, itemID id.ID) error {
	n, err := r.exec(ctx, r.Builder().Delete(itemsTable).Where(squirrel.Eq{"id": itemID}), "delete invoice item")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("line item", itemID.String())
	}
	return nil
}

// NextPosition returns one past the highest position on the invoice.
// Callers hold the invoice row lock, so positions do not collide.
func (r *InvoiceRepo) NextPosition(ctx context.Context, invoiceID id.ID) (int, error) {
	sql, args, err := r.Builder().
		Select("COALESCE(MAX(position), 0) + 1").
		From(itemsTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var pos int
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&pos); err != nil {
		return 0, fmt.Errorf("next position: %w", err)
	}
	return pos, nil
}
