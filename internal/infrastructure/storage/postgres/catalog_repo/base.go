// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"autobill/internal/core/apperror"
	"autobill/internal/core/id"
	"autobill/internal/domain"
	"autobill/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo provides common CRUD operations for catalog entities.
// Embed this in specific catalog repositories.
type BaseCatalogRepo[T any] struct {
	txm          *postgres.TxManager
	tableName    string
	entityName   string
	selectCols   []string
	searchCols   []string
	defaultOrder string
	newFn        func() T
}

// BaseConfig describes one catalog table.
type BaseConfig[T any] struct {
	TableName  string
	EntityName string

	// SearchCols are matched with ILIKE by ListFilter.Search
	SearchCols []string

	// DefaultOrder is used when ListFilter.OrderBy is empty
	DefaultOrder string

	New func() T
}

// NewBaseCatalogRepo creates a new base catalog repository. Columns come from
// the "db" tags of T.
func NewBaseCatalogRepo[T any](txm *postgres.TxManager, cfg BaseConfig[T]) *BaseCatalogRepo[T] {
	if cfg.DefaultOrder == "" {
		cfg.DefaultOrder = "id"
	}
	if cfg.EntityName == "" {
		cfg.EntityName = cfg.TableName
	}
	return &BaseCatalogRepo[T]{
		txm:          txm,
		tableName:    cfg.TableName,
		entityName:   cfg.EntityName,
		selectCols:   postgres.ExtractDBColumns[T](),
		searchCols:   cfg.SearchCols,
		defaultOrder: cfg.DefaultOrder,
		newFn:        cfg.New,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseCatalogRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Create inserts a new entity using its "db" tags.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	data := postgres.FilterColumns(postgres.StructToMap(entity), r.selectCols)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.ClassifyWriteError(fmt.Errorf("insert %s: %w", r.tableName, err), r.entityName)
	}
	return nil
}

// updateQuery builds an UPDATE guarded by the entity's current version.
func (r *BaseCatalogRepo[T]) updateQuery(entity T) (squirrel.UpdateBuilder, any, error) {
	data := postgres.StructToMap(entity)

	entityID, ok := data["id"]
	if !ok {
		return squirrel.UpdateBuilder{}, nil, fmt.Errorf("entity has no 'id' field with db tag")
	}
	version, ok := data["version"].(int)
	if !ok {
		return squirrel.UpdateBuilder{}, nil, fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	q := r.Builder().
		Update(r.tableName).
		SetMap(postgres.FilterColumns(data, r.selectCols, "id", "version", "deletion_mark")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version}).
		Suffix("RETURNING version")

	return q, entityID, nil
}

// Update modifies an existing entity with optimistic locking and stores the
// new version on the entity.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, entity T) error {
	q, entityID, err := r.updateQuery(entity)
	if err != nil {
		return err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	var version int
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&version); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewConcurrentModification(r.entityName, entityID)
		}
		return postgres.ClassifyWriteError(fmt.Errorf("update %s: %w", r.tableName, err), r.entityName)
	}

	if v, ok := any(entity).(interface{ SetVersion(int) }); ok {
		v.SetVersion(version)
	}
	return nil
}

func (r *BaseCatalogRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves entity by ID, including entities marked for deletion.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}).Limit(1), entityID.String())
}

// FindOne executes a SELECT query and returns a single entity.
func (r *BaseCatalogRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
	entity := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.entityName, key)
		}
		return entity, fmt.Errorf("get %s: %w", r.tableName, err)
	}
	return entity, nil
}

// FindMany executes a SELECT query and returns all matching entities.
func (r *BaseCatalogRepo[T]) FindMany(ctx context.Context, q squirrel.SelectBuilder) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := []T{}
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", r.tableName, err)
	}
	return items, nil
}

// listQuery applies filter conditions, without ordering or pagination.
func (r *BaseCatalogRepo[T]) listQuery(filter domain.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if s := strings.TrimSpace(filter.Search); s != "" && len(r.searchCols) > 0 {
		pattern := "%" + s + "%"
		or := make(squirrel.Or, 0, len(r.searchCols))
		for _, col := range r.searchCols {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}

	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	return q
}

// List retrieves entities with filtering and pagination.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Items:  []T{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.listQuery(filter)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "id ASC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	items, err := r.FindMany(ctx, q)
	if err != nil {
		return result, err
	}
	result.Items = items
	return result, nil
}

// SetDeletionMark sets or clears the deletion mark (soft delete).
func (r *BaseCatalogRepo[T]) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	sql, args, err := r.Builder().
		Update(r.tableName).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set deletion mark: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("execute set deletion mark: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

func (r *BaseCatalogRepo[T]) parseOrderBy(orderBy string) (string, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		orderBy = r.defaultOrder
	}

	// "-field" sorts descending.
	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}
	field = strings.TrimSpace(field)

	for _, col := range r.selectCols {
		if col == field {
			return field + " " + direction, nil
		}
	}
	return "", apperror.NewValidation("invalid orderBy").
		WithDetail("orderBy", orderBy).
		WithDetail("field", field)
}
