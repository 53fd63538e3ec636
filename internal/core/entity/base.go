package entity

import (
	"context"
	"time"

	"autobill/internal/core/id"
)

// Validatable checks in-memory invariants before anything reaches storage.
// Implementations return an *apperror.AppError naming the offending field.
type Validatable interface {
	Validate(ctx context.Context) error
}

// BaseEntity carries identity, soft deletion and the optimistic lock counter
// shared by catalogs and invoices.
type BaseEntity struct {
	ID id.ID `db:"id" json:"id"`

	// DeletionMark hides a catalog entry from lists without breaking invoices
	// that still reference it.
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Version starts at 1 and is bumped by the repository on every update.
	Version int `db:"version" json:"version"`
}

func newBaseEntity() BaseEntity {
	return BaseEntity{ID: id.New(), Version: 1}
}

// SetVersion stores the version returned by an UPDATE ... RETURNING.
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}

// BaseCatalog is the root of reference data rows.
type BaseCatalog struct {
	BaseEntity
}

// NewBaseCatalog creates a BaseCatalog with a fresh UUIDv7.
func NewBaseCatalog() BaseCatalog {
	return BaseCatalog{BaseEntity: newBaseEntity()}
}

// BaseDocument adds creation metadata to documents.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// CreatedBy is the operator id from the request, empty for tools.
	CreatedBy string `db:"created_by" json:"createdBy,omitempty"`
}

func newBaseDocument() BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: newBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
