// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces, the implementation lives in
// infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction whose statements all
	// see one consistent snapshot.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Passthrough is a Manager that runs fn directly with no transaction.
// It backs in-memory repositories in tests and tooling.
type Passthrough struct{}

// RunInTransaction implements Manager.
func (Passthrough) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ReadOnly implements ReadOnlyManager.
func (Passthrough) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
