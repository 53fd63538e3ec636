package numerator

import (
	"context"
)

// Generator assigns unique, strictly increasing document numbers.
// This is the domain contract, implementations live in pkg/numerator.
type Generator interface {
	// Allocate runs fn in a unit of work together with the allocation of the
	// next number. The number is issued only if fn succeeds and the unit commits.
	// Transient conflicts are retried internally.
	Allocate(ctx context.Context, cfg Config, fn func(ctx context.Context, n Number) error) error
}
