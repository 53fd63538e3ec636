package numerator

import (
	"context"
	"sync"

	"autobill/internal/core/apperror"
)

// MockGenerator is an in-memory Generator for unit tests.
// Allocations are serialised and rolled back when fn fails, like a database counter row.
type MockGenerator struct {
	mu      sync.Mutex
	current map[string]int64

	// AllocateFunc overrides the default behaviour when set.
	AllocateFunc func(ctx context.Context, cfg Config, fn func(ctx context.Context, n Number) error) error
}

// NewMockGenerator creates a MockGenerator starting every prefix at 1.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{current: make(map[string]int64)}
}

// Allocate implements Generator.
func (m *MockGenerator) Allocate(ctx context.Context, cfg Config, fn func(ctx context.Context, n Number) error) error {
	if m.AllocateFunc != nil {
		return m.AllocateFunc(ctx, cfg, fn)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		m.current = make(map[string]int64)
	}

	next := m.current[cfg.Key()] + 1
	if next > cfg.Max() {
		return apperror.NewSequenceExhausted(cfg.Key(), cfg.Max())
	}
	if err := fn(ctx, Number{Value: cfg.Format(next), Seq: next}); err != nil {
		return err
	}
	m.current[cfg.Key()] = next
	return nil
}

// Set positions the counter so that the next allocation returns value+1.
func (m *MockGenerator) Set(cfg Config, value int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		m.current = make(map[string]int64)
	}
	m.current[cfg.Key()] = value
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
