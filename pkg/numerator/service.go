// Package numerator provides the database-backed invoice number sequencer.
//
// Numbers come from a counter row in sys_sequences that is incremented with
// INSERT ... ON CONFLICT DO UPDATE ... RETURNING inside the same transaction
// that stores the numbered document. The row lock serialises concurrent
// allocators and a rolled back transaction returns its increment, so a number
// is never issued twice.
package numerator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"autobill/internal/core/apperror"
	"autobill/internal/core/numerator"
	"autobill/internal/core/tx"
	"autobill/pkg/logger"
)

var tracer = otel.Tracer("autobill/numerator")

// PostgreSQL SQLSTATE codes that signal a lost race.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc returns the querier bound to the transaction carried by ctx.
type QuerierFunc func(ctx context.Context) Querier

// Observer receives sequencer events (metrics).
type Observer interface {
	SequenceRetried(key string)
	SequenceFailed(key, reason string)
}

type noopObserver struct{}

func (noopObserver) SequenceRetried(string)        {}
func (noopObserver) SequenceFailed(string, string) {}

// Options configures retry behaviour.
type Options struct {
	// MaxAttempts bounds how many times a conflicting unit of work is re-run.
	MaxAttempts int

	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration

	// SeedTable, when set, names a table with a number_seq column used to
	// initialise a missing counter row from MAX(number_seq).
	SeedTable string

	Observer Observer
}

// DefaultOptions returns standard options.
func DefaultOptions() Options {
	return Options{
		MaxAttempts: 5,
		Backoff:     20 * time.Millisecond,
	}
}

// Service allocates document numbers.
type Service struct {
	txm     tx.Manager
	querier QuerierFunc
	opts    Options
}

// New creates a sequencer that runs each allocation in a txm transaction.
func New(txm tx.Manager, querier QuerierFunc, opts Options) *Service {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultOptions().MaxAttempts
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	return &Service{txm: txm, querier: querier, opts: opts}
}

var _ numerator.Generator = (*Service)(nil)

// Allocate implements numerator.Generator.
//
// The counter increment and fn share one transaction. Serialization failures,
// deadlocks and unique violations on the numbered table re-run the whole unit;
// after MaxAttempts the caller gets SEQUENCER_UNAVAILABLE.
func (s *Service) Allocate(ctx context.Context, cfg numerator.Config, fn func(ctx context.Context, n numerator.Number) error) error {
	if s == nil {
		return fmt.Errorf("numerator service is not initialized")
	}

	ctx, span := tracer.Start(ctx, "sequence.allocate",
		trace.WithAttributes(attribute.String("sequence.key", cfg.Key())))
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			seq, err := s.next(ctx, cfg)
			if err != nil {
				return err
			}
			return fn(ctx, numerator.Number{Value: cfg.Format(seq), Seq: seq})
		})
		if err == nil {
			span.SetAttributes(attribute.Int("sequence.attempts", attempt))
			return nil
		}
		if !IsConflict(err) {
			if apperror.IsCode(err, apperror.CodeSequenceExhausted) {
				s.opts.Observer.SequenceFailed(cfg.Key(), "exhausted")
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "allocation failed")
			return err
		}

		lastErr = err
		s.opts.Observer.SequenceRetried(cfg.Key())
		logger.Warn(ctx, "sequence conflict, retrying",
			"sequence", cfg.Key(),
			"attempt", attempt,
			"error", err,
		)
		if attempt < s.opts.MaxAttempts {
			if err := s.wait(ctx, attempt); err != nil {
				return err
			}
		}
	}

	s.opts.Observer.SequenceFailed(cfg.Key(), "unavailable")
	span.SetStatus(codes.Error, "sequencer unavailable")
	return apperror.NewSequencerUnavailable(cfg.Key(), s.opts.MaxAttempts, lastErr)
}

// next increments the counter row and returns the new value.
func (s *Service) next(ctx context.Context, cfg numerator.Config) (int64, error) {
	seed := "1"
	if s.opts.SeedTable != "" {
		seed = fmt.Sprintf("COALESCE((SELECT MAX(number_seq) FROM %s), 0) + 1", s.opts.SeedTable)
	}

	var num int64
	err := s.querier(ctx).QueryRow(ctx, `
        INSERT INTO sys_sequences (key, current_val)
        VALUES ($1, `+seed+`)
        ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
        RETURNING current_val
	`, cfg.Key()).Scan(&num)
	if err != nil {
		if isRaceError(err) {
			return 0, apperror.NewSequenceConflict(cfg.Key(), err)
		}
		return 0, fmt.Errorf("strict next: %w", err)
	}

	if num > cfg.Max() {
		return 0, apperror.NewSequenceExhausted(cfg.Key(), cfg.Max())
	}
	return num, nil
}

// SetCurrent positions the counter so the next allocation returns value+1.
// Used when importing numbered documents from another system.
func (s *Service) SetCurrent(ctx context.Context, cfg numerator.Config, value int64) error {
	if value < 0 || value > cfg.Max() {
		return apperror.NewValidation("sequence value out of range").
			WithDetail("value", value).
			WithDetail("max", cfg.Max())
	}

	var result int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = GREATEST(sys_sequences.current_val, $2)
		RETURNING current_val
	`, cfg.Key(), value).Scan(&result)
	if err != nil {
		return fmt.Errorf("set sequence: %w", err)
	}
	if result != value {
		logger.Warn(ctx, "sequence not lowered, numbers are never reused",
			"sequence", cfg.Key(), "requested", value, "current", result)
	}
	return nil
}

func (s *Service) wait(ctx context.Context, attempt int) error {
	if s.opts.Backoff <= 0 {
		return nil
	}
	t := time.NewTimer(time.Duration(attempt) * s.opts.Backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsConflict reports whether err means a concurrent allocator won the race and
// the unit of work can be re-run. An AppError other than SEQUENCE_CONFLICT is
// final even when it wraps a retryable PostgreSQL error.
func IsConflict(err error) bool {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.Code == apperror.CodeSequenceConflict
	}
	return isRaceError(err)
}

func isRaceError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateUniqueViolation:
		return true
	}
	return false
}
