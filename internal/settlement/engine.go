// Package settlement applies fines to the group ledger: it closes past weeks
// and resolves challenges. Every mutation and its log entry commit in one
// storage transaction.
package settlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/multas/internal/cache"
	"github.com/mmynk/multas/internal/metrics"
	"github.com/mmynk/multas/internal/storage"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 50 * time.Millisecond
)

// Engine runs the settlement operations against a Store.
type Engine struct {
	store   storage.Store
	guard   cache.WeekGuard
	metrics *metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time

	retryAttempts int
	retryBackoff  time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used to pick the week to close.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithGuard sets the closed-week cache. Defaults to an in-memory guard.
func WithGuard(g cache.WeekGuard) Option {
	return func(e *Engine) { e.guard = g }
}

// WithRetry bounds how often a transaction failing with storage.ErrTransient
// is retried. attempts counts the first try.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(e *Engine) {
		if attempts > 0 {
			e.retryAttempts = attempts
		}
		if backoff >= 0 {
			e.retryBackoff = backoff
		}
	}
}

// WithMetrics records settlement metrics on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine on top of store.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		guard:         cache.NewMemory(),
		logger:        slog.Default(),
		now:           time.Now,
		retryAttempts: defaultRetryAttempts,
		retryBackoff:  defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// retry runs fn until it succeeds, fails with a non-transient error, or the
// attempt budget is spent. The backoff grows linearly per attempt.
func (e *Engine) retry(ctx context.Context, op string, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, storage.ErrTransient) || attempt >= e.retryAttempts {
			return err
		}

		e.metrics.TxRetry(op)
		e.logger.WarnContext(ctx, "Transaction failed; retry scheduled",
			"operation", op,
			"attempt", attempt,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.retryBackoff * time.Duration(attempt)):
		}
	}
}
