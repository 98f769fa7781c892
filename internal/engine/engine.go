package engine

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/pointecon/internal/model"
	"github.com/roach88/pointecon/internal/store"
)

// DefaultBalanceCacheSize is the default number of cached balances.
const DefaultBalanceCacheSize = 4096

// Observer receives operation outcomes. Implemented by metrics.Collector.
// outcome is "ok", the ErrorCode of a rejection, or "error" for infrastructure
// failures.
type Observer interface {
	ObserveOperation(op, outcome string, elapsed time.Duration)
	ObserveLedgerEntries(n int)
	ObserveCacheLookup(hit bool)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, time.Duration) {}
func (nopObserver) ObserveLedgerEntries(int)                        {}
func (nopObserver) ObserveCacheLookup(bool)                         {}

// Engine runs every ledger and settlement operation against one store.
//
// Thread-safety model:
//   - All exported methods are safe for concurrent use.
//   - Settlement operations are serialized by the store's single connection.
//   - The balance cache is invalidated after every committed append.
type Engine struct {
	store     *store.Store
	clock     Clock
	ids       IDGenerator
	log       *slog.Logger
	observer  Observer
	projector *Projector
	location  *time.Location
	cacheSize int
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithClock sets the timestamp source. Default: SystemClock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithIDGenerator sets the row id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithLogger sets the logger. Default: discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithObserver sets the metrics sink. Default: no-op.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithBalanceCacheSize sets the balance cache capacity.
// Use WithBalanceCacheSize(0) to disable caching.
func WithBalanceCacheSize(n int) Option {
	return func(e *Engine) { e.cacheSize = n }
}

// WithLocation sets the zone used to bucket the daily series. Default: UTC.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.location = loc }
}

// New creates an Engine over s.
//
// Options can be passed to configure the engine (e.g., WithClock).
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		clock:     SystemClock{},
		ids:       UUIDv7Generator{},
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer:  nopObserver{},
		location:  time.UTC,
		cacheSize: DefaultBalanceCacheSize,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.projector = newProjector(s, e.cacheSize, e.observer)
	return e
}

// Projector returns the balance projector.
func (e *Engine) Projector() *Projector {
	return e.projector
}

// now returns the clock time in UTC.
func (e *Engine) now() time.Time {
	return e.clock.Now().UTC()
}

// observe records an operation outcome and logs rejections at Debug.
// Call as: defer e.observe(ctx, "op", time.Now(), &err)
func (e *Engine) observe(ctx context.Context, op string, start time.Time, errp *error) {
	outcome := "ok"
	if *errp != nil {
		outcome = "error"
		if code := CodeOf(*errp); code != "" {
			outcome = string(code)
		}
		e.log.DebugContext(ctx, "operation rejected",
			"op", op,
			"code", outcome,
			"error", *errp,
		)
	}
	e.observer.ObserveOperation(op, outcome, time.Since(start))
}

// requireEconomy fails NOT_FOUND when the economy does not exist.
func (e *Engine) requireEconomy(ctx context.Context, q *store.Queries, economyID string) error {
	if _, err := q.ReadEconomy(ctx, economyID); err != nil {
		return storeError("economy "+economyID, err)
	}
	return nil
}

// appended invalidates cached balances and reports the new entries.
func (e *Engine) appended(entries ...model.Activity) {
	keys := make([]model.BalanceKey, 0, len(entries))
	for _, a := range entries {
		keys = append(keys, a.Key())
	}
	e.projector.Invalidate(keys...)
	e.observer.ObserveLedgerEntries(len(entries))
}
