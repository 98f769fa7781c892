package engine

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"

	"github.com/roach88/pointecon/internal/model"
	"github.com/roach88/pointecon/internal/store"
)

// Projector derives balances from the ledger. It performs no validation.
//
// Balances are cached per (economy, user, currency). Invalidate must be
// called after every committed append; the engine does this for all of its
// writers. Commits from other processes sharing the database file are
// detected through the store's data version, which empties the cache. A
// read that began before an invalidation never repopulates the cache with
// its (possibly stale) result.
type Projector struct {
	store    *store.Store
	observer Observer

	// mu guards cache fills against concurrent invalidation.
	mu      sync.Mutex
	epoch   uint64
	version int64 // last data version seen
	cache   *lru.Cache[model.BalanceKey, decimal.Decimal]
}

func newProjector(s *store.Store, size int, o Observer) *Projector {
	p := &Projector{store: s, observer: o}
	if size > 0 {
		// lru.New only fails for size <= 0.
		p.cache, _ = lru.New[model.BalanceKey, decimal.Decimal](size)
	}
	return p
}

// Balance returns the sum of the user's points in the currency.
// Returns zero (not an error) when there are no entries.
func (p *Projector) Balance(ctx context.Context, key model.BalanceKey) (decimal.Decimal, error) {
	if p.cache == nil {
		return p.store.SumPoints(ctx, key)
	}

	version, err := p.store.DataVersion(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	p.mu.Lock()
	if version != p.version {
		p.version = version
		p.epoch++
		p.cache.Purge()
	}
	if v, ok := p.cache.Get(key); ok {
		p.mu.Unlock()
		p.observer.ObserveCacheLookup(true)
		return v, nil
	}
	epoch := p.epoch
	p.mu.Unlock()
	p.observer.ObserveCacheLookup(false)

	sum, err := p.store.SumPoints(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}

	p.mu.Lock()
	if p.epoch == epoch {
		p.cache.Add(key, sum)
	}
	p.mu.Unlock()
	return sum, nil
}

// Invalidate drops cached balances for the given keys.
func (p *Projector) Invalidate(keys ...model.BalanceKey) {
	if p.cache == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.epoch++
	for _, k := range keys {
		p.cache.Remove(k)
	}
}

// Len returns the number of cached balances.
func (p *Projector) Len() int {
	if p.cache == nil {
		return 0
	}
	return p.cache.Len()
}

// GetBalance returns a user's balance in one currency.
// Fails NOT_FOUND when the economy or currency does not exist.
func (e *Engine) GetBalance(ctx context.Context, key model.BalanceKey) (_ decimal.Decimal, err error) {
	defer e.observe(ctx, "get_balance", time.Now(), &err)

	if _, err := e.store.ReadCurrency(ctx, key.EconomyID, key.CurrencyID); err != nil {
		return decimal.Zero, storeError("currency "+key.CurrencyID, err)
	}
	bal, err := e.projector.Balance(ctx, key)
	if err != nil {
		return decimal.Zero, storeError("balance", err)
	}
	return bal, nil
}

// Balances returns the user's balance in every currency of the economy,
// including zero for currencies the user never touched.
func (e *Engine) Balances(ctx context.Context, economyID, userID string) (_ map[string]decimal.Decimal, err error) {
	defer e.observe(ctx, "balances", time.Now(), &err)

	if err := e.requireEconomy(ctx, &e.store.Queries, economyID); err != nil {
		return nil, err
	}
	currencies, err := e.store.ListCurrencies(ctx, economyID)
	if err != nil {
		return nil, storeError("list currencies", err)
	}
	sums, err := e.store.SumPointsByCurrency(ctx, economyID, userID)
	if err != nil {
		return nil, storeError("balances", err)
	}

	out := make(map[string]decimal.Decimal, len(currencies))
	for _, c := range currencies {
		out[c.ID] = sums[c.ID]
	}
	return out, nil
}
