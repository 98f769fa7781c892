package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pointecon/internal/model"
	"github.com/roach88/pointecon/internal/store"
	"github.com/roach88/pointecon/internal/testutil"
)

// fixture is an engine over a fresh store with one economy and two
// currencies, X and Y.
type fixture struct {
	eng   *Engine
	store *store.Store
	clock *testutil.StepClock
	econ  model.Economy
	x     model.Currency
	y     model.Currency
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	s := setupTestStore(t)
	clock := testutil.NewDeterministicClock()
	base := []Option{
		WithClock(clock),
		WithIDGenerator(testutil.NewSequentialIDGenerator("id")),
	}
	eng := New(s, append(base, opts...)...)

	ctx := context.Background()
	econ, err := eng.CreateEconomy(ctx, "Family")
	require.NoError(t, err)
	x, err := eng.CreateCurrency(ctx, CurrencyInput{EconomyID: econ.ID, Name: "Stars", Symbol: "X", CreatedBy: "alice"})
	require.NoError(t, err)
	y, err := eng.CreateCurrency(ctx, CurrencyInput{EconomyID: econ.ID, Name: "Moons", Symbol: "Y", CreatedBy: "alice"})
	require.NoError(t, err)

	return &fixture{eng: eng, store: s, clock: clock, econ: econ, x: x, y: y}
}

// fund records a manual activity giving user points in currency.
func (f *fixture) fund(t *testing.T, user string, currency model.Currency, points string) {
	t.Helper()
	_, err := f.eng.RecordActivity(context.Background(), ActivityInput{
		EconomyID:   f.econ.ID,
		CurrencyID:  currency.ID,
		UserID:      user,
		Description: "seed",
		Points:      dec(points),
	})
	require.NoError(t, err)
}

// balance returns the balance straight from the ledger, bypassing the cache.
func (f *fixture) balance(t *testing.T, user string, currency model.Currency) decimal.Decimal {
	t.Helper()
	bal, err := f.store.SumPoints(context.Background(), model.BalanceKey{
		EconomyID: f.econ.ID, UserID: user, CurrencyID: currency.ID,
	})
	require.NoError(t, err)
	return bal
}

func (f *fixture) key(user string, currency model.Currency) model.BalanceKey {
	return model.BalanceKey{EconomyID: f.econ.ID, UserID: user, CurrencyID: currency.ID}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// assertDecimal compares decimals by value, not representation.
func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}
