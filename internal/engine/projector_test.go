package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pointecon/internal/model"
	"github.com/roach88/pointecon/internal/store"
)

type countingObserver struct {
	ops     map[string]int
	entries int
	hits    int
	misses  int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{ops: make(map[string]int)}
}

func (o *countingObserver) ObserveOperation(op, outcome string, _ time.Duration) {
	o.ops[op+":"+outcome]++
}

func (o *countingObserver) ObserveLedgerEntries(n int) { o.entries += n }

func (o *countingObserver) ObserveCacheLookup(hit bool) {
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func TestBalance_ZeroWithoutEntries(t *testing.T) {
	f := newFixture(t)
	bal, err := f.eng.GetBalance(context.Background(), f.key("nobody", f.x))
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestBalance_EqualsLedgerSum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fund(t, "alice", f.x, "10.5")
	f.fund(t, "alice", f.x, "-3.25")
	f.fund(t, "alice", f.y, "100")
	f.fund(t, "bob", f.x, "7")

	bal, err := f.eng.GetBalance(ctx, f.key("alice", f.x))
	require.NoError(t, err)
	assertDecimal(t, "7.25", bal)
	assertDecimal(t, "7.25", f.balance(t, "alice", f.x))
}

func TestBalance_UnknownCurrency(t *testing.T) {
	f := newFixture(t)
	_, err := f.eng.GetBalance(context.Background(), model.BalanceKey{
		EconomyID: f.econ.ID, UserID: "alice", CurrencyID: "missing",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjector_CacheInvalidatedOnAppend(t *testing.T) {
	obs := newCountingObserver()
	f := newFixture(t, WithObserver(obs))
	ctx := context.Background()
	key := f.key("alice", f.x)

	f.fund(t, "alice", f.x, "5")
	bal, err := f.eng.GetBalance(ctx, key)
	require.NoError(t, err)
	assertDecimal(t, "5", bal)
	assert.Equal(t, 1, f.eng.Projector().Len())

	_, err = f.eng.GetBalance(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, obs.hits)

	f.fund(t, "alice", f.x, "2")
	assert.Equal(t, 0, f.eng.Projector().Len(), "append must drop the cached triple")

	bal, err = f.eng.GetBalance(ctx, key)
	require.NoError(t, err)
	assertDecimal(t, "7", bal)
}

func TestProjector_SeesCommitsFromAnotherConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	ctx := context.Background()

	serverStore, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { serverStore.Close() })
	cliStore, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { cliStore.Close() })

	server := New(serverStore, WithIDGenerator(NewFixedGenerator("econ-1", "cur-1")))
	cli := New(cliStore, WithIDGenerator(NewFixedGenerator("act-1", "act-2")))

	econ, err := server.CreateEconomy(ctx, "Family")
	require.NoError(t, err)
	require.Equal(t, "econ-1", econ.ID)
	cur, err := server.CreateCurrency(ctx, CurrencyInput{EconomyID: econ.ID, Name: "Stars", Symbol: "S", CreatedBy: "alice"})
	require.NoError(t, err)
	require.Equal(t, "cur-1", cur.ID)
	key := model.BalanceKey{EconomyID: econ.ID, UserID: "alice", CurrencyID: cur.ID}

	bal, err := server.GetBalance(ctx, key)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
	require.Equal(t, 1, server.Projector().Len())

	for _, points := range []string{"10", "-3"} {
		_, err = cli.RecordActivity(ctx, ActivityInput{
			EconomyID: econ.ID, CurrencyID: cur.ID, UserID: "alice", Description: "chores", Points: dec(points),
		})
		require.NoError(t, err)

		bal, err = server.GetBalance(ctx, key)
		require.NoError(t, err)
		sum, err := serverStore.SumPoints(ctx, key)
		require.NoError(t, err)
		assert.Truef(t, sum.Equal(bal), "cached %s, ledger %s", bal, sum)
	}
	assertDecimal(t, "7", bal)
}

func TestProjector_StaleFillIsDiscarded(t *testing.T) {
	s := setupTestStore(t)
	p := newProjector(s, 16, nopObserver{})
	key := model.BalanceKey{EconomyID: "e", UserID: "u", CurrencyID: "c"}

	// A fill that started before an invalidation must not land.
	p.mu.Lock()
	epoch := p.epoch
	p.mu.Unlock()
	p.Invalidate(key)

	p.mu.Lock()
	if p.epoch == epoch {
		p.cache.Add(key, dec("1"))
	}
	p.mu.Unlock()
	assert.Equal(t, 0, p.Len())
}

func TestProjector_Disabled(t *testing.T) {
	f := newFixture(t, WithBalanceCacheSize(0))
	ctx := context.Background()

	f.fund(t, "alice", f.x, "3")
	bal, err := f.eng.GetBalance(ctx, f.key("alice", f.x))
	require.NoError(t, err)
	assertDecimal(t, "3", bal)
	assert.Equal(t, 0, f.eng.Projector().Len())
}

func TestBalances_ZeroFilled(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "alice", f.x, "4")

	got, err := f.eng.Balances(context.Background(), f.econ.ID, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assertDecimal(t, "4", got[f.x.ID])
	assertDecimal(t, "0", got[f.y.ID])

	_, err = f.eng.Balances(context.Background(), "missing", "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestObserver_RecordsOutcomes(t *testing.T) {
	obs := newCountingObserver()
	f := newFixture(t, WithObserver(obs))
	f.fund(t, "alice", f.x, "1")

	_, err := f.eng.CreateTransfer(context.Background(), TransferInput{
		EconomyID: f.econ.ID, CurrencyID: f.x.ID, FromUser: "alice", ToUser: "alice", Amount: dec("1"),
	})
	require.Error(t, err)

	assert.Equal(t, 1, obs.ops["record_activity:ok"])
	assert.Equal(t, 1, obs.ops["create_transfer:SELF_TRANSFER"])
	assert.Equal(t, 1, obs.entries)
}

