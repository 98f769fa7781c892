package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailySeries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	day1 := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	f.clock.Set(day1)
	f.fund(t, "alice", f.x, "10")
	f.fund(t, "bob", f.x, "10")
	f.fund(t, "alice", f.y, "3")

	f.clock.Set(day1.Add(24 * time.Hour))
	f.fund(t, "alice", f.x, "5")

	f.clock.Set(day1.Add(72 * time.Hour))
	f.fund(t, "bob", f.x, "-25")
	f.fund(t, "alice", f.x, "4")

	series, err := f.eng.DailySeries(ctx, f.econ.ID, "")
	require.NoError(t, err)
	require.Len(t, series, 4)

	x := series[:3]
	assert.Equal(t, []string{"2026-04-01", "2026-04-02", "2026-04-04"}, []string{x[0].Day, x[1].Day, x[2].Day})
	for _, p := range x {
		assert.Equal(t, f.x.ID, p.CurrencyID)
	}
	assertDecimal(t, "20", x[0].Delta)
	assertDecimal(t, "20", x[0].Total)
	assert.Nil(t, x[0].ChangeRate)

	assertDecimal(t, "5", x[1].Delta)
	assertDecimal(t, "25", x[1].Total)
	require.NotNil(t, x[1].ChangeRate)
	assertDecimal(t, "0.25", *x[1].ChangeRate)

	assertDecimal(t, "-21", x[2].Delta)
	assertDecimal(t, "4", x[2].Total)
	require.NotNil(t, x[2].ChangeRate)
	assertDecimal(t, "-0.84", *x[2].ChangeRate)

	assert.Equal(t, f.y.ID, series[3].CurrencyID)
	assertDecimal(t, "3", series[3].Total)
}

func TestDailySeries_ZeroPreviousTotalHasNoRate(t *testing.T) {
	f := newFixture(t)
	day1 := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	f.clock.Set(day1)
	f.fund(t, "alice", f.x, "5")
	f.fund(t, "alice", f.x, "-5")
	f.clock.Set(day1.Add(24 * time.Hour))
	f.fund(t, "alice", f.x, "2")

	series, err := f.eng.DailySeries(context.Background(), f.econ.ID, f.x.ID)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assertDecimal(t, "0", series[0].Total)
	assert.Nil(t, series[1].ChangeRate)
}

func TestDailySeries_Location(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	f := newFixture(t, WithLocation(tokyo))

	// 20:00 UTC on March 31 is already April 1 in Tokyo.
	f.clock.Set(time.Date(2026, 3, 31, 20, 0, 0, 0, time.UTC))
	f.fund(t, "alice", f.x, "1")

	series, err := f.eng.DailySeries(context.Background(), f.econ.ID, f.x.ID)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "2026-04-01", series[0].Day)
}

func TestDailySeries_Empty(t *testing.T) {
	f := newFixture(t)
	series, err := f.eng.DailySeries(context.Background(), f.econ.ID, "")
	require.NoError(t, err)
	assert.Empty(t, series)

	_, err = f.eng.DailySeries(context.Background(), f.econ.ID, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
