package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pointecon/internal/model"
	"github.com/roach88/pointecon/internal/store"
)

func (f *fixture) exchange(t *testing.T, user, amount string) model.ExchangeRequest {
	t.Helper()
	x, err := f.eng.CreateExchange(context.Background(), ExchangeInput{
		EconomyID:      f.econ.ID,
		FromCurrencyID: f.x.ID,
		ToCurrencyID:   f.y.ID,
		AmountFrom:     dec(amount),
		CreatedBy:      user,
	})
	require.NoError(t, err)
	return x
}

func TestCreateExchange_Validation(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "alice", f.x, "5")
	ctx := context.Background()

	tests := []struct {
		name string
		in   ExchangeInput
		want error
	}{
		{"zero amount", ExchangeInput{FromCurrencyID: f.x.ID, ToCurrencyID: f.y.ID, AmountFrom: dec("0")}, ErrInvalidAmount},
		{"same currency", ExchangeInput{FromCurrencyID: f.x.ID, ToCurrencyID: f.x.ID, AmountFrom: dec("1")}, ErrSameCurrency},
		{"unknown currency", ExchangeInput{FromCurrencyID: f.x.ID, ToCurrencyID: "nope", AmountFrom: dec("1")}, ErrNotFound},
		{"over balance", ExchangeInput{FromCurrencyID: f.x.ID, ToCurrencyID: f.y.ID, AmountFrom: dec("6")}, ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			in.EconomyID = f.econ.ID
			in.CreatedBy = "alice"
			_, err := f.eng.CreateExchange(ctx, in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFinalizeExchange_MeanRateScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, "alice", f.x, "100")
	x := f.exchange(t, "alice", "10")

	_, err := f.eng.SubmitRate(ctx, f.econ.ID, x.ID, "bob", dec("2.0"))
	require.NoError(t, err)
	_, err = f.eng.SubmitRate(ctx, f.econ.ID, x.ID, "carol", dec("3.0"))
	require.NoError(t, err)

	got, err := f.eng.FinalizeExchange(ctx, f.econ.ID, x.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.ExchangeFinalized, got.Status)
	require.NotNil(t, got.FinalRate)
	require.NotNil(t, got.AmountTo)
	require.NotNil(t, got.FinalizedAt)
	assertDecimal(t, "2.5", *got.FinalRate)
	assertDecimal(t, "25", *got.AmountTo)
	assert.True(t, got.AmountTo.Equal(got.AmountFrom.Mul(*got.FinalRate)))

	assertDecimal(t, "90", f.balance(t, "alice", f.x))
	assertDecimal(t, "25", f.balance(t, "alice", f.y))

	stored, err := f.eng.GetExchange(ctx, f.econ.ID, x.ID)
	require.NoError(t, err)
	assertDecimal(t, "2.5", *stored.FinalRate)
	assertDecimal(t, "25", *stored.AmountTo)

	_, err = f.eng.FinalizeExchange(ctx, f.econ.ID, x.ID, "alice")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.eng.SubmitRate(ctx, f.econ.ID, x.ID, "dave", dec("9"))
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.eng.CancelExchange(ctx, f.econ.ID, x.ID, "alice")
	assert.ErrorIs(t, err, ErrInvalidState)
	assertDecimal(t, "90", f.balance(t, "alice", f.x))
}

func TestSubmitRate_UpsertPerSubmitter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, "alice", f.x, "10")
	x := f.exchange(t, "alice", "10")

	first, err := f.eng.SubmitRate(ctx, f.econ.ID, x.ID, "bob", dec("2.0"))
	require.NoError(t, err)
	second, err := f.eng.SubmitRate(ctx, f.econ.ID, x.ID, "bob", dec("3.0"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	subs, err := f.eng.ListRateSubmissions(ctx, f.econ.ID, x.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assertDecimal(t, "3", subs[0].Rate)

	got, err := f.eng.FinalizeExchange(ctx, f.econ.ID, x.ID, "alice")
	require.NoError(t, err)
	assertDecimal(t, "3", *got.FinalRate)
	assertDecimal(t, "30", *got.AmountTo)
}

func TestSubmitRate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, "alice", f.x, "10")
	x := f.exchange(t, "alice", "1")

	_, err := f.eng.SubmitRate(ctx, f.econ.ID, x.ID, "bob", dec("0"))
	assert.ErrorIs(t, err, ErrInvalidRate)
	_, err = f.eng.SubmitRate(ctx, f.econ.ID, x.ID, "bob", dec("-2"))
	assert.ErrorIs(t, err, ErrInvalidRate)
	_, err = f.eng.SubmitRate(ctx, f.econ.ID, "missing", "bob", dec("2"))
	assert.ErrorIs(t, err, ErrNotFound)

	// The requester may vote on their own exchange.
	_, err = f.eng.SubmitRate(ctx, f.econ.ID, x.ID, "alice", dec("4"))
	assert.NoError(t, err)
}

func TestFinalizeExchange_NoSubmissions(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "alice", f.x, "10")
	x := f.exchange(t, "alice", "1")

	_, err := f.eng.FinalizeExchange(context.Background(), f.econ.ID, x.ID, "alice")
	assert.ErrorIs(t, err, ErrNoSubmissions)
}

func TestFinalizeExchange_InsufficientFundsKeepsOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, "alice", f.x, "10")
	x := f.exchange(t, "alice", "10")
	_, err := f.eng.SubmitRate(ctx, f.econ.ID, x.ID, "bob", dec("2"))
	require.NoError(t, err)

	f.fund(t, "alice", f.x, "-1")
	_, err = f.eng.FinalizeExchange(ctx, f.econ.ID, x.ID, "bob")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	stored, err := f.eng.GetExchange(ctx, f.econ.ID, x.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ExchangeOpen, stored.Status)
	assert.Nil(t, stored.FinalRate)
	assertDecimal(t, "0", f.balance(t, "alice", f.y))
}

func TestCancelExchange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, "alice", f.x, "10")
	x := f.exchange(t, "alice", "1")

	_, err := f.eng.CancelExchange(ctx, f.econ.ID, x.ID, "bob")
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.eng.CancelExchange(ctx, f.econ.ID, x.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.ExchangeCancelled, got.Status)

	_, err = f.eng.FinalizeExchange(ctx, f.econ.ID, x.ID, "alice")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestFinalizeExchange_ConcurrentFinalizeAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, "alice", f.x, "10")
	x := f.exchange(t, "alice", "10")
	_, err := f.eng.SubmitRate(ctx, f.econ.ID, x.ID, "bob", dec("1.5"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var errFinalize, errCancel error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errFinalize = f.eng.FinalizeExchange(ctx, f.econ.ID, x.ID, "bob")
	}()
	go func() {
		defer wg.Done()
		_, errCancel = f.eng.CancelExchange(ctx, f.econ.ID, x.ID, "alice")
	}()
	wg.Wait()

	stored, err := f.eng.GetExchange(ctx, f.econ.ID, x.ID)
	require.NoError(t, err)
	if errFinalize == nil {
		assert.ErrorIs(t, errCancel, ErrInvalidState)
		assert.Equal(t, model.ExchangeFinalized, stored.Status)
		assertDecimal(t, "15", f.balance(t, "alice", f.y))
	} else {
		assert.ErrorIs(t, errFinalize, ErrInvalidState)
		assert.NoError(t, errCancel)
		assert.Equal(t, model.ExchangeCancelled, stored.Status)
		assertDecimal(t, "10", f.balance(t, "alice", f.x))
	}
}

func TestListExchanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, "alice", f.x, "10")
	f.fund(t, "bob", f.x, "10")
	a := f.exchange(t, "alice", "1")
	b := f.exchange(t, "bob", "1")
	_, err := f.eng.CancelExchange(ctx, f.econ.ID, b.ID, "bob")
	require.NoError(t, err)

	all, err := f.eng.ListExchanges(ctx, store.ExchangeFilter{EconomyID: f.econ.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID, "newest first")

	open, err := f.eng.ListExchanges(ctx, store.ExchangeFilter{EconomyID: f.econ.ID, Status: model.ExchangeOpen})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, a.ID, open[0].ID)

	_, err = f.eng.ListExchanges(ctx, store.ExchangeFilter{EconomyID: f.econ.ID, Status: "accepted"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMeanRate_Precision(t *testing.T) {
	subs := []model.RateSubmission{{Rate: dec("1")}, {Rate: dec("1")}, {Rate: dec("2")}}
	got := MeanRate(subs)
	assert.Equal(t, "1.333333333333", got.String())
	assert.Equal(t, "13.33333333333", dec("10").Mul(got).String())
}
