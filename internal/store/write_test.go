package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pointecon/internal/model"
)

func TestAppend_BatchIsAtomic(t *testing.T) {
	s := createSeededStore(t)
	ctx := context.Background()

	good := createTestActivity("a1", "alice", testX, "-5", testBase)
	bad := createTestActivity("a2", "bob", "cur-missing", "5", testBase)

	err := s.Append(ctx, []model.Activity{good, bad})
	require.ErrorIs(t, err, ErrConstraint)

	entries, err := s.ListActivities(ctx, ActivityFilter{EconomyID: testEconomy})
	require.NoError(t, err)
	assert.Empty(t, entries, "first entry of a failed batch must not be visible")
}

func TestAppend_RejectsCurrencyFromAnotherEconomy(t *testing.T) {
	s := createSeededStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertEconomy(ctx, model.Economy{ID: "econ-2", Name: "Other", CreatedAt: testBase}))

	a := createTestActivity("a1", "alice", testX, "1", testBase)
	a.EconomyID = "econ-2"

	err := s.Append(ctx, []model.Activity{a})
	assert.ErrorIs(t, err, ErrConstraint)
}

func TestAppend_DuplicateIDIsConstraintViolation(t *testing.T) {
	s := createSeededStore(t)
	ctx := context.Background()
	a := createTestActivity("a1", "alice", testX, "1", testBase)

	require.NoError(t, s.Append(ctx, []model.Activity{a}))
	assert.ErrorIs(t, s.Append(ctx, []model.Activity{a}), ErrConstraint)
}

func TestActivities_AppendOnly(t *testing.T) {
	s := createSeededStore(t)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, []model.Activity{createTestActivity("a1", "alice", testX, "1", testBase)}))

	_, err := s.db.ExecContext(ctx, `UPDATE activities SET points = '100' WHERE id = 'a1'`)
	require.Error(t, err)
	assert.ErrorIs(t, classify("update", err), ErrConstraint)

	_, err = s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = 'a1'`)
	require.Error(t, err)
	assert.ErrorIs(t, classify("delete", err), ErrConstraint)

	sum, err := s.SumPoints(ctx, model.BalanceKey{EconomyID: testEconomy, UserID: "alice", CurrencyID: testX})
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(1)))
}

func TestEconomy_InsertAndRead(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertEconomy(ctx, model.Economy{ID: "e1", Name: "Club", CreatedAt: testBase}))

	e, err := s.ReadEconomy(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Club", e.Name)
	assert.True(t, e.CreatedAt.Equal(testBase))

	_, err = s.ReadEconomy(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCurrency_UpdateRules(t *testing.T) {
	s := createSeededStore(t)
	ctx := context.Background()

	rules := "earn by chores"
	require.NoError(t, s.UpdateCurrencyRules(ctx, testEconomy, testX, &rules))

	c, err := s.ReadCurrency(ctx, testEconomy, testX)
	require.NoError(t, err)
	require.NotNil(t, c.Rules)
	assert.Equal(t, rules, *c.Rules)

	require.NoError(t, s.UpdateCurrencyRules(ctx, testEconomy, testX, nil))
	c, err = s.ReadCurrency(ctx, testEconomy, testX)
	require.NoError(t, err)
	assert.Nil(t, c.Rules)

	assert.ErrorIs(t, s.UpdateCurrencyRules(ctx, "econ-2", testX, nil), ErrNotFound)
}

func TestCurrency_UpdateColor(t *testing.T) {
	s := createSeededStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateCurrencyColor(ctx, testEconomy, testY, "#ff0000"))
	c, err := s.ReadCurrency(ctx, testEconomy, testY)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", c.Color)

	assert.ErrorIs(t, s.UpdateCurrencyColor(ctx, testEconomy, "nope", "#fff"), ErrNotFound)
}

func TestCurrency_UpdateDisplay(t *testing.T) {
	s := createSeededStore(t)
	ctx := context.Background()
	rules, color := "one per chore", "#00ff00"

	require.NoError(t, s.UpdateCurrencyDisplay(ctx, testEconomy, testX, CurrencyDisplay{SetRules: true, Rules: &rules, Color: &color}))
	c, err := s.ReadCurrency(ctx, testEconomy, testX)
	require.NoError(t, err)
	require.NotNil(t, c.Rules)
	assert.Equal(t, rules, *c.Rules)
	assert.Equal(t, color, c.Color)

	// Color only: rules are kept.
	other := "#0000ff"
	require.NoError(t, s.UpdateCurrencyDisplay(ctx, testEconomy, testX, CurrencyDisplay{Color: &other}))
	c, err = s.ReadCurrency(ctx, testEconomy, testX)
	require.NoError(t, err)
	require.NotNil(t, c.Rules)
	assert.Equal(t, other, c.Color)

	// SetRules with nil clears them.
	require.NoError(t, s.UpdateCurrencyDisplay(ctx, testEconomy, testX, CurrencyDisplay{SetRules: true}))
	c, err = s.ReadCurrency(ctx, testEconomy, testX)
	require.NoError(t, err)
	assert.Nil(t, c.Rules)
	assert.Equal(t, other, c.Color)

	assert.ErrorIs(t, s.UpdateCurrencyDisplay(ctx, testEconomy, "nope", CurrencyDisplay{Color: &color}), ErrNotFound)
}

func TestEconomy_ListNewestFirst(t *testing.T) {
	s := createSeededStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertEconomy(ctx, model.Economy{ID: "econ-2", Name: "Later", CreatedAt: testBase.Add(time.Hour)}))
	require.NoError(t, s.InsertEconomy(ctx, model.Economy{ID: "econ-0", Name: "Tied", CreatedAt: testBase.Add(time.Hour)}))

	economies, err := s.ListEconomies(ctx)
	require.NoError(t, err)
	require.Len(t, economies, 3)
	assert.Equal(t, []string{"econ-2", "econ-0", testEconomy},
		[]string{economies[0].ID, economies[1].ID, economies[2].ID})
	assert.True(t, economies[0].CreatedAt.Equal(testBase.Add(time.Hour)))
}

func TestEconomy_ListEmpty(t *testing.T) {
	economies, err := createTestStore(t).ListEconomies(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, economies)
	assert.Empty(t, economies)
}

func TestCurrency_ListOrdered(t *testing.T) {
	s := createSeededStore(t)
	currencies, err := s.ListCurrencies(context.Background(), testEconomy)
	require.NoError(t, err)
	require.Len(t, currencies, 2)
	assert.Equal(t, testX, currencies[0].ID)
	assert.Equal(t, testY, currencies[1].ID)
}

func TestButtons_CRUD(t *testing.T) {
	s := createSeededStore(t)
	ctx := context.Background()

	b := model.ActivityButton{
		ID:         "b1",
		EconomyID:  testEconomy,
		CurrencyID: testX,
		Label:      "Dishes",
		Points:     decimal.RequireFromString("2.5"),
		Color:      model.DefaultButtonColor,
		CreatedBy:  "alice",
		CreatedAt:  testBase,
	}
	require.NoError(t, s.InsertButton(ctx, b))

	b.Label = "Dishes (big)"
	b.Points = decimal.NewFromInt(4)
	b.CurrencyID = testY
	require.NoError(t, s.UpdateButton(ctx, b))

	got, err := s.ReadButton(ctx, testEconomy, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Dishes (big)", got.Label)
	assert.Equal(t, testY, got.CurrencyID)
	assert.True(t, got.Points.Equal(decimal.NewFromInt(4)))

	list, err := s.ListButtons(ctx, testEconomy)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteButton(ctx, testEconomy, "b1"))
	assert.ErrorIs(t, s.DeleteButton(ctx, testEconomy, "b1"), ErrNotFound)

	_, err = s.ReadButton(ctx, testEconomy, "b1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTimestamps_RoundTripNanoseconds(t *testing.T) {
	s := createSeededStore(t)
	ctx := context.Background()
	at := testBase.Add(123456789 * time.Nanosecond)

	require.NoError(t, s.Append(ctx, []model.Activity{createTestActivity("a1", "alice", testX, "1", at)}))

	entries, err := s.ListActivities(ctx, ActivityFilter{EconomyID: testEconomy})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].CreatedAt.Equal(at))
	assert.Equal(t, time.UTC, entries[0].CreatedAt.Location())
}
