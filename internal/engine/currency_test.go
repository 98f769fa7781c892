package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pointecon/internal/model"
)

func TestCreateEconomy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.eng.GetEconomy(ctx, f.econ.ID)
	require.NoError(t, err)
	assert.Equal(t, "Family", got.Name)

	_, err = f.eng.CreateEconomy(ctx, "   ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.eng.GetEconomy(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateCurrency_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CurrencyInput
		want error
	}{
		{"empty name", CurrencyInput{EconomyID: f.econ.ID, Name: " ", Symbol: "S"}, ErrInvalidArgument},
		{"empty symbol", CurrencyInput{EconomyID: f.econ.ID, Name: "Suns", Symbol: ""}, ErrInvalidArgument},
		{"unknown economy", CurrencyInput{EconomyID: "missing", Name: "Suns", Symbol: "S"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.eng.CreateCurrency(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateCurrency_Defaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.eng.CreateCurrency(ctx, CurrencyInput{
		EconomyID: f.econ.ID,
		Name:      "  Café ",
		Symbol:    " C ",
		Rules:     "   ",
		CreatedBy: "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, "Café", c.Name)
	assert.Equal(t, "C", c.Symbol)
	assert.Nil(t, c.Rules)
	assert.Equal(t, model.DefaultCurrencyColor, c.Color)

	list, err := f.eng.ListCurrencies(ctx, f.econ.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{f.x.ID, f.y.ID, c.ID}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestUpdateCurrencyRulesAndColor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.eng.UpdateCurrencyRules(ctx, f.econ.ID, f.x.ID, "  one star per chore ")
	require.NoError(t, err)
	require.NotNil(t, c.Rules)
	assert.Equal(t, "one star per chore", *c.Rules)

	c, err = f.eng.UpdateCurrencyRules(ctx, f.econ.ID, f.x.ID, "")
	require.NoError(t, err)
	assert.Nil(t, c.Rules)

	c, err = f.eng.UpdateCurrencyColor(ctx, f.econ.ID, f.x.ID, "#ff0000")
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", c.Color)
	assert.Equal(t, f.x.Name, c.Name, "name is immutable")

	_, err = f.eng.UpdateCurrencyRules(ctx, "other-econ", f.x.ID, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCurrency_AppliesFieldsTogether(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rules, color := " earn by chores ", "#111111"

	c, err := f.eng.UpdateCurrency(ctx, f.econ.ID, f.x.ID, CurrencyUpdate{Rules: &rules, Color: &color})
	require.NoError(t, err)
	require.NotNil(t, c.Rules)
	assert.Equal(t, "earn by chores", *c.Rules)
	assert.Equal(t, "#111111", c.Color)

	cleared := ""
	c, err = f.eng.UpdateCurrency(ctx, f.econ.ID, f.x.ID, CurrencyUpdate{Rules: &cleared})
	require.NoError(t, err)
	assert.Nil(t, c.Rules)
	assert.Equal(t, "#111111", c.Color, "color untouched when not set")

	_, err = f.eng.UpdateCurrency(ctx, f.econ.ID, f.x.ID, CurrencyUpdate{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.eng.UpdateCurrency(ctx, "other-econ", f.x.ID, CurrencyUpdate{Rules: &rules, Color: &color})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEconomies_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	second, err := f.eng.CreateEconomy(ctx, "Neighbors")
	require.NoError(t, err)

	list, err := f.eng.ListEconomies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, f.econ.ID, list[1].ID)
}
