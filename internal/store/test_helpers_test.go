package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pointecon/internal/model"
)

const (
	testEconomy = "econ-1"
	testX       = "cur-x"
	testY       = "cur-y"
)

var testBase = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createSeededStore creates a store with one economy and two currencies.
func createSeededStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertEconomy(ctx, model.Economy{ID: testEconomy, Name: "Family", CreatedAt: testBase}))
	for i, id := range []string{testX, testY} {
		require.NoError(t, s.InsertCurrency(ctx, model.Currency{
			ID:        id,
			EconomyID: testEconomy,
			Name:      "Currency " + id,
			Symbol:    id,
			Color:     model.DefaultCurrencyColor,
			CreatedBy: "alice",
			CreatedAt: testBase.Add(time.Duration(i) * time.Second),
		}))
	}
	return s
}

// createTestActivity creates an activity with minimal required fields.
func createTestActivity(id, user, currency, points string, at time.Time) model.Activity {
	return model.Activity{
		ID:          id,
		EconomyID:   testEconomy,
		CurrencyID:  currency,
		Description: "test " + id,
		Points:      decimal.RequireFromString(points),
		CreatedBy:   user,
		CreatedAt:   at,
	}
}
