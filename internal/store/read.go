package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/pointecon/internal/model"
)

// ActivityFilter scopes a ledger query. EconomyID is required; empty
// CurrencyID or UserID means "all".
type ActivityFilter struct {
	EconomyID  string
	CurrencyID string
	UserID     string

	// Limit caps the number of rows; 0 means unlimited.
	Limit int

	// Newest reverses the order so the most recent entries come first.
	Newest bool
}

const activityColumns = `id, economy_id, currency_id, description, points, created_by, created_at`

// ListActivities returns ledger entries matching the filter.
// Results are ordered deterministically: created_at ASC, id ASC COLLATE BINARY
// (or the exact reverse when Newest is set).
//
// Returns an empty slice (not nil) if no entries match.
func (q *Queries) ListActivities(ctx context.Context, f ActivityFilter) ([]model.Activity, error) {
	where, args := activityWhere(f.EconomyID, f.CurrencyID, f.UserID)

	order := "created_at ASC, id COLLATE BINARY ASC"
	if f.Newest {
		order = "created_at DESC, id COLLATE BINARY DESC"
	}
	query := "SELECT " + activityColumns + " FROM activities WHERE " + where + " ORDER BY " + order
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	activities := []model.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}

	return activities, nil
}

// SumPoints returns the derived balance for one (economy, user, currency).
// The sum is computed in decimal arithmetic; SQLite's SUM would go through
// floating point. Returns zero when there are no entries.
func (q *Queries) SumPoints(ctx context.Context, key model.BalanceKey) (decimal.Decimal, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT points FROM activities
		WHERE economy_id = ? AND created_by = ? AND currency_id = ?
	`, key.EconomyID, key.UserID, key.CurrencyID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query balance: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var p decimal.Decimal
		if err := rows.Scan(&p); err != nil {
			return decimal.Zero, fmt.Errorf("scan points: %w", err)
		}
		sum = sum.Add(p)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("iterate points: %w", err)
	}
	return sum, nil
}

// SumPointsByCurrency returns every non-empty balance a user holds in the
// economy, keyed by currency ID.
func (q *Queries) SumPointsByCurrency(ctx context.Context, economyID, userID string) (map[string]decimal.Decimal, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT currency_id, points FROM activities
		WHERE economy_id = ? AND created_by = ?
	`, economyID, userID)
	if err != nil {
		return nil, fmt.Errorf("query balances: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var currencyID string
		var p decimal.Decimal
		if err := rows.Scan(&currencyID, &p); err != nil {
			return nil, fmt.Errorf("scan balance row: %w", err)
		}
		sums[currencyID] = sums[currencyID].Add(p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balances: %w", err)
	}
	return sums, nil
}

// ReadCurrency retrieves a currency scoped to its economy.
// Returns ErrNotFound if the currency does not exist there.
func (q *Queries) ReadCurrency(ctx context.Context, economyID, id string) (model.Currency, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT id, economy_id, name, symbol, rules, color, created_by, created_at
		FROM currencies
		WHERE economy_id = ? AND id = ?
	`, economyID, id)
	c, err := scanCurrency(row)
	if err != nil {
		return model.Currency{}, classify("read currency", err)
	}
	return c, nil
}

// ListEconomies returns every economy, newest first.
func (q *Queries) ListEconomies(ctx context.Context) ([]model.Economy, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM economies
		ORDER BY created_at DESC, id COLLATE BINARY DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query economies: %w", err)
	}
	defer rows.Close()

	economies := []model.Economy{}
	for rows.Next() {
		var e model.Economy
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan economy: %w", err)
		}
		e.CreatedAt = fromUnix(createdAt)
		economies = append(economies, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate economies: %w", err)
	}
	return economies, nil
}

// ListCurrencies returns the currencies of an economy ordered by
// created_at ASC, id ASC.
func (q *Queries) ListCurrencies(ctx context.Context, economyID string) ([]model.Currency, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT id, economy_id, name, symbol, rules, color, created_by, created_at
		FROM currencies
		WHERE economy_id = ?
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`, economyID)
	if err != nil {
		return nil, fmt.Errorf("query currencies: %w", err)
	}
	defer rows.Close()

	currencies := []model.Currency{}
	for rows.Next() {
		c, err := scanCurrency(rows)
		if err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		currencies = append(currencies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate currencies: %w", err)
	}
	return currencies, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(s scanner) (model.Activity, error) {
	var a model.Activity
	var createdAt int64
	if err := s.Scan(
		&a.ID, &a.EconomyID, &a.CurrencyID, &a.Description, &a.Points, &a.CreatedBy, &createdAt,
	); err != nil {
		return model.Activity{}, fmt.Errorf("scan activity: %w", err)
	}
	a.CreatedAt = fromUnix(createdAt)
	return a, nil
}

func scanCurrency(s scanner) (model.Currency, error) {
	var c model.Currency
	var rules sql.NullString
	var createdAt int64
	if err := s.Scan(
		&c.ID, &c.EconomyID, &c.Name, &c.Symbol, &rules, &c.Color, &c.CreatedBy, &createdAt,
	); err != nil {
		return model.Currency{}, err
	}
	c.Rules = fromNullString(rules)
	c.CreatedAt = fromUnix(createdAt)
	return c, nil
}

// activityWhere builds the shared economy/currency/user predicate.
func activityWhere(economyID, currencyID, userID string) (string, []any) {
	clauses := []string{"economy_id = ?"}
	args := []any{economyID}
	if currencyID != "" {
		clauses = append(clauses, "currency_id = ?")
		args = append(args, currencyID)
	}
	if userID != "" {
		clauses = append(clauses, "created_by = ?")
		args = append(args, userID)
	}
	return strings.Join(clauses, " AND "), args
}
