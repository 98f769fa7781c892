package store

import (
	"context"
	"fmt"

	"github.com/roach88/pointecon/internal/model"
)

// Append commits a batch of ledger entries atomically.
// Either every entry is visible afterwards or none is.
// Prior entries are never touched.
func (s *Store) Append(ctx context.Context, entries []model.Activity) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		return tx.Append(ctx, entries)
	})
}

// Append inserts ledger entries inside the transaction. They commit (or roll
// back) together with every other write made through tx.
func (t *Tx) Append(ctx context.Context, entries []model.Activity) error {
	return t.insertActivities(ctx, entries)
}

func (q *Queries) insertActivities(ctx context.Context, entries []model.Activity) error {
	for _, a := range entries {
		_, err := q.q.ExecContext(ctx, `
			INSERT INTO activities
			(id, economy_id, currency_id, description, points, created_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			a.ID,
			a.EconomyID,
			a.CurrencyID,
			a.Description,
			a.Points,
			a.CreatedBy,
			toUnix(a.CreatedAt),
		)
		if err != nil {
			return classify(fmt.Sprintf("append activity %s", a.ID), err)
		}
	}
	return nil
}

// InsertEconomy creates a new economy namespace.
func (q *Queries) InsertEconomy(ctx context.Context, e model.Economy) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO economies (id, name, created_at) VALUES (?, ?, ?)
	`, e.ID, e.Name, toUnix(e.CreatedAt))
	return classify("insert economy", err)
}

// ReadEconomy retrieves an economy by ID.
// Returns ErrNotFound if it does not exist.
func (q *Queries) ReadEconomy(ctx context.Context, id string) (model.Economy, error) {
	var e model.Economy
	var createdAt int64
	err := q.q.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM economies WHERE id = ?
	`, id).Scan(&e.ID, &e.Name, &createdAt)
	if err != nil {
		return model.Economy{}, classify("read economy", err)
	}
	e.CreatedAt = fromUnix(createdAt)
	return e, nil
}

// InsertCurrency creates a currency in its economy.
func (q *Queries) InsertCurrency(ctx context.Context, c model.Currency) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO currencies
		(id, economy_id, name, symbol, rules, color, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		c.EconomyID,
		c.Name,
		c.Symbol,
		toNullString(c.Rules),
		c.Color,
		c.CreatedBy,
		toUnix(c.CreatedAt),
	)
	return classify("insert currency", err)
}

// UpdateCurrencyRules replaces the free-text rules. A nil rules clears them.
// Returns ErrNotFound if the currency does not exist in the economy.
func (q *Queries) UpdateCurrencyRules(ctx context.Context, economyID, id string, rules *string) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE currencies SET rules = ? WHERE economy_id = ? AND id = ?
	`, toNullString(rules), economyID, id)
	return expectOneRow("update currency rules", res, err)
}

// UpdateCurrencyColor replaces the display color.
// Returns ErrNotFound if the currency does not exist in the economy.
func (q *Queries) UpdateCurrencyColor(ctx context.Context, economyID, id, color string) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE currencies SET color = ? WHERE economy_id = ? AND id = ?
	`, color, economyID, id)
	return expectOneRow("update currency color", res, err)
}

// CurrencyDisplay changes a currency's display fields in one statement.
// Rules is written only when SetRules is true, so SetRules with nil Rules
// clears them. A nil Color keeps the current color.
type CurrencyDisplay struct {
	SetRules bool
	Rules    *string
	Color    *string
}

// UpdateCurrencyDisplay applies d atomically.
// Returns ErrNotFound if the currency does not exist in the economy.
func (q *Queries) UpdateCurrencyDisplay(ctx context.Context, economyID, id string, d CurrencyDisplay) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE currencies
		SET rules = CASE WHEN ? THEN ? ELSE rules END,
		    color = COALESCE(?, color)
		WHERE economy_id = ? AND id = ?
	`, d.SetRules, toNullString(d.Rules), toNullString(d.Color), economyID, id)
	return expectOneRow("update currency display", res, err)
}

// expectOneRow turns a zero-row UPDATE or DELETE into ErrNotFound.
func expectOneRow(op string, res interface{ RowsAffected() (int64, error) }, err error) error {
	if err != nil {
		return classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
