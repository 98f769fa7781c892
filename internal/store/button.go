package store

import (
	"context"
	"fmt"

	"github.com/roach88/pointecon/internal/model"
)

const buttonColumns = `id, economy_id, currency_id, label, points, color, created_by, created_at`

// InsertButton stores a new activity preset.
func (q *Queries) InsertButton(ctx context.Context, b model.ActivityButton) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO activity_buttons
		(`+buttonColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID,
		b.EconomyID,
		b.CurrencyID,
		b.Label,
		b.Points,
		b.Color,
		b.CreatedBy,
		toUnix(b.CreatedAt),
	)
	return classify("insert button", err)
}

// ReadButton retrieves a preset scoped to its economy.
// Returns ErrNotFound if it does not exist there.
func (q *Queries) ReadButton(ctx context.Context, economyID, id string) (model.ActivityButton, error) {
	row := q.q.QueryRowContext(ctx,
		"SELECT "+buttonColumns+" FROM activity_buttons WHERE economy_id = ? AND id = ?",
		economyID, id,
	)
	b, err := scanButton(row)
	if err != nil {
		return model.ActivityButton{}, classify("read button", err)
	}
	return b, nil
}

// ListButtons returns the presets of an economy ordered by created_at, id.
func (q *Queries) ListButtons(ctx context.Context, economyID string) ([]model.ActivityButton, error) {
	rows, err := q.q.QueryContext(ctx,
		"SELECT "+buttonColumns+" FROM activity_buttons WHERE economy_id = ?"+
			" ORDER BY created_at ASC, id COLLATE BINARY ASC",
		economyID,
	)
	if err != nil {
		return nil, fmt.Errorf("query buttons: %w", err)
	}
	defer rows.Close()

	buttons := []model.ActivityButton{}
	for rows.Next() {
		b, err := scanButton(rows)
		if err != nil {
			return nil, fmt.Errorf("scan button: %w", err)
		}
		buttons = append(buttons, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buttons: %w", err)
	}
	return buttons, nil
}

// UpdateButton rewrites the mutable preset fields (currency, label, points,
// color). Activities recorded from earlier presses are unaffected.
func (q *Queries) UpdateButton(ctx context.Context, b model.ActivityButton) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE activity_buttons
		SET currency_id = ?, label = ?, points = ?, color = ?
		WHERE economy_id = ? AND id = ?
	`, b.CurrencyID, b.Label, b.Points, b.Color, b.EconomyID, b.ID)
	return expectOneRow("update button", res, err)
}

// DeleteButton removes a preset. Returns ErrNotFound if it does not exist.
func (q *Queries) DeleteButton(ctx context.Context, economyID, id string) error {
	res, err := q.q.ExecContext(ctx, `
		DELETE FROM activity_buttons WHERE economy_id = ? AND id = ?
	`, economyID, id)
	return expectOneRow("delete button", res, err)
}

func scanButton(s scanner) (model.ActivityButton, error) {
	var b model.ActivityButton
	var createdAt int64
	if err := s.Scan(
		&b.ID, &b.EconomyID, &b.CurrencyID, &b.Label, &b.Points, &b.Color, &b.CreatedBy, &createdAt,
	); err != nil {
		return model.ActivityButton{}, err
	}
	b.CreatedAt = fromUnix(createdAt)
	return b, nil
}
