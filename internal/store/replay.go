package store

import (
	"context"
	"fmt"

	"github.com/roach88/pointecon/internal/model"
)

// ReplayActivities streams every ledger entry of an economy (optionally one
// currency) to fn in created_at ASC, id ASC order. Replaying the same ledger
// always yields the same sequence, which is what chart aggregation relies on.
//
// fn runs while the result set is open on the store's only connection, so it
// must not call back into the Store. Returning an error from fn stops the
// replay and is returned wrapped.
func (q *Queries) ReplayActivities(ctx context.Context, economyID, currencyID string, fn func(model.Activity) error) error {
	where, args := activityWhere(economyID, currencyID, "")
	rows, err := q.q.QueryContext(ctx,
		"SELECT "+activityColumns+" FROM activities WHERE "+where+
			" ORDER BY created_at ASC, id COLLATE BINARY ASC",
		args...,
	)
	if err != nil {
		return fmt.Errorf("replay activities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return err
		}
		if err := fn(a); err != nil {
			return fmt.Errorf("replay activity %s: %w", a.ID, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate replay: %w", err)
	}
	return nil
}
