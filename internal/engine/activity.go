package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/pointecon/internal/model"
	"github.com/roach88/pointecon/internal/store"
)

// ActivityInput describes a manual ledger entry.
type ActivityInput struct {
	EconomyID   string
	CurrencyID  string
	UserID      string
	Description string

	// Points may be any signed value; manual entries are not balance-checked.
	Points decimal.Decimal
}

// RecordActivity appends one signed entry to the ledger. Not idempotent:
// each call appends a new entry.
func (e *Engine) RecordActivity(ctx context.Context, in ActivityInput) (_ model.Activity, err error) {
	defer e.observe(ctx, "record_activity", time.Now(), &err)

	desc := model.CleanText(in.Description)
	if desc == "" {
		return model.Activity{}, newError(CodeInvalidArgument, "activity description is required")
	}
	if in.UserID == "" {
		return model.Activity{}, newError(CodeInvalidArgument, "user is required")
	}
	return e.record(ctx, in.EconomyID, in.CurrencyID, in.UserID, desc, in.Points)
}

// record is shared by manual entries and button presses.
func (e *Engine) record(
	ctx context.Context,
	economyID, currencyID, userID, description string,
	points decimal.Decimal,
) (model.Activity, error) {
	if _, err := e.store.ReadCurrency(ctx, economyID, currencyID); err != nil {
		return model.Activity{}, storeError("currency "+currencyID, err)
	}

	a := model.Activity{
		ID:          e.ids.Generate(),
		EconomyID:   economyID,
		CurrencyID:  currencyID,
		Description: description,
		Points:      points,
		CreatedBy:   userID,
		CreatedAt:   e.now(),
	}
	if err := e.store.Append(ctx, []model.Activity{a}); err != nil {
		return model.Activity{}, storeError("record activity", err)
	}
	e.appended(a)

	e.log.InfoContext(ctx, "activity recorded",
		"economy_id", a.EconomyID,
		"currency_id", a.CurrencyID,
		"activity_id", a.ID,
		"actor", a.CreatedBy,
		"points", a.Points.String(),
	)
	return a, nil
}

// ListActivities returns ledger entries in deterministic order
// (created_at, id; reversed when f.Newest is set).
func (e *Engine) ListActivities(ctx context.Context, f store.ActivityFilter) (_ []model.Activity, err error) {
	defer e.observe(ctx, "list_activities", time.Now(), &err)

	if err := e.requireEconomy(ctx, &e.store.Queries, f.EconomyID); err != nil {
		return nil, err
	}
	activities, err := e.store.ListActivities(ctx, f)
	if err != nil {
		return nil, storeError("list activities", err)
	}
	return activities, nil
}
