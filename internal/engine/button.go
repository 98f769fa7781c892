package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/pointecon/internal/model"
)

// ButtonInput describes a one-tap activity preset.
type ButtonInput struct {
	EconomyID  string
	CurrencyID string
	Label      string
	Points     decimal.Decimal
	Color      string
	CreatedBy  string
}

// CreateButton registers a preset usable by any member of the economy.
func (e *Engine) CreateButton(ctx context.Context, in ButtonInput) (_ model.ActivityButton, err error) {
	defer e.observe(ctx, "create_button", time.Now(), &err)

	b := model.ActivityButton{
		EconomyID:  in.EconomyID,
		CurrencyID: in.CurrencyID,
		Label:      model.CleanText(in.Label),
		Points:     in.Points,
		Color:      model.ColorOr(in.Color, model.DefaultButtonColor),
		CreatedBy:  in.CreatedBy,
	}
	if b.Label == "" {
		return model.ActivityButton{}, newError(CodeInvalidArgument, "button label is required")
	}
	if _, err := e.store.ReadCurrency(ctx, b.EconomyID, b.CurrencyID); err != nil {
		return model.ActivityButton{}, storeError("currency "+b.CurrencyID, err)
	}

	b.ID = e.ids.Generate()
	b.CreatedAt = e.now()
	if err := e.store.InsertButton(ctx, b); err != nil {
		return model.ActivityButton{}, storeError("create button", err)
	}

	e.log.InfoContext(ctx, "button created", "economy_id", b.EconomyID, "button_id", b.ID, "label", b.Label)
	return b, nil
}

// ButtonUpdate holds the mutable preset fields.
type ButtonUpdate struct {
	CurrencyID string
	Label      string
	Points     decimal.Decimal
	Color      string
}

// UpdateButton rewrites a preset. Only future presses see the change.
func (e *Engine) UpdateButton(ctx context.Context, economyID, buttonID string, u ButtonUpdate) (_ model.ActivityButton, err error) {
	defer e.observe(ctx, "update_button", time.Now(), &err)

	b, err := e.store.ReadButton(ctx, economyID, buttonID)
	if err != nil {
		return model.ActivityButton{}, storeError("button "+buttonID, err)
	}

	b.CurrencyID = u.CurrencyID
	b.Label = model.CleanText(u.Label)
	b.Points = u.Points
	b.Color = model.ColorOr(u.Color, model.DefaultButtonColor)
	if b.Label == "" {
		return model.ActivityButton{}, newError(CodeInvalidArgument, "button label is required")
	}
	if _, err := e.store.ReadCurrency(ctx, economyID, b.CurrencyID); err != nil {
		return model.ActivityButton{}, storeError("currency "+b.CurrencyID, err)
	}
	if err := e.store.UpdateButton(ctx, b); err != nil {
		return model.ActivityButton{}, storeError("update button", err)
	}
	return b, nil
}

// DeleteButton removes a preset. Past presses stay in the ledger.
func (e *Engine) DeleteButton(ctx context.Context, economyID, buttonID string) (err error) {
	defer e.observe(ctx, "delete_button", time.Now(), &err)

	if err := e.store.DeleteButton(ctx, economyID, buttonID); err != nil {
		return storeError("button "+buttonID, err)
	}
	return nil
}

// ListButtons returns an economy's presets in creation order.
func (e *Engine) ListButtons(ctx context.Context, economyID string) (_ []model.ActivityButton, err error) {
	defer e.observe(ctx, "list_buttons", time.Now(), &err)

	if err := e.requireEconomy(ctx, &e.store.Queries, economyID); err != nil {
		return nil, err
	}
	buttons, err := e.store.ListButtons(ctx, economyID)
	if err != nil {
		return nil, storeError("list buttons", err)
	}
	return buttons, nil
}

// PressButton records the preset's points for actor, with the label as the
// activity description.
func (e *Engine) PressButton(ctx context.Context, economyID, buttonID, actor string) (_ model.Activity, err error) {
	defer e.observe(ctx, "press_button", time.Now(), &err)

	if actor == "" {
		return model.Activity{}, newError(CodeInvalidArgument, "user is required")
	}
	b, err := e.store.ReadButton(ctx, economyID, buttonID)
	if err != nil {
		return model.Activity{}, storeError("button "+buttonID, err)
	}
	return e.record(ctx, economyID, b.CurrencyID, actor, b.Label, b.Points)
}
