package engine

import (
	"context"
	"time"

	"github.com/roach88/pointecon/internal/model"
	"github.com/roach88/pointecon/internal/store"
)

// CreateEconomy creates a new, empty economy.
func (e *Engine) CreateEconomy(ctx context.Context, name string) (_ model.Economy, err error) {
	defer e.observe(ctx, "create_economy", time.Now(), &err)

	econ := model.Economy{
		ID:        e.ids.Generate(),
		Name:      model.CleanText(name),
		CreatedAt: e.now(),
	}
	if econ.Name == "" {
		return model.Economy{}, newError(CodeInvalidArgument, "economy name is required")
	}
	if err := e.store.InsertEconomy(ctx, econ); err != nil {
		return model.Economy{}, storeError("create economy", err)
	}

	e.log.InfoContext(ctx, "economy created", "economy_id", econ.ID, "name", econ.Name)
	return econ, nil
}

// GetEconomy retrieves an economy by ID.
func (e *Engine) GetEconomy(ctx context.Context, id string) (_ model.Economy, err error) {
	defer e.observe(ctx, "get_economy", time.Now(), &err)

	econ, err := e.store.ReadEconomy(ctx, id)
	if err != nil {
		return model.Economy{}, storeError("economy "+id, err)
	}
	return econ, nil
}

// ListEconomies returns all economies, newest first.
func (e *Engine) ListEconomies(ctx context.Context) (_ []model.Economy, err error) {
	defer e.observe(ctx, "list_economies", time.Now(), &err)

	economies, err := e.store.ListEconomies(ctx)
	if err != nil {
		return nil, storeError("list economies", err)
	}
	return economies, nil
}

// CurrencyInput describes a new currency.
type CurrencyInput struct {
	EconomyID string
	Name      string
	Symbol    string
	Rules     string
	Color     string
	CreatedBy string
}

// CreateCurrency registers a currency in an economy. Name and symbol are
// required; blank rules are stored as null and a blank color gets the
// default.
func (e *Engine) CreateCurrency(ctx context.Context, in CurrencyInput) (_ model.Currency, err error) {
	defer e.observe(ctx, "create_currency", time.Now(), &err)

	c := model.Currency{
		EconomyID: in.EconomyID,
		Name:      model.CleanText(in.Name),
		Symbol:    model.CleanText(in.Symbol),
		Rules:     model.OptionalText(in.Rules),
		Color:     model.ColorOr(in.Color, model.DefaultCurrencyColor),
		CreatedBy: in.CreatedBy,
	}
	if c.Name == "" {
		return model.Currency{}, newError(CodeInvalidArgument, "currency name is required")
	}
	if c.Symbol == "" {
		return model.Currency{}, newError(CodeInvalidArgument, "currency symbol is required")
	}
	if err := e.requireEconomy(ctx, &e.store.Queries, in.EconomyID); err != nil {
		return model.Currency{}, err
	}

	c.ID = e.ids.Generate()
	c.CreatedAt = e.now()
	if err := e.store.InsertCurrency(ctx, c); err != nil {
		return model.Currency{}, storeError("create currency", err)
	}

	e.log.InfoContext(ctx, "currency created",
		"economy_id", c.EconomyID,
		"currency_id", c.ID,
		"symbol", c.Symbol,
		"actor", c.CreatedBy,
	)
	return c, nil
}

// UpdateCurrencyRules replaces a currency's free-text rules. Blank rules
// clear them. Returns the updated currency.
func (e *Engine) UpdateCurrencyRules(ctx context.Context, economyID, currencyID, rules string) (_ model.Currency, err error) {
	defer e.observe(ctx, "update_currency_rules", time.Now(), &err)

	if err := e.store.UpdateCurrencyRules(ctx, economyID, currencyID, model.OptionalText(rules)); err != nil {
		return model.Currency{}, storeError("currency "+currencyID, err)
	}
	return e.readCurrency(ctx, economyID, currencyID)
}

// UpdateCurrencyColor replaces a currency's display color. A blank color
// resets it to the default.
func (e *Engine) UpdateCurrencyColor(ctx context.Context, economyID, currencyID, color string) (_ model.Currency, err error) {
	defer e.observe(ctx, "update_currency_color", time.Now(), &err)

	color = model.ColorOr(color, model.DefaultCurrencyColor)
	if err := e.store.UpdateCurrencyColor(ctx, economyID, currencyID, color); err != nil {
		return model.Currency{}, storeError("currency "+currencyID, err)
	}
	return e.readCurrency(ctx, economyID, currencyID)
}

// CurrencyUpdate changes display fields. Nil fields are left unchanged;
// blank Rules clears them and blank Color resets the default.
type CurrencyUpdate struct {
	Rules *string
	Color *string
}

// UpdateCurrency applies rules and color together: either both change or
// neither does.
func (e *Engine) UpdateCurrency(ctx context.Context, economyID, currencyID string, u CurrencyUpdate) (_ model.Currency, err error) {
	defer e.observe(ctx, "update_currency", time.Now(), &err)

	if u.Rules == nil && u.Color == nil {
		return model.Currency{}, newError(CodeInvalidArgument, "nothing to update: set rules or color")
	}
	var d store.CurrencyDisplay
	if u.Rules != nil {
		d.SetRules = true
		d.Rules = model.OptionalText(*u.Rules)
	}
	if u.Color != nil {
		color := model.ColorOr(*u.Color, model.DefaultCurrencyColor)
		d.Color = &color
	}
	if err := e.store.UpdateCurrencyDisplay(ctx, economyID, currencyID, d); err != nil {
		return model.Currency{}, storeError("currency "+currencyID, err)
	}
	return e.readCurrency(ctx, economyID, currencyID)
}

// GetCurrency retrieves a currency scoped to its economy.
func (e *Engine) GetCurrency(ctx context.Context, economyID, currencyID string) (_ model.Currency, err error) {
	defer e.observe(ctx, "get_currency", time.Now(), &err)
	return e.readCurrency(ctx, economyID, currencyID)
}

// ListCurrencies returns an economy's currencies in creation order.
func (e *Engine) ListCurrencies(ctx context.Context, economyID string) (_ []model.Currency, err error) {
	defer e.observe(ctx, "list_currencies", time.Now(), &err)

	if err := e.requireEconomy(ctx, &e.store.Queries, economyID); err != nil {
		return nil, err
	}
	currencies, err := e.store.ListCurrencies(ctx, economyID)
	if err != nil {
		return nil, storeError("list currencies", err)
	}
	return currencies, nil
}

func (e *Engine) readCurrency(ctx context.Context, economyID, currencyID string) (model.Currency, error) {
	c, err := e.store.ReadCurrency(ctx, economyID, currencyID)
	if err != nil {
		return model.Currency{}, storeError("currency "+currencyID, err)
	}
	return c, nil
}
