package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Default display colors applied when a caller leaves color empty.
const (
	DefaultCurrencyColor = "#3b82f6"
	DefaultButtonColor   = "#16a34a"
)

// Economy is an isolated namespace owning currencies, activities and requests.
type Economy struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Currency is a user-defined point currency inside one economy.
// Only Rules and Color may change after creation.
type Currency struct {
	ID        string    `json:"id"`
	EconomyID string    `json:"economy_id"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	Rules     *string   `json:"rules,omitempty"`
	Color     string    `json:"color"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity is one immutable signed ledger entry.
// Positive points are credits, negative points are debits.
type Activity struct {
	ID          string          `json:"id"`
	EconomyID   string          `json:"economy_id"`
	CurrencyID  string          `json:"currency_id"`
	Description string          `json:"description"`
	Points      decimal.Decimal `json:"points"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ActivityButton is a reusable one-tap preset. Pressing it records an
// Activity; editing or deleting it never touches recorded activities.
type ActivityButton struct {
	ID         string          `json:"id"`
	EconomyID  string          `json:"economy_id"`
	CurrencyID string          `json:"currency_id"`
	Label      string          `json:"label"`
	Points     decimal.Decimal `json:"points"`
	Color      string          `json:"color"`
	CreatedBy  string          `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BalanceKey identifies one derived balance.
type BalanceKey struct {
	EconomyID  string
	UserID     string
	CurrencyID string
}

// Key returns the balance key an activity contributes to.
func (a Activity) Key() BalanceKey {
	return BalanceKey{EconomyID: a.EconomyID, UserID: a.CreatedBy, CurrencyID: a.CurrencyID}
}

// DailyPoint is one row of the per-currency daily aggregation feed.
// ChangeRate is nil on the first day and whenever the previous total is zero.
type DailyPoint struct {
	CurrencyID string           `json:"currency_id"`
	Day        string           `json:"day"`
	Delta      decimal.Decimal  `json:"delta"`
	Total      decimal.Decimal  `json:"total"`
	ChangeRate *decimal.Decimal `json:"change_rate"`
}
