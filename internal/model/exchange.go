package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeStatus is the closed set of exchange request states.
type ExchangeStatus string

const (
	ExchangeOpen      ExchangeStatus = "open"
	ExchangeFinalized ExchangeStatus = "finalized"
	ExchangeCancelled ExchangeStatus = "cancelled"
)

// Valid reports whether s is one of the declared states.
func (s ExchangeStatus) Valid() bool {
	switch s {
	case ExchangeOpen, ExchangeFinalized, ExchangeCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s ExchangeStatus) Terminal() bool {
	return s == ExchangeFinalized || s == ExchangeCancelled
}

// ExchangeRequest converts AmountFrom of one currency into another inside
// the creator's own wallet. FinalRate, AmountTo and FinalizedAt stay nil
// until finalization and never change afterwards.
type ExchangeRequest struct {
	ID             string           `json:"id"`
	EconomyID      string           `json:"economy_id"`
	FromCurrencyID string           `json:"from_currency_id"`
	ToCurrencyID   string           `json:"to_currency_id"`
	AmountFrom     decimal.Decimal  `json:"amount_from"`
	Status         ExchangeStatus   `json:"status"`
	CreatedBy      string           `json:"created_by"`
	CreatedAt      time.Time        `json:"created_at"`
	FinalizedAt    *time.Time       `json:"finalized_at,omitempty"`
	FinalRate      *decimal.Decimal `json:"final_rate,omitempty"`
	AmountTo       *decimal.Decimal `json:"amount_to,omitempty"`
}

// RateSubmission is one member's vote on an exchange rate.
// At most one exists per (RequestID, SubmittedBy).
type RateSubmission struct {
	ID          string          `json:"id"`
	EconomyID   string          `json:"economy_id"`
	RequestID   string          `json:"request_id"`
	SubmittedBy string          `json:"submitted_by"`
	Rate        decimal.Decimal `json:"rate"`
	CreatedAt   time.Time       `json:"created_at"`
}
