package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus is the closed set of transfer request states.
type TransferStatus string

const (
	TransferOpen      TransferStatus = "open"
	TransferAccepted  TransferStatus = "accepted"
	TransferRejected  TransferStatus = "rejected"
	TransferCancelled TransferStatus = "cancelled"
)

// Valid reports whether s is one of the declared states.
func (s TransferStatus) Valid() bool {
	switch s {
	case TransferOpen, TransferAccepted, TransferRejected, TransferCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s TransferStatus) Terminal() bool {
	return s == TransferAccepted || s == TransferRejected || s == TransferCancelled
}

// TransferRequest is a peer-to-peer proposal gated by the recipient.
type TransferRequest struct {
	ID          string          `json:"id"`
	EconomyID   string          `json:"economy_id"`
	CurrencyID  string          `json:"currency_id"`
	Amount      decimal.Decimal `json:"amount"`
	Memo        *string         `json:"memo,omitempty"`
	FromUser    string          `json:"from_user"`
	ToUser      string          `json:"to_user"`
	Status      TransferStatus  `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	RespondedAt *time.Time      `json:"responded_at,omitempty"`
}
