package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransferStatus_Terminal(t *testing.T) {
	tests := []struct {
		status   TransferStatus
		terminal bool
	}{
		{TransferOpen, false},
		{TransferAccepted, true},
		{TransferRejected, true},
		{TransferCancelled, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, tt.status.Valid())
			assert.Equal(t, tt.terminal, tt.status.Terminal())
		})
	}
	assert.False(t, TransferStatus("pending").Valid())
}

func TestExchangeStatus_Terminal(t *testing.T) {
	assert.False(t, ExchangeOpen.Terminal())
	assert.True(t, ExchangeFinalized.Terminal())
	assert.True(t, ExchangeCancelled.Terminal())
	assert.False(t, ExchangeStatus("accepted").Valid())
}

func TestCleanText_NFC(t *testing.T) {
	// "e" + combining acute accent normalizes to the precomposed form.
	decomposed := "  Cafe\u0301 "
	assert.Equal(t, "Caf\u00e9", CleanText(decomposed))
}

func TestOptionalText(t *testing.T) {
	assert.Nil(t, OptionalText("   "))
	got := OptionalText(" be kind ")
	if assert.NotNil(t, got) {
		assert.Equal(t, "be kind", *got)
	}
}

func TestColorOr(t *testing.T) {
	assert.Equal(t, DefaultButtonColor, ColorOr("", DefaultButtonColor))
	assert.Equal(t, "#000000", ColorOr(" #000000 ", DefaultButtonColor))
}

func TestActivityKey(t *testing.T) {
	a := Activity{EconomyID: "e", CurrencyID: "c", CreatedBy: "u", Points: decimal.NewFromInt(1)}
	assert.Equal(t, BalanceKey{EconomyID: "e", UserID: "u", CurrencyID: "c"}, a.Key())
}
