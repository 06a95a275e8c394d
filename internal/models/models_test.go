package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewSymbol(t *testing.T) {
	assert.Equal(t, Symbol("2222"), NewSymbol(" 2222 "))
	assert.Equal(t, Symbol("ARAMCO"), NewSymbol("aramco"))
}

func TestParseTradeType(t *testing.T) {
	cases := map[string]TradeType{
		"شراء":  TradeBuy,
		"بيع":   TradeSell,
		"Buy":   TradeBuy,
		" sell": TradeSell,
	}
	for in, want := range cases {
		got, ok := ParseTradeType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseTradeType("transfer")
	assert.False(t, ok)
	assert.Equal(t, "بيع", TradeSell.SheetLabel())
	assert.Equal(t, "شراء", TradeBuy.SheetLabel())
}

func TestDisplayName(t *testing.T) {
	snap := Snapshot{Stocks: []Stock{{Symbol: "1120", Name: "Al Rajhi Bank"}}}
	assert.Equal(t, "Al Rajhi Bank", snap.DisplayName("1120"))
	assert.Equal(t, "9999", snap.DisplayName("9999"))
}

func TestTradeValidate(t *testing.T) {
	good := Trade{Symbol: "1120", Type: TradeBuy, Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(5)}
	assert.NoError(t, good.Validate())

	bad := []Trade{
		{Type: TradeBuy, Quantity: decimal.NewFromInt(1)},
		{Symbol: "1120", Type: "Hold", Quantity: decimal.NewFromInt(1)},
		{Symbol: "1120", Type: TradeSell},
		{Symbol: "1120", Type: TradeSell, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(-1)},
	}
	for _, tr := range bad {
		err := tr.Validate()
		assert.True(t, errors.Is(err, ErrInvalidRecord), "%+v: %v", tr, err)
	}
}

func TestStockValidate(t *testing.T) {
	assert.NoError(t, Stock{Symbol: "1120", Name: "Al Rajhi"}.Validate())
	assert.ErrorIs(t, Stock{Symbol: "1120"}.Validate(), ErrInvalidRecord)
	assert.ErrorIs(t, Dividend{Symbol: "1120", Amount: decimal.NewFromInt(-5)}.Validate(), ErrInvalidRecord)
	assert.ErrorIs(t, BonusIssue{}.Validate(), ErrInvalidRecord)
}
