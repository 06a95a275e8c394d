package metrics

import (
	"testing"

	"stockbook/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: expected %s, got %s", field, want, got.String())
}

func buy(sym models.Symbol, qty, price string) models.Trade {
	return models.Trade{Type: models.TradeBuy, Symbol: sym, Quantity: d(qty), UnitPrice: d(price)}
}

func sell(sym models.Symbol, qty, price string) models.Trade {
	return models.Trade{Type: models.TradeSell, Symbol: sym, Quantity: d(qty), UnitPrice: d(price)}
}

func TestCompute_ZeroTradeStock(t *testing.T) {
	m := Compute("1120", nil, nil, nil)
	assertDec(t, "0", m.CurrentQty, "current_qty")
	assertDec(t, "0", m.NetCost, "net_cost")
	assertDec(t, "0", m.DividendYieldPct, "yield")
	assertDec(t, "0", m.RealizedPL, "realized_pl")
	assert.True(t, m.Consistent())
}

func TestCompute_FeeOnBuy(t *testing.T) {
	m := Compute("1120", []models.Trade{buy("1120", "100", "10")}, nil, nil)
	assertDec(t, "100", m.BoughtQty, "bought_qty")
	assertDec(t, "1001.725124", m.BoughtCost, "bought_cost")
	assertDec(t, "1001.725124", m.NetCost, "net_cost")
	assertDec(t, "100", m.CurrentQty, "current_qty")
	assertDec(t, "0", m.RealizedPL, "realized_pl")
}

func TestCompute_FeeOnSellAndAverageCost(t *testing.T) {
	trades := []models.Trade{buy("1120", "100", "10"), sell("1120", "50", "20")}
	m := Compute("1120", trades, nil, nil)

	assertDec(t, "998.274876", m.SoldValue, "sold_value")
	assertDec(t, "50", m.CurrentQty, "current_qty")
	assertDec(t, "3.450248", m.NetCost, "net_cost")
	assertDec(t, "497.412314", m.RealizedPL, "realized_pl")
	assert.True(t, m.Consistent())
}

func TestCompute_DividendsAndBonus(t *testing.T) {
	trades := []models.Trade{buy("2222", "40", "25")}
	divs := []models.Dividend{
		{Symbol: "2222", Amount: d("30")},
		{Symbol: "1120", Amount: d("999")},
		{Symbol: "2222", Amount: d("20.5")},
	}
	bonus := []models.BonusIssue{{Symbol: "2222", Quantity: d("4")}}

	m := Compute("2222", trades, divs, bonus)
	assertDec(t, "50.5", m.DividendTotal, "dividend_total")
	assertDec(t, "4", m.BonusQty, "bonus_qty")
	assertDec(t, "44", m.CurrentQty, "current_qty")
	// bonus shares carry no cost
	assertDec(t, "1001.725124", m.BoughtCost, "bought_cost")

	want := d("50.5").Mul(d("100")).Div(d("1001.725124"))
	assertDec(t, want.String(), m.DividendYieldPct, "yield")
}

func TestCompute_SellWithoutBuy(t *testing.T) {
	m := Compute("4030", []models.Trade{sell("4030", "10", "5")}, nil, nil)

	assertDec(t, "0", m.RealizedPL, "realized_pl")
	assertDec(t, "-10", m.CurrentQty, "current_qty")
	require.Len(t, m.Issues, 2)
	assert.Equal(t, SellWithoutBuy, m.Issues[0].Kind)
	assert.Equal(t, NegativeHolding, m.Issues[1].Kind)
}

func TestCompute_BonusCoversSell(t *testing.T) {
	trades := []models.Trade{buy("4030", "10", "5"), sell("4030", "12", "6")}
	bonus := []models.BonusIssue{{Symbol: "4030", Quantity: d("2")}}

	m := Compute("4030", trades, nil, bonus)
	assertDec(t, "0", m.CurrentQty, "current_qty")
	assert.True(t, m.Consistent())
}

func TestCompute_SellBeforeFirstBuy(t *testing.T) {
	first := sell("1120", "10", "5")
	first.Date = "2024-01-02"
	later := buy("1120", "10", "5")
	later.Date = "2024-01-05"

	m := Compute("1120", []models.Trade{first, later}, nil, nil)
	assertDec(t, "0", m.CurrentQty, "current_qty")
	require.Len(t, m.Issues, 1)
	assert.Equal(t, Oversold, m.Issues[0].Kind)
	assert.Contains(t, m.Issues[0].Detail, "2024-01-02")
	assert.False(t, m.Consistent())
}

func TestCompute_BonusDatedBeforeSellCoversIt(t *testing.T) {
	b := buy("4030", "10", "5")
	b.Date = "2024-01-01"
	s := sell("4030", "12", "6")
	s.Date = "2024-03-01"

	early := []models.BonusIssue{{Date: "2024-02-01", Symbol: "4030", Quantity: d("2")}}
	m := Compute("4030", []models.Trade{b, s}, nil, early)
	assert.True(t, m.Consistent())

	late := []models.BonusIssue{{Date: "2024-04-01", Symbol: "4030", Quantity: d("2")}}
	m = Compute("4030", []models.Trade{b, s}, nil, late)
	require.Len(t, m.Issues, 1)
	assert.Equal(t, Oversold, m.Issues[0].Kind)
}

func TestCompute_UnrecognisedTypeIgnored(t *testing.T) {
	trades := []models.Trade{{Type: "Transfer", Symbol: "1120", Quantity: d("5"), UnitPrice: d("5")}}
	m := Compute("1120", trades, nil, nil)
	assertDec(t, "0", m.BoughtQty, "bought_qty")
	assertDec(t, "0", m.SoldQty, "sold_qty")
}

func TestCompute_Idempotent(t *testing.T) {
	trades := []models.Trade{buy("1120", "100", "10"), sell("1120", "30", "12.5")}
	divs := []models.Dividend{{Symbol: "1120", Amount: d("15")}}

	first := Compute("1120", trades, divs, nil)
	second := Compute("1120", trades, divs, nil)
	assert.Equal(t, first, second)
	assertDec(t, "100", trades[0].Quantity, "input untouched")
}

func TestEngine_CustomFeeRate(t *testing.T) {
	e := New(decimal.Zero)
	m := e.Compute("1120", []models.Trade{buy("1120", "100", "10")}, nil, nil)
	assertDec(t, "1000", m.BoughtCost, "bought_cost")

	assert.True(t, Engine{}.FeeRate().Equal(DefaultFeeRate))
}
