package portfolio

import (
	"stockbook/internal/models"

	"github.com/shopspring/decimal"
)

// List rows carry the resolved stock name next to the raw symbol. Lists are
// returned newest first, the reverse of store order.

type TradeRow struct {
	models.Trade
	Name string `json:"name"`
}

type DividendRow struct {
	models.Dividend
	Name string `json:"name"`
}

type BonusRow struct {
	models.BonusIssue
	Name string `json:"name"`
}

func StockList(snap models.Snapshot) []models.Stock {
	out := make([]models.Stock, 0, len(snap.Stocks))
	for i := len(snap.Stocks) - 1; i >= 0; i-- {
		out = append(out, snap.Stocks[i])
	}
	return out
}

func TradeList(snap models.Snapshot) []TradeRow {
	out := make([]TradeRow, 0, len(snap.Trades))
	for i := len(snap.Trades) - 1; i >= 0; i-- {
		t := snap.Trades[i]
		out = append(out, TradeRow{Trade: t, Name: snap.DisplayName(t.Symbol)})
	}
	return out
}

func DividendList(snap models.Snapshot) []DividendRow {
	out := make([]DividendRow, 0, len(snap.Dividends))
	for i := len(snap.Dividends) - 1; i >= 0; i-- {
		d := snap.Dividends[i]
		out = append(out, DividendRow{Dividend: d, Name: snap.DisplayName(d.Symbol)})
	}
	return out
}

func BonusList(snap models.Snapshot) []BonusRow {
	out := make([]BonusRow, 0, len(snap.Bonus))
	for i := len(snap.Bonus) - 1; i >= 0; i-- {
		b := snap.Bonus[i]
		out = append(out, BonusRow{BonusIssue: b, Name: snap.DisplayName(b.Symbol)})
	}
	return out
}

// Holding returns the current quantity of sym, used to guard sells.
func (a Aggregator) Holding(snap models.Snapshot, sym models.Symbol) decimal.Decimal {
	return a.engine.Compute(sym, snap.Trades, nil, snap.Bonus).CurrentQty
}
