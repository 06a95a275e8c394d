// Package metrics derives per-stock position and profit/loss figures from
// the trade, dividend and bonus-issue logs.
package metrics

import (
	"sort"

	"stockbook/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultFeeRate is added to buy cost and subtracted from sell proceeds.
var DefaultFeeRate = decimal.RequireFromString("0.001725124")

var hundred = decimal.NewFromInt(100)

type IssueKind string

const (
	// SellWithoutBuy means shares were sold but none were ever bought, so
	// no average cost exists. RealizedPL is reported as zero.
	SellWithoutBuy IssueKind = "sell_without_buy"
	// NegativeHolding means more shares were sold than bought plus bonus.
	NegativeHolding IssueKind = "negative_holding"
	// Oversold means a sell took the running holding below zero at some
	// point in the log, even though later rows brought it back.
	Oversold IssueKind = "oversold"
)

// Issue flags data that the figures could not be derived cleanly from.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	Detail string    `json:"detail"`
}

type StockMetrics struct {
	Symbol           models.Symbol   `json:"symbol"`
	BoughtQty        decimal.Decimal `json:"bought_qty"`
	BoughtCost       decimal.Decimal `json:"bought_cost"`
	SoldQty          decimal.Decimal `json:"sold_qty"`
	SoldValue        decimal.Decimal `json:"sold_value"`
	DividendTotal    decimal.Decimal `json:"dividend_total"`
	BonusQty         decimal.Decimal `json:"bonus_qty"`
	CurrentQty       decimal.Decimal `json:"current_qty"`
	NetCost          decimal.Decimal `json:"net_cost"`
	DividendYieldPct decimal.Decimal `json:"dividend_yield_pct"`
	RealizedPL       decimal.Decimal `json:"realized_pl"`
	Issues           []Issue         `json:"issues,omitempty"`
}

// Consistent reports whether no data issue was found.
func (m StockMetrics) Consistent() bool { return len(m.Issues) == 0 }

// Engine computes metrics with a fixed fee rate. The zero value uses DefaultFeeRate.
type Engine struct {
	fee    decimal.Decimal
	custom bool
}

func New(feeRate decimal.Decimal) Engine {
	return Engine{fee: feeRate, custom: true}
}

func (e Engine) FeeRate() decimal.Decimal {
	if !e.custom {
		return DefaultFeeRate
	}
	return e.fee
}

// Compute derives the metrics of symbol. Records of other symbols are ignored,
// so callers may pass either the full logs or pre-filtered ones.
func (e Engine) Compute(symbol models.Symbol, trades []models.Trade, dividends []models.Dividend, bonus []models.BonusIssue) StockMetrics {
	fee := e.FeeRate()
	buyFactor := decimal.NewFromInt(1).Add(fee)
	sellFactor := decimal.NewFromInt(1).Sub(fee)

	m := StockMetrics{Symbol: symbol}
	for _, t := range trades {
		if t.Symbol != symbol {
			continue
		}
		raw := t.Quantity.Mul(t.UnitPrice)
		switch t.Type {
		case models.TradeBuy:
			m.BoughtQty = m.BoughtQty.Add(t.Quantity)
			m.BoughtCost = m.BoughtCost.Add(raw.Mul(buyFactor))
		case models.TradeSell:
			m.SoldQty = m.SoldQty.Add(t.Quantity)
			m.SoldValue = m.SoldValue.Add(raw.Mul(sellFactor))
		}
	}
	for _, d := range dividends {
		if d.Symbol == symbol {
			m.DividendTotal = m.DividendTotal.Add(d.Amount)
		}
	}
	for _, b := range bonus {
		if b.Symbol == symbol {
			m.BonusQty = m.BonusQty.Add(b.Quantity)
		}
	}

	m.CurrentQty = m.BoughtQty.Add(m.BonusQty).Sub(m.SoldQty)
	m.NetCost = m.BoughtCost.Sub(m.SoldValue)
	if m.BoughtCost.IsPositive() {
		m.DividendYieldPct = m.DividendTotal.Mul(hundred).Div(m.BoughtCost)
	}

	if m.SoldQty.IsPositive() {
		if m.BoughtQty.IsZero() {
			m.Issues = append(m.Issues, Issue{
				Kind:   SellWithoutBuy,
				Detail: "sold " + m.SoldQty.String() + " shares with no recorded buys",
			})
		} else {
			avgCost := m.BoughtCost.Div(m.BoughtQty)
			m.RealizedPL = m.SoldValue.Sub(m.SoldQty.Mul(avgCost))
		}
	}
	if m.CurrentQty.IsNegative() {
		m.Issues = append(m.Issues, Issue{
			Kind:   NegativeHolding,
			Detail: "current quantity is " + m.CurrentQty.String(),
		})
	} else if at, low, ok := firstShortfall(symbol, trades, bonus); ok {
		m.Issues = append(m.Issues, Issue{
			Kind:   Oversold,
			Detail: "holding fell to " + low.String() + " after the sell dated " + at,
		})
	}
	return m
}

// firstShortfall walks the trades of symbol in log order, crediting each bonus
// issue before the first trade dated after it. It returns the date of the first
// sell that took the running balance below zero and the balance it left.
func firstShortfall(symbol models.Symbol, trades []models.Trade, bonus []models.BonusIssue) (string, decimal.Decimal, bool) {
	var issues []models.BonusIssue
	for _, b := range bonus {
		if b.Symbol == symbol {
			issues = append(issues, b)
		}
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Date < issues[j].Date })

	var bal decimal.Decimal
	next := 0
	for _, t := range trades {
		if t.Symbol != symbol {
			continue
		}
		for next < len(issues) && issues[next].Date <= t.Date {
			bal = bal.Add(issues[next].Quantity)
			next++
		}
		switch t.Type {
		case models.TradeBuy:
			bal = bal.Add(t.Quantity)
		case models.TradeSell:
			bal = bal.Sub(t.Quantity)
			if bal.IsNegative() {
				return t.Date, bal, true
			}
		}
	}
	return "", decimal.Zero, false
}

// Compute uses the default fee rate.
func Compute(symbol models.Symbol, trades []models.Trade, dividends []models.Dividend, bonus []models.BonusIssue) StockMetrics {
	return Engine{}.Compute(symbol, trades, dividends, bonus)
}
