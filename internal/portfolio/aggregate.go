// Package portfolio assembles per-stock metrics into dashboard summaries.
package portfolio

import (
	"stockbook/internal/metrics"
	"stockbook/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type StockSummary struct {
	Symbol  models.Symbol        `json:"symbol"`
	Name    string               `json:"name"`
	Sector  string               `json:"sector,omitempty"`
	Metrics metrics.StockMetrics `json:"metrics"`
}

type Totals struct {
	TotalShares     decimal.Decimal `json:"total_shares"`
	TotalNetCost    decimal.Decimal `json:"total_net_cost"`
	TotalDividends  decimal.Decimal `json:"total_dividends"`
	TotalRealizedPL decimal.Decimal `json:"total_realized_pl"`
	TotalBoughtCost decimal.Decimal `json:"total_bought_cost"`
	// AverageYieldPct is weighted by cost basis: total dividends over total
	// bought cost. It is not the mean of the per-stock yields.
	AverageYieldPct decimal.Decimal `json:"average_yield_pct"`
}

type Dashboard struct {
	PerStock []StockSummary `json:"per_stock"`
	Totals   Totals         `json:"totals"`
	// UnknownSymbols are referenced by transactions but have no stock entry.
	// They are not part of the totals.
	UnknownSymbols []models.Symbol `json:"unknown_symbols,omitempty"`
	// DuplicateSymbols appear more than once in the stock list; only the
	// first entry is summarised.
	DuplicateSymbols []models.Symbol `json:"duplicate_symbols,omitempty"`
	Inconsistent     int             `json:"inconsistent"`
}

type Aggregator struct {
	engine metrics.Engine
}

func NewAggregator(engine metrics.Engine) Aggregator {
	return Aggregator{engine: engine}
}

// Aggregate computes one summary per stock, in stock-list order, and the
// portfolio totals.
func (a Aggregator) Aggregate(snap models.Snapshot) Dashboard {
	idx := indexSnapshot(snap)

	dash := Dashboard{PerStock: make([]StockSummary, 0, len(snap.Stocks))}
	seen := make(map[models.Symbol]bool, len(snap.Stocks))
	var t Totals
	for _, st := range snap.Stocks {
		if seen[st.Symbol] {
			dash.DuplicateSymbols = append(dash.DuplicateSymbols, st.Symbol)
			continue
		}
		seen[st.Symbol] = true

		m := a.compute(st.Symbol, idx)
		if !m.Consistent() {
			dash.Inconsistent++
		}
		dash.PerStock = append(dash.PerStock, StockSummary{
			Symbol:  st.Symbol,
			Name:    st.Name,
			Sector:  st.Sector,
			Metrics: m,
		})

		t.TotalShares = t.TotalShares.Add(m.CurrentQty)
		t.TotalNetCost = t.TotalNetCost.Add(m.NetCost)
		t.TotalDividends = t.TotalDividends.Add(m.DividendTotal)
		t.TotalRealizedPL = t.TotalRealizedPL.Add(m.RealizedPL)
		t.TotalBoughtCost = t.TotalBoughtCost.Add(m.BoughtCost)
	}
	t.AverageYieldPct = weightedYield(t.TotalDividends, t.TotalBoughtCost)
	dash.Totals = t

	for _, sym := range idx.order {
		if !seen[sym] {
			dash.UnknownSymbols = append(dash.UnknownSymbols, sym)
		}
	}
	return dash
}

// Detail returns the summary of a single symbol. found is false when the
// symbol has neither a stock entry nor any transactions.
func (a Aggregator) Detail(snap models.Snapshot, sym models.Symbol) (StockSummary, bool) {
	st, known := snap.Stock(sym)
	m := a.engine.Compute(sym, snap.Trades, snap.Dividends, snap.Bonus)
	if !known && !hasActivity(m) {
		return StockSummary{}, false
	}
	s := StockSummary{Symbol: sym, Name: snap.DisplayName(sym), Sector: st.Sector, Metrics: m}
	return s, true
}

// TotalsFrom sums already computed summaries.
func TotalsFrom(perStock []StockSummary) Totals {
	var t Totals
	for _, s := range perStock {
		t.TotalShares = t.TotalShares.Add(s.Metrics.CurrentQty)
		t.TotalNetCost = t.TotalNetCost.Add(s.Metrics.NetCost)
		t.TotalDividends = t.TotalDividends.Add(s.Metrics.DividendTotal)
		t.TotalRealizedPL = t.TotalRealizedPL.Add(s.Metrics.RealizedPL)
		t.TotalBoughtCost = t.TotalBoughtCost.Add(s.Metrics.BoughtCost)
	}
	t.AverageYieldPct = weightedYield(t.TotalDividends, t.TotalBoughtCost)
	return t
}

func weightedYield(dividends, cost decimal.Decimal) decimal.Decimal {
	if !cost.IsPositive() {
		return decimal.Zero
	}
	return dividends.Mul(hundred).Div(cost)
}

func (a Aggregator) compute(sym models.Symbol, idx snapshotIndex) metrics.StockMetrics {
	return a.engine.Compute(sym, idx.trades[sym], idx.dividends[sym], idx.bonus[sym])
}

func hasActivity(m metrics.StockMetrics) bool {
	return !m.BoughtQty.IsZero() || !m.SoldQty.IsZero() || !m.DividendTotal.IsZero() || !m.BonusQty.IsZero()
}

// snapshotIndex groups transactions by symbol so each stock is computed
// from its own records only.
type snapshotIndex struct {
	trades    map[models.Symbol][]models.Trade
	dividends map[models.Symbol][]models.Dividend
	bonus     map[models.Symbol][]models.BonusIssue
	order     []models.Symbol
}

func indexSnapshot(snap models.Snapshot) snapshotIndex {
	idx := snapshotIndex{
		trades:    make(map[models.Symbol][]models.Trade),
		dividends: make(map[models.Symbol][]models.Dividend),
		bonus:     make(map[models.Symbol][]models.BonusIssue),
	}
	seen := make(map[models.Symbol]bool)
	note := func(sym models.Symbol) {
		if !seen[sym] {
			seen[sym] = true
			idx.order = append(idx.order, sym)
		}
	}
	for _, t := range snap.Trades {
		idx.trades[t.Symbol] = append(idx.trades[t.Symbol], t)
		note(t.Symbol)
	}
	for _, d := range snap.Dividends {
		idx.dividends[d.Symbol] = append(idx.dividends[d.Symbol], d)
		note(d.Symbol)
	}
	for _, b := range snap.Bonus {
		idx.bonus[b.Symbol] = append(idx.bonus[b.Symbol], b)
		note(b.Symbol)
	}
	return idx
}
