package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRecord  = errors.New("invalid record")
	ErrDuplicateStock = errors.New("stock already exists")
)

// Symbol is the canonical stock identifier: trimmed and upper-cased.
type Symbol string

func NewSymbol(s string) Symbol {
	return Symbol(strings.ToUpper(strings.TrimSpace(s)))
}

func (s Symbol) String() string { return string(s) }

type TradeType string

const (
	TradeBuy  TradeType = "Buy"
	TradeSell TradeType = "Sell"
)

// Labels used by the spreadsheet for trade types.
const (
	sheetBuyLabel  = "شراء"
	sheetSellLabel = "بيع"
)

// ParseTradeType accepts the spreadsheet labels as well as buy/sell in any case.
func ParseTradeType(s string) (TradeType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", sheetBuyLabel:
		return TradeBuy, true
	case "sell", sheetSellLabel:
		return TradeSell, true
	}
	return "", false
}

// SheetLabel is the label the spreadsheet stores for t.
func (t TradeType) SheetLabel() string {
	if t == TradeSell {
		return sheetSellLabel
	}
	return sheetBuyLabel
}

// Collection names a record collection in the store.
type Collection string

const (
	CollectionStocks    Collection = "Stocks"
	CollectionTrades    Collection = "Trades"
	CollectionDividends Collection = "Dividends"
	CollectionBonus     Collection = "Bonus"
)

type Stock struct {
	Symbol Symbol `db:"symbol" json:"symbol"`
	Name   string `db:"name" json:"name"`
	Sector string `db:"sector" json:"sector,omitempty"`
}

type Trade struct {
	Date      string          `db:"date" json:"date"`
	Type      TradeType       `db:"type" json:"type"`
	Symbol    Symbol          `db:"symbol" json:"symbol"`
	Note      string          `db:"note" json:"note,omitempty"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

type Dividend struct {
	Date   string          `db:"date" json:"date"`
	Symbol Symbol          `db:"symbol" json:"symbol"`
	Note   string          `db:"note" json:"note,omitempty"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
}

// BonusIssue is a no-cost addition to a stock's held quantity.
type BonusIssue struct {
	Date     string          `db:"date" json:"date"`
	Symbol   Symbol          `db:"symbol" json:"symbol"`
	Note     string          `db:"note" json:"note,omitempty"`
	Quantity decimal.Decimal `db:"quantity" json:"quantity"`
}

func (Stock) Collection() Collection      { return CollectionStocks }
func (Trade) Collection() Collection      { return CollectionTrades }
func (Dividend) Collection() Collection   { return CollectionDividends }
func (BonusIssue) Collection() Collection { return CollectionBonus }

// Record is a single row that can be appended to a collection.
type Record interface {
	Collection() Collection
}

// AppendRequest asks the store to append one record to its collection.
type AppendRequest struct {
	Record         Record
	IdempotencyKey string
}

// Snapshot is the complete set of collections as fetched in one refresh.
// It is treated as immutable once built.
type Snapshot struct {
	Stocks    []Stock      `json:"stocks"`
	Trades    []Trade      `json:"trades"`
	Dividends []Dividend   `json:"dividends"`
	Bonus     []BonusIssue `json:"bonus"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Stock returns the first stock entry for sym.
func (s Snapshot) Stock(sym Symbol) (Stock, bool) {
	for _, st := range s.Stocks {
		if st.Symbol == sym {
			return st, true
		}
	}
	return Stock{}, false
}

// DisplayName resolves sym to its stock name, falling back to the raw symbol.
func (s Snapshot) DisplayName(sym Symbol) string {
	if st, ok := s.Stock(sym); ok && st.Name != "" {
		return st.Name
	}
	return sym.String()
}
