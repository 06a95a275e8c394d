package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// Today formats now as a record date.
func Today(now time.Time) string { return now.Format(DateLayout) }

func (s Stock) Validate() error {
	if s.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRecord)
	}
	return nil
}

func (t Trade) Validate() error {
	if t.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidRecord)
	}
	if t.Type != TradeBuy && t.Type != TradeSell {
		return fmt.Errorf("%w: unsupported trade type %q", ErrInvalidRecord, t.Type)
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be > 0", ErrInvalidRecord)
	}
	return nonNegative("unit_price", t.UnitPrice)
}

func (d Dividend) Validate() error {
	if d.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidRecord)
	}
	return nonNegative("amount", d.Amount)
}

func (b BonusIssue) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidRecord)
	}
	return nonNegative("quantity", b.Quantity)
}

func nonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%w: %s must be >= 0", ErrInvalidRecord, field)
	}
	return nil
}
