package sheets

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"stockbook/internal/models"

	"github.com/shopspring/decimal"
)

// Row is one spreadsheet row as returned by the web app.
// Cell layouts per sheet:
//
//	Stocks:    symbol, name, sector
//	Trades:    date, type, symbol, note, quantity, unit price
//	Dividends: date, symbol, note, amount
//	Bonus:     date, symbol, note, quantity
type Row []any

// DecodeReport counts rows that could not be read cleanly.
type DecodeReport struct {
	// Malformed counts numeric cells that were not numbers and were read as zero.
	Malformed int
	// Skipped counts rows dropped for a missing symbol or unknown trade type.
	Skipped int
}

func (r *DecodeReport) add(o DecodeReport) {
	r.Malformed += o.Malformed
	r.Skipped += o.Skipped
}

func cell(r Row, i int) any {
	if i < len(r) {
		return r[i]
	}
	return nil
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// number reads a numeric cell. Empty cells are zero; anything unparsable is
// zero and reported as malformed.
func number(v any, rep *DecodeReport) decimal.Decimal {
	var (
		n   decimal.Decimal
		err error
	)
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case json.Number:
		n, err = decimal.NewFromString(x.String())
	case float64:
		return decimal.NewFromFloat(x)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		if s == "" {
			return decimal.Zero
		}
		n, err = decimal.NewFromString(s)
	default:
		rep.Malformed++
		return decimal.Zero
	}
	if err != nil {
		rep.Malformed++
		return decimal.Zero
	}
	return n
}

func symbol(v any) models.Symbol { return models.NewSymbol(text(v)) }

func DecodeStocks(rows []Row) ([]models.Stock, DecodeReport) {
	var rep DecodeReport
	out := make([]models.Stock, 0, len(rows))
	for _, r := range rows {
		s := models.Stock{Symbol: symbol(cell(r, 0)), Name: text(cell(r, 1)), Sector: text(cell(r, 2))}
		if s.Symbol == "" {
			rep.Skipped++
			continue
		}
		out = append(out, s)
	}
	return out, rep
}

func DecodeTrades(rows []Row) ([]models.Trade, DecodeReport) {
	var rep DecodeReport
	out := make([]models.Trade, 0, len(rows))
	for _, r := range rows {
		typ, ok := models.ParseTradeType(text(cell(r, 1)))
		sym := symbol(cell(r, 2))
		if !ok || sym == "" {
			rep.Skipped++
			continue
		}
		out = append(out, models.Trade{
			Date:      text(cell(r, 0)),
			Type:      typ,
			Symbol:    sym,
			Note:      text(cell(r, 3)),
			Quantity:  number(cell(r, 4), &rep),
			UnitPrice: number(cell(r, 5), &rep),
		})
	}
	return out, rep
}

func DecodeDividends(rows []Row) ([]models.Dividend, DecodeReport) {
	var rep DecodeReport
	out := make([]models.Dividend, 0, len(rows))
	for _, r := range rows {
		sym := symbol(cell(r, 1))
		if sym == "" {
			rep.Skipped++
			continue
		}
		out = append(out, models.Dividend{
			Date:   text(cell(r, 0)),
			Symbol: sym,
			Note:   text(cell(r, 2)),
			Amount: number(cell(r, 3), &rep),
		})
	}
	return out, rep
}

func DecodeBonus(rows []Row) ([]models.BonusIssue, DecodeReport) {
	var rep DecodeReport
	out := make([]models.BonusIssue, 0, len(rows))
	for _, r := range rows {
		sym := symbol(cell(r, 1))
		if sym == "" {
			rep.Skipped++
			continue
		}
		out = append(out, models.BonusIssue{
			Date:     text(cell(r, 0)),
			Symbol:   sym,
			Note:     text(cell(r, 2)),
			Quantity: number(cell(r, 3), &rep),
		})
	}
	return out, rep
}

// EncodeRow renders rec in its sheet's cell layout.
func EncodeRow(rec models.Record) (Row, error) {
	switch r := rec.(type) {
	case models.Stock:
		return Row{r.Symbol.String(), r.Name, r.Sector}, nil
	case models.Trade:
		return Row{r.Date, r.Type.SheetLabel(), r.Symbol.String(), r.Note, r.Quantity.String(), r.UnitPrice.String()}, nil
	case models.Dividend:
		return Row{r.Date, r.Symbol.String(), r.Note, r.Amount.String()}, nil
	case models.BonusIssue:
		return Row{r.Date, r.Symbol.String(), r.Note, r.Quantity.String()}, nil
	}
	return nil, fmt.Errorf("%w: unsupported record %T", models.ErrInvalidRecord, rec)
}
