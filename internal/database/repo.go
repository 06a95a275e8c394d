package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stockbook/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const uniqueViolation = "23505"

type Repo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Repo {
	return &Repo{db: db, log: log}
}

const (
	selectStocks    = `SELECT symbol, name, sector FROM stocks ORDER BY seq ASC`
	selectTrades    = `SELECT trade_date AS date, trade_type AS type, symbol, note, quantity, unit_price FROM trades ORDER BY seq ASC`
	selectDividends = `SELECT paid_date AS date, symbol, note, amount FROM dividends ORDER BY seq ASC`
	selectBonus     = `SELECT issue_date AS date, symbol, note, quantity FROM bonus_issues ORDER BY seq ASC`
)

// Fetch reads all four tables inside one repeatable-read transaction so the
// snapshot reflects a single point in time.
func (r *Repo) Fetch(ctx context.Context) (models.Snapshot, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return models.Snapshot{}, err
	}
	defer tx.Rollback()

	snap := models.Snapshot{
		Stocks:    []models.Stock{},
		Trades:    []models.Trade{},
		Dividends: []models.Dividend{},
		Bonus:     []models.BonusIssue{},
	}
	if err := tx.SelectContext(ctx, &snap.Stocks, selectStocks); err != nil {
		return models.Snapshot{}, fmt.Errorf("select stocks: %w", err)
	}
	if err := tx.SelectContext(ctx, &snap.Trades, selectTrades); err != nil {
		return models.Snapshot{}, fmt.Errorf("select trades: %w", err)
	}
	if err := tx.SelectContext(ctx, &snap.Dividends, selectDividends); err != nil {
		return models.Snapshot{}, fmt.Errorf("select dividends: %w", err)
	}
	if err := tx.SelectContext(ctx, &snap.Bonus, selectBonus); err != nil {
		return models.Snapshot{}, fmt.Errorf("select bonus issues: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Snapshot{}, err
	}
	snap.FetchedAt = time.Now().UTC()
	return snap, nil
}

// Append inserts one record. Replaying a request with the same idempotency
// key is a no-op.
func (r *Repo) Append(ctx context.Context, ar models.AppendRequest) error {
	err := insertRecord(ctx, r.db, ar.Record, ar.IdempotencyKey)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		if st, isStock := ar.Record.(models.Stock); isStock {
			return fmt.Errorf("%w: %s", models.ErrDuplicateStock, st.Symbol)
		}
		r.log.Infof("append %s: idempotency key %q already applied", ar.Record.Collection(), ar.IdempotencyKey)
		return nil
	}
	return err
}

// ReplaceAll swaps the whole store content for snap in one transaction.
func (r *Repo) ReplaceAll(ctx context.Context, snap models.Snapshot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if _, err := tx.ExecContext(ctx, `TRUNCATE stocks, trades, dividends, bonus_issues RESTART IDENTITY`); err != nil {
		tx.Rollback()
		return err
	}
	records := make([]models.Record, 0, len(snap.Stocks)+len(snap.Trades)+len(snap.Dividends)+len(snap.Bonus))
	seen := map[models.Symbol]bool{}
	for _, s := range snap.Stocks {
		if seen[s.Symbol] {
			r.log.Warnf("replace: skipping duplicate stock %s", s.Symbol)
			continue
		}
		seen[s.Symbol] = true
		records = append(records, s)
	}
	for _, t := range snap.Trades {
		records = append(records, t)
	}
	for _, d := range snap.Dividends {
		records = append(records, d)
	}
	for _, b := range snap.Bonus {
		records = append(records, b)
	}
	for _, rec := range records {
		if err := insertRecord(ctx, tx, rec, ""); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", rec.Collection(), err)
		}
	}
	return tx.Commit()
}

func insertRecord(ctx context.Context, ex sqlx.ExecerContext, rec models.Record, key string) error {
	var err error
	switch v := rec.(type) {
	case models.Stock:
		_, err = ex.ExecContext(ctx, `INSERT INTO stocks (symbol, name, sector) VALUES ($1, $2, $3)`,
			v.Symbol, v.Name, v.Sector)
	case models.Trade:
		_, err = ex.ExecContext(ctx, `INSERT INTO trades (id, trade_date, trade_type, symbol, note, quantity, unit_price, idempotency_key) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, NULLIF($8, ''))`,
			uuid.NewString(), v.Date, string(v.Type), v.Symbol, v.Note, v.Quantity.String(), v.UnitPrice.String(), key)
	case models.Dividend:
		_, err = ex.ExecContext(ctx, `INSERT INTO dividends (id, paid_date, symbol, note, amount, idempotency_key) VALUES ($1, $2, $3, $4, $5::numeric, NULLIF($6, ''))`,
			uuid.NewString(), v.Date, v.Symbol, v.Note, v.Amount.String(), key)
	case models.BonusIssue:
		_, err = ex.ExecContext(ctx, `INSERT INTO bonus_issues (id, issue_date, symbol, note, quantity, idempotency_key) VALUES ($1, $2, $3, $4, $5::numeric, NULLIF($6, ''))`,
			uuid.NewString(), v.Date, v.Symbol, v.Note, v.Quantity.String(), key)
	default:
		return fmt.Errorf("%w: unsupported record %T", models.ErrInvalidRecord, rec)
	}
	return err
}
