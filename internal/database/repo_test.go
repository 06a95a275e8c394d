package database

import (
	"context"
	"os"
	"testing"

	"stockbook/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sqlx.DB {
	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		t.Skip("POSTGRES_URL is not set; skipping integration tests")
	}
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	files := []string{"../../migrations/0001_init.up.sql"}
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read migration %s: %v", f, err)
		}
		if _, err := db.Exec(string(b)); err != nil {
			t.Logf("exec migration %s: %v", f, err)
		}
	}
	return db
}

func seed() models.Snapshot {
	return models.Snapshot{
		Stocks: []models.Stock{{Symbol: "1120", Name: "Al Rajhi Bank", Sector: "Banks"}, {Symbol: "2222", Name: "Saudi Aramco"}},
		Trades: []models.Trade{
			{Date: "2024-01-02", Type: models.TradeBuy, Symbol: "1120", Quantity: decimal.NewFromInt(100), UnitPrice: decimal.NewFromInt(10)},
			{Date: "2024-03-02", Type: models.TradeSell, Symbol: "1120", Quantity: decimal.NewFromInt(50), UnitPrice: decimal.NewFromInt(20)},
		},
		Dividends: []models.Dividend{{Date: "2024-04-01", Symbol: "1120", Amount: decimal.RequireFromString("50.25")}},
		Bonus:     []models.BonusIssue{{Date: "2024-05-01", Symbol: "2222", Quantity: decimal.NewFromInt(3)}},
	}
}

func TestReplaceAllAndFetch(t *testing.T) {
	db := setupDB(t)
	defer db.Close()
	r := New(db, logrus.New())
	ctx := context.Background()

	require.NoError(t, r.ReplaceAll(ctx, seed()))

	snap, err := r.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Stocks, 2)
	assert.Equal(t, "Al Rajhi Bank", snap.Stocks[0].Name)
	require.Len(t, snap.Trades, 2)
	assert.Equal(t, models.TradeBuy, snap.Trades[0].Type)
	assert.Equal(t, models.TradeSell, snap.Trades[1].Type)
	assert.True(t, snap.Trades[1].UnitPrice.Equal(decimal.NewFromInt(20)))
	require.Len(t, snap.Dividends, 1)
	assert.True(t, snap.Dividends[0].Amount.Equal(decimal.RequireFromString("50.25")))
	require.Len(t, snap.Bonus, 1)
}

func TestAppend_Idempotency(t *testing.T) {
	db := setupDB(t)
	defer db.Close()
	r := New(db, logrus.New())
	ctx := context.Background()
	require.NoError(t, r.ReplaceAll(ctx, seed()))

	req := models.AppendRequest{
		Record:         models.Dividend{Date: "2024-06-01", Symbol: "1120", Amount: decimal.NewFromInt(12)},
		IdempotencyKey: "test-idempotency-1",
	}
	require.NoError(t, r.Append(ctx, req))
	require.NoError(t, r.Append(ctx, req))

	snap, err := r.Fetch(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Dividends, 2)
}

func TestAppend_DuplicateStock(t *testing.T) {
	db := setupDB(t)
	defer db.Close()
	r := New(db, logrus.New())
	ctx := context.Background()
	require.NoError(t, r.ReplaceAll(ctx, seed()))

	err := r.Append(ctx, models.AppendRequest{Record: models.Stock{Symbol: "1120", Name: "again"}})
	assert.ErrorIs(t, err, models.ErrDuplicateStock)
}
