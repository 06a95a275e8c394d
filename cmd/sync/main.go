// Command sync copies the spreadsheet records into the Postgres store,
// replacing whatever the tables held before.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"stockbook/internal/database"
	"stockbook/internal/metrics"
	"stockbook/internal/portfolio"
	"stockbook/internal/sheets"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	godotenv.Load()
	sheetsURL := os.Getenv("SHEETS_URL")
	dbURL := os.Getenv("POSTGRES_URL")
	if sheetsURL == "" || dbURL == "" {
		log.Fatal("SHEETS_URL and POSTGRES_URL are required")
	}

	logger := logrus.New()

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	src := sheets.NewClient(&http.Client{Timeout: time.Minute}, sheetsURL, logger)
	snap, err := src.Fetch(ctx)
	if err != nil {
		log.Fatalf("fetch sheets: %v", err)
	}

	fmt.Printf("Copying %d stocks, %d trades, %d dividends, %d bonus issues...\n",
		len(snap.Stocks), len(snap.Trades), len(snap.Dividends), len(snap.Bonus))

	repo := database.New(db, logger)
	if err := repo.ReplaceAll(ctx, snap); err != nil {
		log.Fatalf("replace store content: %v", err)
	}

	// read back and compare totals so a partial copy is noticed
	copied, err := repo.Fetch(ctx)
	if err != nil {
		log.Fatalf("read back: %v", err)
	}
	agg := portfolio.NewAggregator(metrics.Engine{})
	want, got := agg.Aggregate(snap).Totals, agg.Aggregate(copied).Totals
	if !want.TotalNetCost.Equal(got.TotalNetCost) || !want.TotalShares.Equal(got.TotalShares) {
		log.Fatalf("totals differ after copy: sheets net cost %s shares %s, postgres net cost %s shares %s",
			want.TotalNetCost, want.TotalShares, got.TotalNetCost, got.TotalShares)
	}
	fmt.Printf("Done. Net cost %s, shares %s\n", got.TotalNetCost.StringFixed(2), got.TotalShares)
}
