package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stockbook/internal/config"
	"stockbook/internal/database"
	"stockbook/internal/handlers"
	"stockbook/internal/metrics"
	"stockbook/internal/models"
	"stockbook/internal/portfolio"
	"stockbook/internal/service"
	"stockbook/internal/sheets"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	var store service.Store
	switch cfg.StoreKind {
	case config.StorePostgres:
		db, err := initDB(cfg.PostgresURL)
		if err != nil {
			logger.Fatalf("db connect failed: %v", err)
		}
		defer db.Close()
		store = database.New(db, logger)
	case config.StoreMemory:
		store = service.NewMemoryStore(models.Snapshot{})
	default:
		store = sheets.NewClient(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.SheetsURL, logger)
	}

	agg := portfolio.NewAggregator(metrics.New(cfg.FeeRate))
	svc := service.NewSnapshotService(store, agg, cfg.RefreshDelay, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := svc.Refresh(ctx); err != nil {
		logger.Warnf("initial snapshot fetch failed: %v", err)
	}
	svc.Start(ctx, cfg.RefreshInterval)

	h := handlers.NewHandler(svc, logger)

	rg := gin.Default()
	h.Routes(rg)

	logger.Infof("server starting on :%s (store=%s)", cfg.Port, cfg.StoreKind)
	if err := rg.Run(fmt.Sprintf(":%s", cfg.Port)); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}

func initDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}
