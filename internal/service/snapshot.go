package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"stockbook/internal/models"
	"stockbook/internal/portfolio"

	"github.com/sirupsen/logrus"
)

var (
	ErrStore                = errors.New("store unavailable")
	ErrUnknownStock         = errors.New("unknown stock")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)

// Store is the remote datastore holding the four record collections.
type Store interface {
	Fetch(ctx context.Context) (models.Snapshot, error)
	Append(ctx context.Context, req models.AppendRequest) error
}

// SnapshotService keeps the latest complete snapshot and serves every read
// from it. A refresh replaces the snapshot wholesale; a failed refresh keeps
// the previous one.
type SnapshotService struct {
	store        Store
	agg          portfolio.Aggregator
	log          *logrus.Logger
	refreshDelay time.Duration
	now          func() time.Time

	current atomic.Pointer[models.Snapshot]
	fetchMu sync.Mutex
	// writeMu serialises writes so two sells cannot pass the holdings check
	// against the same snapshot.
	writeMu sync.Mutex
}

func NewSnapshotService(store Store, agg portfolio.Aggregator, refreshDelay time.Duration, log *logrus.Logger) *SnapshotService {
	return &SnapshotService{store: store, agg: agg, log: log, refreshDelay: refreshDelay, now: time.Now}
}

// Refresh fetches a new snapshot from the store and swaps it in.
func (s *SnapshotService) Refresh(ctx context.Context) (models.Snapshot, error) {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	snap, err := s.store.Fetch(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("fetch snapshot: %w: %w", ErrStore, err)
	}
	s.current.Store(&snap)
	return snap, nil
}

// Snapshot returns the current snapshot, fetching one if none is loaded yet.
func (s *SnapshotService) Snapshot(ctx context.Context) (models.Snapshot, error) {
	if p := s.current.Load(); p != nil {
		return *p, nil
	}
	return s.Refresh(ctx)
}

func (s *SnapshotService) Dashboard(ctx context.Context) (portfolio.Dashboard, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return portfolio.Dashboard{}, err
	}
	dash := s.agg.Aggregate(snap)
	if dash.Inconsistent > 0 {
		s.log.Warnf("dashboard: %d stocks have inconsistent transaction data", dash.Inconsistent)
	}
	return dash, nil
}

func (s *SnapshotService) StockDetail(ctx context.Context, sym models.Symbol) (portfolio.StockSummary, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return portfolio.StockSummary{}, err
	}
	summary, ok := s.agg.Detail(snap, sym)
	if !ok {
		return portfolio.StockSummary{}, fmt.Errorf("%w: %s", ErrUnknownStock, sym)
	}
	return summary, nil
}

func (s *SnapshotService) AddStock(ctx context.Context, st models.Stock) error {
	if err := st.Validate(); err != nil {
		return err
	}
	return s.write(ctx, st, func(snap models.Snapshot) error {
		if _, exists := snap.Stock(st.Symbol); exists {
			return fmt.Errorf("%w: %s", models.ErrDuplicateStock, st.Symbol)
		}
		return nil
	})
}

// RecordTrade appends a trade. A sell is rejected when it exceeds the
// current holding of the stock.
func (s *SnapshotService) RecordTrade(ctx context.Context, t models.Trade) error {
	if t.Date == "" {
		t.Date = models.Today(s.now())
	}
	if err := t.Validate(); err != nil {
		return err
	}
	return s.write(ctx, t, func(snap models.Snapshot) error {
		if err := requireStock(snap, t.Symbol); err != nil {
			return err
		}
		if t.Type != models.TradeSell {
			return nil
		}
		held := s.agg.Holding(snap, t.Symbol)
		if t.Quantity.GreaterThan(held) {
			return fmt.Errorf("%w: selling %s of %s, holding %s", ErrInsufficientHoldings, t.Quantity, t.Symbol, held)
		}
		return nil
	})
}

func (s *SnapshotService) RecordDividend(ctx context.Context, d models.Dividend) error {
	if d.Date == "" {
		d.Date = models.Today(s.now())
	}
	if err := d.Validate(); err != nil {
		return err
	}
	return s.write(ctx, d, func(snap models.Snapshot) error { return requireStock(snap, d.Symbol) })
}

func (s *SnapshotService) RecordBonus(ctx context.Context, b models.BonusIssue) error {
	if b.Date == "" {
		b.Date = models.Today(s.now())
	}
	if err := b.Validate(); err != nil {
		return err
	}
	return s.write(ctx, b, func(snap models.Snapshot) error { return requireStock(snap, b.Symbol) })
}

// write checks rec against a freshly fetched snapshot, appends it, and
// refetches so the new row is visible to later reads.
func (s *SnapshotService) write(ctx context.Context, rec models.Record, check func(models.Snapshot) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snap, err := s.Refresh(ctx)
	if err != nil {
		return err
	}
	if err := check(snap); err != nil {
		return err
	}
	if err := s.store.Append(ctx, models.AppendRequest{Record: rec, IdempotencyKey: IdempotencyKey(ctx)}); err != nil {
		if errors.Is(err, models.ErrDuplicateStock) || errors.Is(err, models.ErrInvalidRecord) {
			return err
		}
		return fmt.Errorf("append to %s: %w: %w", rec.Collection(), ErrStore, err)
	}

	// the store may take a moment before the new row shows up
	if s.refreshDelay > 0 {
		select {
		case <-ctx.Done():
			s.log.Warnf("refetch after append to %s skipped: %v", rec.Collection(), ctx.Err())
			return nil
		case <-time.After(s.refreshDelay):
		}
	}
	if _, err := s.Refresh(ctx); err != nil {
		s.log.Warnf("refetch after append to %s failed: %v", rec.Collection(), err)
	}
	return nil
}

func requireStock(snap models.Snapshot, sym models.Symbol) error {
	if _, ok := snap.Stock(sym); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStock, sym)
	}
	return nil
}

type idempotencyKey struct{}

// WithIdempotencyKey attaches a client supplied key to writes made with ctx.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

func IdempotencyKey(ctx context.Context) string {
	k, _ := ctx.Value(idempotencyKey{}).(string)
	return k
}
