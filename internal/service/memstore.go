package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockbook/internal/models"
)

// MemoryStore is an in-process Store, used for local runs and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	snap models.Snapshot
	keys map[string]bool
}

func NewMemoryStore(seed models.Snapshot) *MemoryStore {
	return &MemoryStore{snap: copySnapshot(seed), keys: make(map[string]bool)}
}

func (m *MemoryStore) Fetch(ctx context.Context) (models.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := copySnapshot(m.snap)
	snap.FetchedAt = time.Now().UTC()
	return snap, nil
}

func (m *MemoryStore) Append(ctx context.Context, req models.AppendRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.IdempotencyKey != "" && m.keys[req.IdempotencyKey] {
		return nil
	}
	switch r := req.Record.(type) {
	case models.Stock:
		if _, ok := m.snap.Stock(r.Symbol); ok {
			return fmt.Errorf("%w: %s", models.ErrDuplicateStock, r.Symbol)
		}
		m.snap.Stocks = append(m.snap.Stocks, r)
	case models.Trade:
		m.snap.Trades = append(m.snap.Trades, r)
	case models.Dividend:
		m.snap.Dividends = append(m.snap.Dividends, r)
	case models.BonusIssue:
		m.snap.Bonus = append(m.snap.Bonus, r)
	default:
		return fmt.Errorf("%w: unsupported record %T", models.ErrInvalidRecord, req.Record)
	}
	if req.IdempotencyKey != "" {
		m.keys[req.IdempotencyKey] = true
	}
	return nil
}

func copySnapshot(s models.Snapshot) models.Snapshot {
	return models.Snapshot{
		Stocks:    append([]models.Stock{}, s.Stocks...),
		Trades:    append([]models.Trade{}, s.Trades...),
		Dividends: append([]models.Dividend{}, s.Dividends...),
		Bonus:     append([]models.BonusIssue{}, s.Bonus...),
		FetchedAt: s.FetchedAt,
	}
}
