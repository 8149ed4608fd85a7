package services

import (
	"context"
	"fmt"
	"sync"

	"mysterybox/internal/models"

	"github.com/google/logger"
)

// StockStore persists the remaining prize counts.
type StockStore interface {
	// LoadStock returns found=false when no stock has been saved yet.
	LoadStock(ctx context.Context) (stock models.PrizeStock, found bool, err error)
	SaveStock(ctx context.Context, stock models.PrizeStock) error
}

// StockLedger tracks how many prizes are left in each category.
// Stock is only ever decremented; nothing in the game replenishes it.
type StockLedger struct {
	mu       sync.Mutex
	store    StockStore
	defaults models.PrizeStock
}

// NewStockLedger creates a ledger that initializes the store with defaults on first use.
func NewStockLedger(store StockStore, defaults models.PrizeStock) *StockLedger {
	return &StockLedger{
		store:    store,
		defaults: defaults.Clone(),
	}
}

// Get returns the current stock, creating the default stock if none exists yet.
func (l *StockLedger) Get(ctx context.Context) (models.PrizeStock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

func (l *StockLedger) load(ctx context.Context) (models.PrizeStock, error) {
	stock, found, err := l.store.LoadStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load prize stock: %w", ErrStorage, err)
	}
	if found {
		return stock, nil
	}

	stock = l.defaults.Clone()
	if err := l.store.SaveStock(ctx, stock); err != nil {
		return nil, fmt.Errorf("%w: initialize prize stock: %w", ErrStorage, err)
	}
	logger.Infof("Initialized prize stock: %v", stock)
	return stock, nil
}

// IsDepleted reports whether the sum of all categories is zero or less.
func (l *StockLedger) IsDepleted(ctx context.Context) (bool, error) {
	stock, err := l.Get(ctx)
	if err != nil {
		return false, err
	}
	return stock.Total() <= 0, nil
}

// Decrement removes one prize from the category if any is left.
// It reports whether a prize was taken.
func (l *StockLedger) Decrement(ctx context.Context, category string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stock, err := l.load(ctx)
	if err != nil {
		return false, err
	}
	if stock[category] <= 0 {
		return false, nil
	}

	stock[category]--
	if err := l.store.SaveStock(ctx, stock); err != nil {
		return false, fmt.Errorf("%w: save prize stock: %w", ErrStorage, err)
	}
	return true, nil
}
