package storage

import (
	"context"
	"sync"

	"mysterybox/internal/models"
)

// InMemoryResults keeps results in memory.
type InMemoryResults struct {
	mu      sync.RWMutex
	results []models.GameResult
	// Err, when set, is returned by every call.
	Err error
	// SaveErr, when set, is returned by SaveResults only.
	SaveErr error
}

func NewInMemoryResults(results ...models.GameResult) *InMemoryResults {
	return &InMemoryResults{results: append([]models.GameResult(nil), results...)}
}

func (s *InMemoryResults) LoadResults(_ context.Context) ([]models.GameResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]models.GameResult, len(s.results))
	copy(out, s.results)
	return out, nil
}

func (s *InMemoryResults) SaveResults(_ context.Context, results []models.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.results = append([]models.GameResult(nil), results...)
	return nil
}

// InMemoryStock keeps the prize stock in memory.
type InMemoryStock struct {
	mu    sync.RWMutex
	stock models.PrizeStock
	Err   error
	// SaveErr, when set, is returned by SaveStock only.
	SaveErr error
}

// NewInMemoryStock creates a store. A nil stock means nothing has been saved yet.
func NewInMemoryStock(stock models.PrizeStock) *InMemoryStock {
	s := &InMemoryStock{}
	if stock != nil {
		s.stock = stock.Clone()
	}
	return s
}

func (s *InMemoryStock) LoadStock(_ context.Context) (models.PrizeStock, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, false, s.Err
	}
	if s.stock == nil {
		return nil, false, nil
	}
	return s.stock.Clone(), true, nil
}

func (s *InMemoryStock) SaveStock(_ context.Context, stock models.PrizeStock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.stock = stock.Clone()
	return nil
}
