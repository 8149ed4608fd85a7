package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"mysterybox/internal/metrics"
	"mysterybox/internal/models"

	"github.com/google/logger"
)

// ResultStore persists the full list of results in insertion order.
type ResultStore interface {
	LoadResults(ctx context.Context) ([]models.GameResult, error)
	SaveResults(ctx context.Context, results []models.GameResult) error
}

// ReportRenderer rebuilds the report artifact from every stored result.
type ReportRenderer interface {
	Render(ctx context.Context, results []models.GameResult, stats models.GameStats) error
}

// GameService is the participation ledger: it stores results, enforces
// one entry per identity and consumes prize stock when a prize is awarded.
type GameService struct {
	// mu serializes writers so two submissions cannot both take the last prize.
	mu      sync.Mutex
	results ResultStore
	stock   *StockLedger
	catalog *PrizeCatalog
	report  ReportRenderer
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a GameService.
type Option func(*GameService)

// WithClock overrides the clock used to timestamp results.
func WithClock(now func() time.Time) Option {
	return func(s *GameService) { s.now = now }
}

// WithMetrics records submissions and stock on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *GameService) { s.metrics = m }
}

// NewGameService creates a GameService. report may be nil.
func NewGameService(results ResultStore, stock *StockLedger, catalog *PrizeCatalog, report ReportRenderer, opts ...Option) *GameService {
	s := &GameService{
		results: results,
		stock:   stock,
		catalog: catalog,
		report:  report,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and records a game result.
func (s *GameService) Submit(ctx context.Context, sub models.GameSubmission, client models.ClientInfo) (*models.GameResult, error) {
	if err := validateSubmission(sub); err != nil {
		s.metrics.ObserveSubmission(metrics.OutcomeRejected)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.submit(ctx, sub, client)
	if err != nil {
		s.metrics.ObserveSubmission(metrics.OutcomeRejected)
		return nil, err
	}
	if result.HasWon {
		s.metrics.ObserveSubmission(metrics.OutcomeWon)
	} else {
		s.metrics.ObserveSubmission(metrics.OutcomeLost)
	}
	return result, nil
}

func (s *GameService) submit(ctx context.Context, sub models.GameSubmission, client models.ClientInfo) (*models.GameResult, error) {
	results, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if hasPlayed(results, sub.UserID) {
		return nil, ErrAlreadyPlayed
	}
	if identityExists(results, sub.Email, sub.Phone, sub.FullName) {
		return nil, ErrDuplicateIdentity
	}

	depleted, err := s.stock.IsDepleted(ctx)
	if err != nil {
		return nil, err
	}
	if depleted {
		logger.Warningf("All prizes are depleted, result for %s not recorded", sub.UserID)
		return nil, ErrGameClosed
	}

	result := models.GameResult{
		UserID:      sub.UserID,
		FullName:    sub.FullName,
		Email:       sub.Email,
		Phone:       sub.Phone,
		SelectedBox: sub.SelectedBox,
		HasWon:      sub.HasWon,
		Timestamp:   s.now().UTC(),
		IPAddress:   orUnknown(client.IPAddress),
		UserAgent:   orUnknown(client.UserAgent),
	}
	if sub.HasWon {
		result.PrizeName = sub.PrizeName
		result.PrizeDescription = sub.PrizeDescription
	}

	// Results are written before the stock is decremented; a failed stock
	// write rolls the results back. s.mu keeps the checked count stable.
	var category string
	if result.HasWon && result.PrizeName != "" {
		if prize, ok := s.catalog.Classify(result.PrizeName); ok {
			stock, err := s.stock.Get(ctx)
			if err != nil {
				return nil, err
			}
			if stock[prize.Key] <= 0 {
				logger.Warningf("Prize %q is out of stock, nothing awarded to %s", result.PrizeName, sub.UserID)
				return nil, ErrPrizeOutOfStock
			}
			category = prize.Key
		}
	}

	previous := results
	results = append(results[:len(results):len(results)], result)
	if err := s.results.SaveResults(ctx, results); err != nil {
		return nil, fmt.Errorf("%w: save results: %w", ErrStorage, err)
	}

	if category != "" {
		taken, err := s.stock.Decrement(ctx, category)
		if err == nil && !taken {
			err = ErrPrizeOutOfStock
		}
		if err != nil {
			s.rollback(ctx, previous)
			return nil, err
		}
		s.metrics.ObservePrize(category)
	}
	logger.Infof("Result recorded: %s - won=%t - box %d", result.UserID, result.HasWon, result.SelectedBox)

	s.regenerate(ctx, results)
	s.publishStock(ctx)
	return &result, nil
}

// IdentityExists reports whether the email, phone or name+contact pair has already played.
func (s *GameService) IdentityExists(ctx context.Context, email, phone, fullName string) (bool, error) {
	results, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return identityExists(results, email, phone, fullName), nil
}

// HasPlayed reports whether a result exists for userID.
func (s *GameService) HasPlayed(ctx context.Context, userID string) (bool, error) {
	results, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return hasPlayed(results, userID), nil
}

// List returns every result in insertion order.
func (s *GameService) List(ctx context.Context) ([]models.GameResult, error) {
	return s.load(ctx)
}

// Recent returns the last n results, most recent first.
func (s *GameService) Recent(ctx context.Context, n int) ([]models.GameResult, error) {
	results, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []models.GameResult{}, nil
	}
	if n > len(results) {
		n = len(results)
	}
	recent := make([]models.GameResult, 0, n)
	for i := len(results) - 1; i >= len(results)-n; i-- {
		recent = append(recent, results[i])
	}
	return recent, nil
}

// Stats aggregates all stored results.
func (s *GameService) Stats(ctx context.Context) (models.GameStats, error) {
	results, err := s.load(ctx)
	if err != nil {
		return models.GameStats{}, err
	}
	return ComputeStats(results), nil
}

// DeleteByUserID removes the result of userID and regenerates the report.
// Stock consumed by that result is not restored. It reports whether a
// result was removed.
func (s *GameService) DeleteByUserID(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	kept := make([]models.GameResult, 0, len(results))
	for _, r := range results {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(results) {
		return false, nil
	}

	if err := s.results.SaveResults(ctx, kept); err != nil {
		return false, fmt.Errorf("%w: save results: %w", ErrStorage, err)
	}
	logger.Infof("Deleted result of user %s", userID)

	s.regenerate(ctx, kept)
	return true, nil
}

// Stock returns the remaining prize counts.
func (s *GameService) Stock(ctx context.Context) (models.PrizeStock, error) {
	stock, err := s.stock.Get(ctx)
	if err != nil {
		return nil, err
	}
	return stock.Clone(), nil
}

// Prizes returns the catalog with the remaining count of each prize.
func (s *GameService) Prizes(ctx context.Context) ([]models.PrizeAvailability, error) {
	stock, err := s.stock.Get(ctx)
	if err != nil {
		return nil, err
	}
	prizes := s.catalog.Prizes()
	out := make([]models.PrizeAvailability, 0, len(prizes))
	for _, p := range prizes {
		out = append(out, models.PrizeAvailability{Prize: p, Remaining: stock[p.Key]})
	}
	return out, nil
}

// RegenerateReport rebuilds the report from the current store.
func (s *GameService) RegenerateReport(ctx context.Context) error {
	if s.report == nil {
		return nil
	}
	results, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.report.Render(ctx, results, ComputeStats(results))
}

// regenerate rebuilds the report after a write. The write has already been
// persisted, so a failure is logged and counted instead of returned.
func (s *GameService) regenerate(ctx context.Context, results []models.GameResult) {
	if s.report == nil {
		return
	}
	if err := s.report.Render(ctx, results, ComputeStats(results)); err != nil {
		s.metrics.ObserveReportFailure()
		logger.Errorf("Failed to regenerate report: %v", err)
	}
}

// rollback restores the stored results after the stock could not follow a write.
func (s *GameService) rollback(ctx context.Context, previous []models.GameResult) {
	if err := s.results.SaveResults(ctx, previous); err != nil {
		logger.Errorf("Failed to roll back results after a stock error: %v", err)
	}
}

func (s *GameService) publishStock(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	stock, err := s.stock.Get(ctx)
	if err != nil {
		logger.Warningf("Failed to read prize stock for metrics: %v", err)
		return
	}
	s.metrics.SetStock(stock)
}

func (s *GameService) load(ctx context.Context) ([]models.GameResult, error) {
	results, err := s.results.LoadResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load results: %w", ErrStorage, err)
	}
	return results, nil
}

// ComputeStats aggregates results. Ties for the most selected box go to the
// box that was encountered first.
func ComputeStats(results []models.GameResult) models.GameStats {
	stats := models.GameStats{
		TotalPlayers: len(results),
		BoxStats:     make(map[int]int, models.BoxCount),
	}
	for box := 1; box <= models.BoxCount; box++ {
		stats.BoxStats[box] = 0
	}

	var order []int
	for _, r := range results {
		if r.HasWon {
			stats.Winners++
		}
		if r.SelectedBox < 1 || r.SelectedBox > models.BoxCount {
			continue
		}
		if stats.BoxStats[r.SelectedBox] == 0 {
			order = append(order, r.SelectedBox)
		}
		stats.BoxStats[r.SelectedBox]++
	}

	if stats.TotalPlayers > 0 {
		stats.WinRate = float64(stats.Winners) / float64(stats.TotalPlayers) * 100
	}

	best := 0
	for _, box := range order {
		if stats.BoxStats[box] > best {
			best = stats.BoxStats[box]
			stats.MostSelectedBox = box
		}
	}
	return stats
}

func validateSubmission(sub models.GameSubmission) error {
	var missing []string
	if strings.TrimSpace(sub.UserID) == "" {
		missing = append(missing, "userId")
	}
	if strings.TrimSpace(sub.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if strings.TrimSpace(sub.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(sub.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: champs requis manquants: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if sub.SelectedBox < 1 || sub.SelectedBox > models.BoxCount {
		return fmt.Errorf("%w: boîte sélectionnée invalide (%d)", ErrInvalidInput, sub.SelectedBox)
	}
	return nil
}

func hasPlayed(results []models.GameResult, userID string) bool {
	for _, r := range results {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// identityExists applies the uniqueness rule: a shared email or phone is a
// duplicate on its own; a matching normalized name only counts together with
// a shared email or phone on the same record.
func identityExists(results []models.GameResult, email, phone, fullName string) bool {
	email = NormalizeEmail(email)
	phone = NormalizePhone(phone)

	for _, r := range results {
		if email != "" && NormalizeEmail(r.Email) == email {
			return true
		}
	}
	for _, r := range results {
		if phone != "" && NormalizePhone(r.Phone) == phone {
			return true
		}
	}

	if fullName == "" {
		return false
	}
	name := NormalizeName(fullName)
	for _, r := range results {
		if NormalizeName(r.FullName) != name {
			continue
		}
		if (email != "" && NormalizeEmail(r.Email) == email) || (phone != "" && NormalizePhone(r.Phone) == phone) {
			return true
		}
	}
	return false
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
