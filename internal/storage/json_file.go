package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"mysterybox/internal/models"
)

// JSONFile reads and writes a whole JSON document at a fixed path.
// There are no partial updates: every Write replaces the file.
type JSONFile struct {
	mu   sync.Mutex
	path string
}

// NewJSONFile creates a JSONFile for path. Nothing is touched on disk until the first Write.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the file location.
func (f *JSONFile) Path() string {
	return f.path
}

// Read decodes the file into v. It returns false when the file does not exist.
func (f *JSONFile) Read(v any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", f.path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return true, nil
}

// Write encodes v with two-space indentation and atomically replaces the file.
func (f *JSONFile) Write(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return writeFileAtomic(f.path, data)
}

// writeFileAtomic writes through a temp file in the same directory and
// renames it into place, so readers never see a half-written file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// ResultFile stores game results as a JSON array.
type ResultFile struct {
	file *JSONFile
}

// NewResultFile creates a ResultFile at path.
func NewResultFile(path string) *ResultFile {
	return &ResultFile{file: NewJSONFile(path)}
}

// Init writes an empty array if the file does not exist yet.
func (r *ResultFile) Init(ctx context.Context) error {
	var results []models.GameResult
	found, err := r.file.Read(&results)
	if err != nil || found {
		return err
	}
	return r.SaveResults(ctx, nil)
}

func (r *ResultFile) LoadResults(_ context.Context) ([]models.GameResult, error) {
	var results []models.GameResult
	if _, err := r.file.Read(&results); err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.GameResult{}
	}
	return results, nil
}

func (r *ResultFile) SaveResults(_ context.Context, results []models.GameResult) error {
	if results == nil {
		results = []models.GameResult{}
	}
	return r.file.Write(results)
}

// StockFile stores the prize stock as a JSON object.
type StockFile struct {
	file *JSONFile
}

// NewStockFile creates a StockFile at path.
func NewStockFile(path string) *StockFile {
	return &StockFile{file: NewJSONFile(path)}
}

func (s *StockFile) LoadStock(_ context.Context) (models.PrizeStock, bool, error) {
	var stock models.PrizeStock
	found, err := s.file.Read(&stock)
	if err != nil || !found {
		return nil, false, err
	}
	if stock == nil {
		stock = models.PrizeStock{}
	}
	return stock, true, nil
}

func (s *StockFile) SaveStock(_ context.Context, stock models.PrizeStock) error {
	return s.file.Write(stock)
}
