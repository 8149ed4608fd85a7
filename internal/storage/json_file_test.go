package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mysterybox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultFile(t *testing.T) {
	ctx := context.Background()

	t.Run("init writes an empty array", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "results.json")
		store := NewResultFile(path)
		require.NoError(t, store.Init(ctx))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(data))

		results, err := store.LoadResults(ctx)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("init keeps existing results", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "results.json")
		store := NewResultFile(path)
		require.NoError(t, store.SaveResults(ctx, []models.GameResult{{UserID: "u1", SelectedBox: 2}}))
		require.NoError(t, store.Init(ctx))

		results, err := store.LoadResults(ctx)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "u1", results[0].UserID)
	})

	t.Run("round trip keeps order and fields", func(t *testing.T) {
		dir := t.TempDir()
		store := NewResultFile(filepath.Join(dir, "results.json"))
		ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
		want := []models.GameResult{
			{UserID: "a", FullName: "Zoë Martin", Email: "zoe@example.com", Phone: "0601", SelectedBox: 1, Timestamp: ts, IPAddress: "::1", UserAgent: "curl"},
			{UserID: "b", FullName: "Bob", Email: "bob@example.com", Phone: "0602", SelectedBox: 3, HasWon: true,
				PrizeName: "Goodies", PrizeDescription: "Un sac", Timestamp: ts.Add(time.Hour), IPAddress: "unknown", UserAgent: "unknown"},
		}
		require.NoError(t, store.SaveResults(ctx, want))

		got, err := store.LoadResults(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1, "temp files must not be left behind")
		assert.Equal(t, "results.json", entries[0].Name())
	})

	t.Run("uses camelCase keys and omits empty prizes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "results.json")
		store := NewResultFile(path)
		require.NoError(t, store.SaveResults(ctx, []models.GameResult{{UserID: "u1", SelectedBox: 4}}))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"userId": "u1"`)
		assert.Contains(t, string(data), `"selectedBox": 4`)
		assert.NotContains(t, string(data), "prizeName")
	})

	t.Run("missing file reads as empty", func(t *testing.T) {
		store := NewResultFile(filepath.Join(t.TempDir(), "absent.json"))
		results, err := store.LoadResults(ctx)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "results.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		_, err := NewResultFile(path).LoadResults(ctx)
		assert.Error(t, err)
	})
}

func TestStockFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prize_stock.json")
	store := NewStockFile(path)

	_, found, err := store.LoadStock(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SaveStock(ctx, models.PrizeStock{"vip": 3, "canal": 0}))

	stock, found, err := store.LoadStock(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.PrizeStock{"vip": 3, "canal": 0}, stock)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"vip": 3, "canal": 0}`, string(data))
}

func TestInMemoryStoresReturnCopies(t *testing.T) {
	ctx := context.Background()

	results := NewInMemoryResults(models.GameResult{UserID: "u1"})
	loaded, err := results.LoadResults(ctx)
	require.NoError(t, err)
	loaded[0].UserID = "changed"
	again, err := results.LoadResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", again[0].UserID)

	stock := NewInMemoryStock(models.PrizeStock{"vip": 1})
	s, _, err := stock.LoadStock(ctx)
	require.NoError(t, err)
	s["vip"] = 99
	s2, _, err := stock.LoadStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s2["vip"])
}
