package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mysterybox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []models.GameResult {
	ts := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)
	return []models.GameResult{
		{UserID: "u1", FullName: "Hélène Dupont", Email: "h@example.com", Phone: "06 01", SelectedBox: 1,
			Timestamp: ts, IPAddress: "::1", UserAgent: "unknown"},
		{UserID: "u2", FullName: "Łukasz Nowak", Email: "l@example.com", Phone: "06 02", SelectedBox: 3, HasWon: true,
			PrizeName: "Pass VIP pour la soirée", PrizeDescription: "Accès à l'espace VIP", Timestamp: ts.Add(time.Minute),
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"},
	}
}

func TestPDFRendererRender(t *testing.T) {
	ctx := context.Background()
	paris := time.FixedZone("CEST", 2*60*60)

	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "tous_les_resultats.pdf")
	renderer := NewPDFRenderer(path,
		WithLocation(paris),
		WithClock(func() time.Time { return time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) }),
	)
	assert.False(t, renderer.Exists())
	assert.Equal(t, path, renderer.Path())

	results := sampleResults()
	stats := models.GameStats{TotalPlayers: 2, Winners: 1, WinRate: 50, MostSelectedBox: 1, BoxStats: map[int]int{1: 1, 2: 0, 3: 1, 4: 0}}
	require.NoError(t, renderer.Render(ctx, results, stats))
	assert.True(t, renderer.Exists())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "report must be a PDF document")

	// a second render replaces the file and leaves no temp files behind
	require.NoError(t, renderer.Render(ctx, nil, models.GameStats{BoxStats: map[int]int{}}))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tous_les_resultats.pdf", entries[0].Name())
}

func TestPDFRendererMissingFont(t *testing.T) {
	renderer := NewPDFRenderer(filepath.Join(t.TempDir(), "report.pdf"),
		WithUTF8Font(filepath.Join(t.TempDir(), "absent.ttf")))

	err := renderer.Render(context.Background(), sampleResults(), models.GameStats{BoxStats: map[int]int{}})
	require.Error(t, err)
	assert.False(t, renderer.Exists())
}

func TestPDFRendererUTF8Font(t *testing.T) {
	font := "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"
	if _, err := os.Stat(font); err != nil {
		t.Skipf("no TrueType font at %s", font)
	}

	path := filepath.Join(t.TempDir(), "report.pdf")
	renderer := NewPDFRenderer(path, WithUTF8Font(font))
	results := append(sampleResults(), models.GameResult{UserID: "u3", FullName: "Ирина Петрова", SelectedBox: 2})

	require.NoError(t, renderer.Render(context.Background(), results, models.GameStats{TotalPlayers: 3, BoxStats: map[int]int{}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestPDFRendererCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	renderer := NewPDFRenderer(filepath.Join(t.TempDir(), "report.pdf"))
	require.ErrorIs(t, renderer.Render(ctx, sampleResults(), models.GameStats{}), context.Canceled)
	assert.False(t, renderer.Exists())
}

func TestPDFRendererDate(t *testing.T) {
	renderer := NewPDFRenderer("unused.pdf", WithLocation(time.FixedZone("CEST", 2*60*60)))

	got := renderer.date(time.Date(2025, 6, 1, 18, 30, 5, 0, time.UTC))
	assert.Equal(t, "01/06/2025 20:30:05", got)
}

func TestDescribeUserAgent(t *testing.T) {
	assert.Equal(t, "inconnu", DescribeUserAgent(""))
	assert.Equal(t, "inconnu", DescribeUserAgent("unknown"))

	desktop := DescribeUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.True(t, strings.HasPrefix(desktop, "Chrome 120"), desktop)
	assert.Contains(t, desktop, "Windows")
	assert.NotContains(t, desktop, "mobile")

	phone := DescribeUserAgent("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	assert.Contains(t, phone, "Safari")
	assert.Contains(t, phone, "(mobile)")

	bot := DescribeUserAgent("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	assert.True(t, strings.HasPrefix(bot, "robot"), bot)
}
