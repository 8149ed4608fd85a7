package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"mysterybox/internal/models"
)

// CSVHeader is the first row of the CSV export.
var CSVHeader = []string{
	"userId", "fullName", "email", "phone", "selectedBox", "hasWon",
	"prizeName", "prizeDescription", "timestamp", "ipAddress", "userAgent",
}

// WriteCSV writes every result as CSV, prefixed with a UTF-8 BOM so
// spreadsheet tools pick the right encoding.
func WriteCSV(w io.Writer, results []models.GameResult) error {
	if _, err := w.Write([]byte("\xef\xbb\xbf")); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, r := range results {
		row := []string{
			csvText(r.UserID),
			csvText(r.FullName),
			csvText(r.Email),
			csvText(r.Phone),
			strconv.Itoa(r.SelectedBox),
			strconv.FormatBool(r.HasWon),
			csvText(r.PrizeName),
			csvText(r.PrizeDescription),
			r.Timestamp.Format(time.RFC3339),
			csvText(r.IPAddress),
			csvText(r.UserAgent),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row for %s: %w", r.UserID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// csvText prefixes values a spreadsheet would evaluate as a formula with a
// quote so they are shown as text.
func csvText(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
