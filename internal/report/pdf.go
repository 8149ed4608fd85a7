package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mysterybox/internal/models"

	"github.com/go-pdf/fpdf"
	"github.com/google/logger"
	"github.com/mssola/useragent"
)

const dateLayout = "02/01/2006 15:04:05"

// PDFRenderer writes the global participation report as an A4 PDF.
type PDFRenderer struct {
	path     string
	location *time.Location
	now      func() time.Time
	fontFile string
}

// Option configures a PDFRenderer.
type Option func(*PDFRenderer)

// WithLocation sets the time zone dates are printed in.
func WithLocation(loc *time.Location) Option {
	return func(r *PDFRenderer) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithClock overrides the clock used for the "last update" footer.
func WithClock(now func() time.Time) Option {
	return func(r *PDFRenderer) { r.now = now }
}

// WithUTF8Font renders the report with the TrueType font at path. Without it
// the built-in Helvetica is used, which only covers cp1252: other characters
// are printed as '?'.
func WithUTF8Font(path string) Option {
	return func(r *PDFRenderer) { r.fontFile = path }
}

// NewPDFRenderer creates a renderer writing to path.
func NewPDFRenderer(path string, opts ...Option) *PDFRenderer {
	r := &PDFRenderer{
		path:     path,
		location: time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns where the report is written.
func (r *PDFRenderer) Path() string {
	return r.path
}

// Exists reports whether a report has been generated.
func (r *PDFRenderer) Exists() bool {
	info, err := os.Stat(r.path)
	return err == nil && !info.IsDir()
}

// Render rebuilds the report from every result. The previous report stays
// in place until the new one is completely written.
func (r *PDFRenderer) Render(ctx context.Context, results []models.GameResult, stats models.GameStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pdf := r.build(results, stats)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*.pdf")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := pdf.Output(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}

	logger.Infof("Report updated: %s (%d participants)", r.path, len(results))
	return nil
}

func (r *PDFRenderer) build(results []models.GameResult, stats models.GameStats) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.SetTitle("Rapport complet - Jeu de boîtes mystères", true)
	pdf.SetCreator("mysterybox", true)
	pdf.AliasNbPages("{nb}")

	family := "Helvetica"
	// core fonts are cp1252, so accents have to be translated
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if r.fontFile != "" {
		family = "report"
		for _, style := range []string{"", "B", "I"} {
			pdf.AddUTF8Font(family, style, r.fontFile)
		}
		tr = func(s string) string { return s }
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(family, "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(family, "B", 18)
	pdf.MultiCell(0, 9, tr("RAPPORT COMPLET - JEU DE BOÎTES MYSTÈRES"), "", "C", false)
	pdf.Ln(4)

	heading(pdf, tr, family, 14, "STATISTIQUES GÉNÉRALES")
	pdf.SetFont(family, "", 11)
	line(pdf, tr, 6, fmt.Sprintf("Total des participants: %d", stats.TotalPlayers))
	line(pdf, tr, 6, fmt.Sprintf("Nombre de gagnants: %d", stats.Winners))
	line(pdf, tr, 6, fmt.Sprintf("Taux de réussite: %.2f%%", stats.WinRate))
	if stats.MostSelectedBox > 0 {
		line(pdf, tr, 6, fmt.Sprintf("Boîte la plus populaire: %d", stats.MostSelectedBox))
	} else {
		line(pdf, tr, 6, "Boîte la plus populaire: -")
	}
	pdf.Ln(4)

	heading(pdf, tr, family, 13, "RÉPARTITION DES CHOIX DE BOÎTES")
	pdf.SetFont(family, "", 10)
	for box := 1; box <= models.BoxCount; box++ {
		count := stats.BoxStats[box]
		percentage := 0.0
		if stats.TotalPlayers > 0 {
			percentage = float64(count) / float64(stats.TotalPlayers) * 100
		}
		line(pdf, tr, 5, fmt.Sprintf("Boîte %d: %d sélection(s) (%.1f%%)", box, count, percentage))
	}
	pdf.Ln(4)

	if len(results) > 0 {
		sorted := make([]models.GameResult, len(results))
		copy(sorted, results)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.After(sorted[j].Timestamp)
		})

		heading(pdf, tr, family, 14, "LISTE COMPLÈTE DES PARTICIPANTS")
		pdf.SetFont(family, "", 8)
		unmapped := 0
		for i, res := range sorted {
			if r.fontFile == "" && strings.Count(tr(res.FullName), "?") > strings.Count(res.FullName, "?") {
				unmapped++
			}
			prize := ""
			if res.HasWon && res.PrizeName != "" {
				prize = " - " + res.PrizeName
			}
			line(pdf, tr, 4.5, fmt.Sprintf("%d. %s - %s - %s - Boîte %d - %s%s - %s",
				i+1, res.FullName, res.Email, res.Phone, res.SelectedBox, outcome(res), prize, r.date(res.Timestamp)))
		}
		pdf.Ln(4)
		if unmapped > 0 {
			logger.Warningf("%d participant names have characters outside cp1252; set report.font_file to a UTF-8 TrueType font to print them", unmapped)
		}

		heading(pdf, tr, family, 13, "INFORMATIONS DÉTAILLÉES DES PARTICIPANTS")
		for i, res := range sorted {
			pdf.SetFont(family, "B", 10)
			line(pdf, tr, 5, fmt.Sprintf("Participant %d:", i+1))
			pdf.SetFont(family, "", 9)
			line(pdf, tr, 4.5, "   Nom complet: "+res.FullName)
			line(pdf, tr, 4.5, "   Email: "+res.Email)
			line(pdf, tr, 4.5, "   Téléphone: "+res.Phone)
			line(pdf, tr, 4.5, fmt.Sprintf("   Boîte sélectionnée: %d", res.SelectedBox))
			line(pdf, tr, 4.5, "   Résultat: "+outcome(res))
			if res.HasWon && res.PrizeName != "" {
				line(pdf, tr, 4.5, "   Prix gagné: "+res.PrizeName)
				if res.PrizeDescription != "" {
					line(pdf, tr, 4.5, "   Description: "+res.PrizeDescription)
				}
			}
			line(pdf, tr, 4.5, "   Date de participation: "+r.date(res.Timestamp))
			line(pdf, tr, 4.5, "   Navigateur: "+DescribeUserAgent(res.UserAgent))
			line(pdf, tr, 4.5, "   ID utilisateur: "+res.UserID)
			pdf.Ln(2)
		}
	}

	pdf.Ln(6)
	pdf.SetFont(family, "", 8)
	pdf.MultiCell(0, 4, tr("Document généré automatiquement par le système de jeu de boîtes mystères"), "", "C", false)
	pdf.MultiCell(0, 4, tr("Dernière mise à jour: "+r.date(r.now())), "", "C", false)
	pdf.MultiCell(0, 4, tr(fmt.Sprintf("Total des participants: %d", len(results))), "", "C", false)
	return pdf
}

func (r *PDFRenderer) date(t time.Time) string {
	return t.In(r.location).Format(dateLayout)
}

func heading(pdf *fpdf.Fpdf, tr func(string) string, family string, size float64, text string) {
	pdf.SetFont(family, "B", size)
	pdf.MultiCell(0, size*0.5, tr(text), "", "L", false)
	pdf.Ln(1)
}

func line(pdf *fpdf.Fpdf, tr func(string) string, h float64, text string) {
	pdf.MultiCell(0, h, tr(text), "", "L", false)
}

func outcome(r models.GameResult) string {
	if r.HasWon {
		return "GAGNÉ"
	}
	return "Perdu"
}

// DescribeUserAgent turns a raw User-Agent header into "Browser version / OS".
func DescribeUserAgent(raw string) string {
	if raw == "" || raw == "unknown" {
		return "inconnu"
	}
	ua := useragent.New(raw)
	if ua.Bot() {
		name, _ := ua.Browser()
		return "robot (" + name + ")"
	}

	desc := "inconnu"
	if name, version := ua.Browser(); name != "" {
		desc = name
		if version != "" {
			desc += " " + version
		}
	}
	if platform := ua.OS(); platform != "" {
		desc += " / " + platform
	}
	if ua.Mobile() {
		desc += " (mobile)"
	}
	return desc
}
