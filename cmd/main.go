package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"mysterybox/internal/config"
	"mysterybox/internal/metrics"
	"mysterybox/internal/models"
	"mysterybox/internal/report"
	"mysterybox/internal/services"
	"mysterybox/internal/storage"

	"github.com/google/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "mysterybox",
		Usage: "Mystery box promotional game server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{"MYSTERYBOX_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API",
				Action: serve,
			},
			{
				Name:   "report",
				Usage:  "Regenerate the PDF report from stored results",
				Action: regenerateReport,
			},
			{
				Name:   "stats",
				Usage:  "Print game statistics and remaining prize stock",
				Action: printStats,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("mysterybox: %v", err)
	}
}

// game bundles everything the commands share.
type game struct {
	cfg      *config.Config
	service  *services.GameService
	renderer *report.PDFRenderer
	registry *prometheus.Registry
	closeLog func()
}

func setup(ctx *cli.Context) (*game, error) {
	// 1. Load configuration
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return nil, err
	}

	// 2. Initialize logging
	var logFile io.Writer = io.Discard
	var file *os.File
	if cfg.Log.File != "" {
		file, err = os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logFile = file
	}
	l := logger.Init("mysterybox", cfg.Log.Verbose || file == nil, false, logFile)
	closeLog := func() {
		l.Close()
		if file != nil {
			file.Close()
		}
	}

	// 3. Storage
	results := storage.NewResultFile(cfg.ResultsPath())
	if err := results.Init(ctx.Context); err != nil {
		closeLog()
		return nil, fmt.Errorf("initialize results file: %w", err)
	}
	catalog := services.NewPrizeCatalog(cfg.Prizes())
	stock := services.NewStockLedger(storage.NewStockFile(cfg.StockPath()), catalog.DefaultStock())

	// 4. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// 5. Report renderer and game service
	renderer := report.NewPDFRenderer(cfg.ReportPath(),
		report.WithLocation(cfg.Location()),
		report.WithUTF8Font(cfg.Report.FontFile),
	)
	service := services.NewGameService(results, stock, catalog, renderer, services.WithMetrics(m))

	if current, err := service.Stock(ctx.Context); err == nil {
		m.SetStock(current)
	} else {
		logger.Warningf("Could not read prize stock: %v", err)
	}

	return &game{
		cfg:      cfg,
		service:  service,
		renderer: renderer,
		registry: registry,
		closeLog: closeLog,
	}, nil
}

func regenerateReport(ctx *cli.Context) error {
	g, err := setup(ctx)
	if err != nil {
		return err
	}
	defer g.closeLog()

	if err := g.service.RegenerateReport(ctx.Context); err != nil {
		return fmt.Errorf("regenerate report: %w", err)
	}
	fmt.Fprintf(ctx.App.Writer, "Report written to %s\n", g.renderer.Path())
	return nil
}

func printStats(ctx *cli.Context) error {
	g, err := setup(ctx)
	if err != nil {
		return err
	}
	defer g.closeLog()

	return writeStats(ctx.Context, ctx.App.Writer, g.service)
}

func writeStats(ctx context.Context, w io.Writer, service *services.GameService) error {
	stats, err := service.Stats(ctx)
	if err != nil {
		return err
	}
	prizes, err := service.Prizes(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Players:           %d\n", stats.TotalPlayers)
	fmt.Fprintf(w, "Winners:           %d\n", stats.Winners)
	fmt.Fprintf(w, "Win rate:          %.2f%%\n", stats.WinRate)
	fmt.Fprintf(w, "Most selected box: %d\n", stats.MostSelectedBox)
	for box := 1; box <= models.BoxCount; box++ {
		fmt.Fprintf(w, "  box %d:          %d\n", box, stats.BoxStats[box])
	}
	fmt.Fprintln(w, "Prize stock:")
	for _, p := range prizes {
		fmt.Fprintf(w, "  %-10s %3d / %d  %s\n", p.Key, p.Remaining, p.InitialStock, p.Name)
	}
	return nil
}
