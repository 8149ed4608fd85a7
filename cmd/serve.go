package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mysterybox/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const janitorInterval = 10 * time.Minute

func serve(ctx *cli.Context) error {
	g, err := setup(ctx)
	if err != nil {
		return err
	}
	defer g.closeLog()

	if g.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Regenerate the report on boot so downloads work before the first entry.
	if !g.renderer.Exists() {
		if err := g.service.RegenerateReport(ctx.Context); err != nil {
			logger.Warningf("Initial report generation failed: %v", err)
		}
	}

	// 1. Initialize the HTTP handler and router
	limiter := handlers.NewRateLimiter(g.cfg.Server.RateLimit.Requests, g.cfg.Server.RateLimit.Window)
	httpHandler := handlers.NewHTTPHandler(g.service, g.renderer, g.cfg.Server.Environment)
	router := handlers.NewRouter(httpHandler, limiter, g.registry)

	// 2. Wrap with CORS and build the server
	origins := g.cfg.Origins()
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", g.cfg.Server.Port),
		Handler:           handlers.WithCORS(router, origins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	group, groupCtx := errgroup.WithContext(runCtx)

	// 3. Start the background janitor to forget idle rate-limit clients
	group.Go(func() error {
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if n := limiter.CleanUpInactiveVisitors(g.cfg.Server.RateLimit.Window); n > 0 {
					logger.Infof("Removed %d idle rate limit entries", n)
				}
			}
		}
	})

	// 4. Run the server
	group.Go(func() error {
		logger.Infof("Server starting on http://localhost:%d (%s)", g.cfg.Server.Port, g.cfg.Server.Environment)
		logger.Infof("Allowed origins: %v", origins)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	})

	// 5. Shut down gracefully on signal
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), g.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
