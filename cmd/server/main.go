package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/ProductTable/internal/catalog"
	"github.com/JonMunkholm/ProductTable/internal/config"
	"github.com/JonMunkholm/ProductTable/internal/core"
	"github.com/JonMunkholm/ProductTable/internal/logging"
	"github.com/JonMunkholm/ProductTable/internal/metrics"
	"github.com/JonMunkholm/ProductTable/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"catalog_url", cfg.Catalog.URL,
		"locale", cfg.View.Locale,
		"text_sort", cfg.View.TextSort,
		"export_max_concurrent", cfg.Export.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	m := metrics.New(true)

	// The catalog is fetched exactly once, in the background; the UI shows
	// "Loading..." until it completes.
	client := catalog.NewClient(nil, catalog.ClientOptions{
		URL:          cfg.Catalog.URL,
		Timeout:      cfg.Catalog.Timeout,
		UserAgent:    cfg.Catalog.UserAgent,
		MaxBodyBytes: cfg.Catalog.MaxBodyBytes,
	})
	loader := catalog.NewLoader(client, m.CatalogLoaded)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	loader.Start(jobCtx)

	service := core.NewService(loader, core.Options{
		Locale:              cfg.View.Tag(),
		TextSort:            cfg.View.TextSort,
		SessionTTL:          cfg.Session.IdleTTL,
		ExportMaxConcurrent: cfg.Export.MaxConcurrent,
		ExportMaxWait:       cfg.Export.MaxWait,
		Recorder:            m,
	})

	go service.StartSessionJanitor(jobCtx, cfg.Session.SweepInterval)

	server := web.NewServer(service, cfg, m)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for in-flight exports before closing connections
		if status := service.Status().Exports; status.Active > 0 {
			slog.Info("waiting for exports to complete", "active", status.Active)
			if err := service.WaitForExports(shutdownCtx); err != nil {
				slog.Warn("exports did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Stop background jobs, including a catalog fetch still in flight
		cancelJobs()
	}()

	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
