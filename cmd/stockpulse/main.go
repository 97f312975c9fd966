// Package main is the entry point for the StockPulse API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stockpulse/internal/config"
	"stockpulse/internal/database"
	"stockpulse/internal/logging"
	"stockpulse/internal/mailer"
	"stockpulse/internal/market"
	"stockpulse/internal/migrations"
	"stockpulse/internal/monitor"
	"stockpulse/internal/news"
	"stockpulse/internal/server"
	"stockpulse/internal/startup"
	"stockpulse/internal/telemetry"
	"stockpulse/internal/version"
	"stockpulse/internal/worker"
)

func main() {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		if os.Getenv("DEBUG") == "true" {
			fmt.Fprintf(os.Stderr, "No .env file found or error loading it: %v\n", err)
		}
	}

	// Handle version flag before loading configuration
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-version" || os.Args[1] == "version") {
		versionInfo := version.Get()
		fmt.Printf("stockpulse version %s\n", versionInfo.Version)
		fmt.Printf("  commit: %s\n", versionInfo.Commit)
		fmt.Printf("  built: %s\n", versionInfo.BuildDate)
		fmt.Printf("  go: %s\n", versionInfo.GoVersion)
		fmt.Printf("  platform: %s\n", versionInfo.Platform)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// File logging only in development; production logs to stdout for the
	// process supervisor to capture
	isDevelopment := os.Getenv("STOCKPULSE_ENV") == "development" || os.Getenv("DEBUG") == "true"
	if isDevelopment {
		logDir := "./logs"
		if err := logging.Initialize(logDir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to initialize file logging: %v\n", err)
		} else {
			defer logging.Close()
			logging.Printf("Development logging initialized to %s", logDir)
		}
	}

	ctx := context.Background()
	shutdownTelemetry, err := telemetry.InitializeFromEnv(ctx)
	if err != nil {
		logging.Warning("Failed to initialize telemetry: %v", err)
	} else {
		defer func() {
			if err := shutdownTelemetry(ctx); err != nil {
				logging.Warning("Error shutting down telemetry: %v", err)
			}
		}()
	}

	if err := database.Initialize(cfg.DatabasePath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logging.Warning("Failed to close database: %v", err)
		}
	}()

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run wires the collaborators and hands control to the boot sequence.
func run(cfg *config.Config) error {
	marketClient := market.NewClient()

	var newsClient server.NewsFetcher
	if cfg.NewsAPIKey != "" {
		opts := []news.Option{}
		if cfg.SymbolAliasPath != "" {
			aliases, err := news.LoadAliases(cfg.SymbolAliasPath)
			if err != nil {
				return fmt.Errorf("failed to load symbol aliases: %w", err)
			}
			opts = append(opts, news.WithAliases(aliases))
		}
		newsClient = news.NewClient(cfg.NewsAPIKey, opts...)
	} else {
		logging.Warning("NEWS_API_KEY not set, news endpoint disabled")
	}

	mail := mailer.New(cfg)
	var sender worker.Sender
	if mail != nil {
		sender = mail
	}
	pool := worker.NewPool(worker.NewReportBuilder(marketClient, sender))

	bgMonitor, err := monitor.New()
	if err != nil {
		return fmt.Errorf("failed to set up background monitor: %w", err)
	}

	srv := server.New(cfg, server.Options{
		Fetcher:     marketClient,
		NewsClient:  newsClient,
		ReportQueue: pool,
		MailEnabled: mail != nil,
	})

	// Stop everything on SIGINT/SIGTERM and let Start return cleanly
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Printf("Received %s, shutting down", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warning("Server shutdown error: %v", err)
		}
		pool.Stop()
		bgMonitor.Stop()
	}()

	migrate := func() error {
		return migrations.Run(database.GetDB())
	}
	serve := func(addr string, workers int) error {
		pool.Start(workers)
		bgMonitor.Start()
		return srv.Start(addr)
	}

	return startup.New(cfg, migrate, serve).Run()
}
