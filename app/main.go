package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/reddit-comb/app/api"
	"github.com/lysyi3m/reddit-comb/app/cfg"
	"github.com/lysyi3m/reddit-comb/app/config"
	"github.com/lysyi3m/reddit-comb/app/content"
	"github.com/lysyi3m/reddit-comb/app/database"
	"github.com/lysyi3m/reddit-comb/app/ingest"
	"github.com/lysyi3m/reddit-comb/app/reddit"
	"github.com/lysyi3m/reddit-comb/app/scraper"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting Reddit Comb", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	configCache := config.NewCache(appCfg.SubredditsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load subreddit definitions", "error", err)
		os.Exit(1)
	}
	slog.Info("Subreddit definitions loaded",
		"count", configCache.GetConfigCount(),
		"enabled", len(configCache.GetEnabledConfigs()))

	subredditRepo := database.NewSubredditRepository(db)
	postRepo := database.NewPostRepository(db)
	snapshotRepo := database.NewSnapshotRepository(db)
	scrapeLogRepo := database.NewScrapeLogRepository(db)

	registeredCount := 0
	for name, subCfg := range configCache.GetConfigs() {
		if err := subredditRepo.Register(name, subCfg.Settings.Enabled); err != nil {
			slog.Warn("Failed to register subreddit", "subreddit", name, "error", err)
			continue
		}
		registeredCount++
	}
	slog.Info("Subreddits registered", "count", registeredCount)

	httpClient := &http.Client{
		Timeout: time.Duration(appCfg.RequestTimeout) * time.Second,
	}

	client := reddit.NewClient(httpClient, reddit.DefaultBaseURL, appCfg.UserAgent)
	ingestor := ingest.NewIngestor(postRepo, snapshotRepo, appCfg.SnapshotUnchanged)

	feedScraper := scraper.NewScraper(client, ingestor, subredditRepo, scrapeLogRepo, configCache,
		time.Duration(appCfg.RequestInterval)*time.Millisecond,
		time.Duration(appCfg.SubredditDelay)*time.Millisecond,
		time.Duration(appCfg.RequestTimeout)*time.Second)

	processor := content.NewProcessor(httpClient, content.NewExtractor(), postRepo,
		appCfg.UserAgent, time.Duration(appCfg.RequestTimeout)*time.Second, appCfg.ExtractBatch)

	scheduler := scraper.NewScheduler(feedScraper, processor)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Scheduler started",
		"hot_interval", time.Duration(appCfg.HotInterval)*time.Second,
		"top_interval", time.Duration(appCfg.TopInterval)*time.Second,
		"extract_content", appCfg.ExtractContent)

	handler := api.NewHandler(configCache, subredditRepo, postRepo, snapshotRepo, scrapeLogRepo, feedScraper)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server started", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
