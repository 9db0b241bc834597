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

	"github.com/zyjarge/podcast-studio/app/api"
	"github.com/zyjarge/podcast-studio/app/assets"
	"github.com/zyjarge/podcast-studio/app/cfg"
	"github.com/zyjarge/podcast-studio/app/database"
	"github.com/zyjarge/podcast-studio/app/ingest"
	"github.com/zyjarge/podcast-studio/app/llm"
	"github.com/zyjarge/podcast-studio/app/pipeline"
	"github.com/zyjarge/podcast-studio/app/sequencer"
	"github.com/zyjarge/podcast-studio/app/tasks"
	"github.com/zyjarge/podcast-studio/app/tts"
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

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Podcast Studio server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	sourceRepo := database.NewSourceRepository(db)
	newsRepo := database.NewNewsRepository(db)
	episodeRepo := database.NewEpisodeRepository(db)
	linkRepo := database.NewLinkRepository(db)
	segmentRepo := database.NewSegmentRepository(db)

	assetCache := assets.NewCache(appCfg.AssetsFile)
	if err := assetCache.Run(); err != nil {
		slog.Error("Failed to load asset library", "file", appCfg.AssetsFile, "error", err)
		os.Exit(1)
	}

	generationTimeout := time.Duration(appCfg.GenerationTimeout) * time.Second

	scriptClient := llm.NewClient(appCfg.DeepSeekAPIKey,
		llm.WithBaseURL(appCfg.DeepSeekBaseURL),
		llm.WithModel(appCfg.DeepSeekModel),
		llm.WithHTTPClient(&http.Client{Timeout: generationTimeout}))

	speechClient := tts.NewClient(appCfg.MiniMaxAPIKey, appCfg.AudioDir,
		tts.WithBaseURL(appCfg.MiniMaxBaseURL),
		tts.WithHTTPClient(&http.Client{Timeout: generationTimeout}))

	engine := pipeline.NewEngine(episodeRepo, linkRepo, newsRepo, segmentRepo,
		scriptClient, speechClient, appCfg.DefaultVoiceID, generationTimeout)

	seq := sequencer.NewService(segmentRepo, linkRepo, newsRepo, assetCache)

	httpClient := &http.Client{Timeout: time.Duration(appCfg.FetchTimeout) * time.Second}
	parser := ingest.NewParser()
	extractor := ingest.NewContentExtractor()

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval_seconds", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(sourceRepo, newsRepo, httpClient, parser, extractor, engine)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(sourceRepo, newsRepo, episodeRepo, linkRepo,
		engine, seq, assetCache, scheduler, httpClient, parser, extractor, appCfg.UserAgent)
	server := api.NewServer(handler, appCfg.APIAccessKey, appCfg.AudioDir)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "auth_enabled", appCfg.APIAccessKey != "")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
