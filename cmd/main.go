package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/island-troll-tribes/stats-service/config"
	"github.com/island-troll-tribes/stats-service/handlers"
	"github.com/island-troll-tribes/stats-service/live"
	"github.com/island-troll-tribes/stats-service/metrics"
	"github.com/island-troll-tribes/stats-service/repositories"
	api "github.com/island-troll-tribes/stats-service/routes"
	"github.com/island-troll-tribes/stats-service/services"
	"github.com/island-troll-tribes/stats-service/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx := context.Background()

	firestoreClient, err := repositories.Connect(ctx, cfg.FirestoreProjectID)
	if err != nil {
		logger.Error("failed to connect to Firestore", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := firestoreClient.Close(); err != nil {
			logger.Error("failed to close Firestore client", slog.Any("error", err))
		} else {
			logger.Info("Firestore client closed")
		}
	}()
	logger.Info("Firestore connection established", slog.String("project", cfg.FirestoreProjectID))

	// The replay archive is optional; the service runs fine without it and
	// the replay endpoints answer 503.
	var replayUploader storage.FileUploader
	if cfg.ReplayStorageConfigured() {
		replayUploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 replay uploader initialized")
	} else {
		logger.Info("replay storage not configured, replay endpoints disabled")
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry, "itt_stats")

	wsHub := live.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	gameRepo := repositories.NewFirestoreGameRepository(firestoreClient)
	playerRepo := repositories.NewFirestorePlayerRepository(firestoreClient)
	intentRepo := repositories.NewFirestoreIntentRepository(firestoreClient)
	logger.Info("repositories initialized")

	gameService := services.NewGameService(gameRepo, playerRepo, intentRepo, wsHub, cfg.Rating, cfg.ReconcileGrace, logger, m)
	playerService := services.NewPlayerService(gameRepo, playerRepo, cfg.PlayersDefaultLimit, cfg.PlayerSearchLimit, cfg.SearchMinQueryLen)
	classService := services.NewClassService(gameRepo, playerRepo, cfg.ClassTopPlayers)
	standingsService := services.NewStandingsService(gameRepo, playerRepo, cfg.StandingsDefaultLimit, cfg.StandingsMaxLimit)
	replayService := services.NewReplayService(gameService, replayUploader)
	logger.Info("services initialized")

	// Periodically replay rating intents that were written but never
	// marked applied, so a crash mid-apply cannot lose rating updates.
	go func() {
		ticker := time.NewTicker(cfg.ReconcileInterval)
		defer ticker.Stop()
		logger.Info("rating intent reconciliation scheduler started",
			slog.Duration("interval", cfg.ReconcileInterval),
			slog.Duration("grace", cfg.ReconcileGrace))

		for range ticker.C {
			replayed, err := gameService.ReconcilePendingIntents(context.Background())
			if err != nil {
				logger.Error("reconciliation sweep failed", slog.Any("error", err))
				continue
			}
			if replayed > 0 {
				logger.Info("reconciliation sweep replayed pending intents", slog.Int("count", replayed))
			}
		}
	}()

	gameHandler := handlers.NewGameHandler(gameService)
	playerHandler := handlers.NewPlayerHandler(playerService)
	classHandler := handlers.NewClassHandler(classService)
	standingsHandler := handlers.NewStandingsHandler(standingsService)
	replayHandler := handlers.NewReplayHandler(replayService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		registry,
		m,
		gameHandler,
		playerHandler,
		classHandler,
		standingsHandler,
		replayHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
