package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"giveaway-bot/internal/bot"
	"giveaway-bot/internal/common/config"
	"giveaway-bot/internal/common/logger"
	sqliterepo "giveaway-bot/internal/features/giveaway/repository/sqlite"
	"giveaway-bot/internal/features/giveaway/service"
	apphttp "giveaway-bot/internal/http"
	"giveaway-bot/internal/platform/db"
	"giveaway-bot/internal/platform/telegram"
	"giveaway-bot/internal/platform/timer"
)

func main() {
	// Cancellable root context for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	logger.Init("giveaway-bot", cfg.Debug)
	logger.Info().Bool("debug", cfg.Debug).Msg("Starting giveaway bot")

	sqlDB, err := db.Open(ctx, cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer sqlDB.Close()

	client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Debug)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}

	repo := sqliterepo.NewSQLiteRepository(sqlDB)
	timers := timer.New()

	scheduler := service.NewScheduler(repo, timers, client, cfg.Telegram.ChannelID, cfg.Telegram.ChannelUsername)
	registration := service.NewRegistration(repo)
	finalizer := service.NewFinalizer(repo, scheduler, client, cfg.Telegram.ChannelID)
	broadcaster := service.NewBroadcaster(repo, client)

	// Rebuild the timer schedule from persisted deadlines before any new
	// commands are accepted.
	if err := scheduler.Recover(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Recovery scan failed")
	}

	probes := apphttp.NewServer(cfg.Server.Port, cfg.Debug)
	go func() {
		logger.Info().Str("addr", probes.Addr).Msg("Probe server listening")
		if err := probes.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Probe server failed")
		}
	}()

	b := bot.New(cfg, client, scheduler, registration, finalizer, broadcaster, repo)

	logger.Info().Msg("Accepting updates")
	if err := b.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Update loop exited")
	}

	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := probes.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Probe server forced to shut down")
	}

	// Wait for in-flight timer callbacks before closing the store.
	timers.Stop()

	logger.Info().Msg("Stopped")
}
