package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artur/clipdrop/internal/bot"
	"github.com/artur/clipdrop/internal/config"
	"github.com/artur/clipdrop/internal/database"
	"github.com/artur/clipdrop/internal/database/repository"
	"github.com/artur/clipdrop/internal/downloader"
	"github.com/artur/clipdrop/internal/handler"
	"github.com/artur/clipdrop/internal/logging"
	"github.com/artur/clipdrop/internal/platform"
	"github.com/artur/clipdrop/internal/server"
	"github.com/artur/clipdrop/internal/supervisor"
)

const drainTimeout = 2 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := logging.Logger()
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log := logging.Component("main")

	db, err := database.New(cfg.Store.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	store := repository.NewStore(db.DB)

	fetcher := downloader.NewFetcher(cfg.Download.Dir, cfg.Download.MaxFileSize, downloader.NewYtdlpExtractor(cfg.Download.YtdlpPath))
	if cfg.Download.YouTubeBackend == config.BackendNative {
		fetcher.Use(platform.YouTube, downloader.NewYouTubeExtractor())
	}

	b, err := bot.New(cfg.Token, cfg.AdminID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}

	b.RegisterHandler(handler.NewStartHandler(store))
	b.RegisterHandler(handler.NewHelpHandler())
	b.RegisterHandler(handler.NewStatsHandler(store))
	b.RegisterHandler(handler.NewLinkHandler(store, fetcher, fetcher.MaxSize()))

	sup := supervisor.New("clipdrop", supervisor.DefaultConfig())
	sup.Add(b)
	sup.Add(server.New(cfg.Address()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b.SendStartupNotification()

	log.Info().
		Str("addr", cfg.Address()).
		Str("download_dir", cfg.Download.Dir).
		Str("youtube_backend", cfg.Download.YouTubeBackend).
		Msg("bot started")

	if err := sup.Serve(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("supervisor stopped")
	}

	log.Info().Msg("waiting for in-flight downloads")
	if !b.Wait(drainTimeout) {
		log.Warn().Dur("timeout", drainTimeout).Msg("in-flight downloads did not finish")
	}
	log.Info().Msg("bot stopped")
}
