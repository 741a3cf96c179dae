package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/artur/clipdrop/internal/config"
	"github.com/artur/clipdrop/internal/dashboard"
	"github.com/artur/clipdrop/internal/database"
	"github.com/artur/clipdrop/internal/database/repository"
	"github.com/artur/clipdrop/internal/logging"
	"github.com/artur/clipdrop/internal/server"
	"github.com/artur/clipdrop/internal/supervisor"
)

func main() {
	cfg, err := config.LoadDashboard()
	if err != nil {
		logger := logging.Logger()
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log := logging.Component("main")

	db, err := database.New(cfg.Store.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	// the bot may not have started yet; the report needs the tables either way
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	d := dashboard.New(repository.NewStore(db.DB))

	sup := supervisor.New("clipdrop-dashboard", supervisor.DefaultConfig())
	sup.Add(server.NewService("dashboard", server.NewHTTPServer(cfg.Address(), d.Routes())))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("addr", cfg.Address()).Str("db", cfg.Store.Path).Msg("dashboard started")

	if err := sup.Serve(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("supervisor stopped")
	}
	log.Info().Msg("dashboard stopped")
}
