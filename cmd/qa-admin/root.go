package main

import (
	"fmt"

	"github.com/qa-forum-api/internal/config"
	"github.com/qa-forum-api/internal/database"
	"github.com/qa-forum-api/internal/repository"
	"github.com/qa-forum-api/internal/service"
	"github.com/qa-forum-api/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var migrationsPath string

var rootCmd = &cobra.Command{
	Use:   "qa-admin",
	Short: "Operate the Q&A API database",
	Long: `Administrative tasks for the Q&A API: schema migrations, admin
bootstrap and bulk question import.

Configuration is read from the environment and an optional .env file,
the same way the server reads it.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "migrations", "",
		"Migrations directory (defaults to MIGRATIONS_PATH)")
}

// env is what every subcommand needs from configuration
type env struct {
	cfg *config.Config
	log zerolog.Logger
	db  *database.DB
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if migrationsPath != "" {
		cfg.Server.MigrationsPath = migrationsPath
	}

	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) services() (*service.Services, *repository.Repositories) {
	repos := repository.New(e.db)
	return service.NewServices(repos, e.cfg, e.log), repos
}

func (e *env) Close() {
	_ = e.db.Close()
}
