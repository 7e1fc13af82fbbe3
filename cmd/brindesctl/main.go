package main

import (
	"os"

	"go-brindes-ws/internal/app"
	"go-brindes-ws/internal/config"
	"go-brindes-ws/internal/repository"
	"go-brindes-ws/pkg/database"
	"go-brindes-ws/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	open := func() (*app.Services, error) {
		db, err := database.Connect(cfg.DBDriver, cfg.DatabaseURL, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := repository.Migrate(db); err != nil {
			return nil, err
		}
		return app.New(db, cfg, nil, nil, nil), nil
	}

	if err := newRootCmd(open).Execute(); err != nil {
		os.Exit(1)
	}
}
