package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"hutang/internal/config"
	"hutang/internal/db"
	"hutang/internal/logging"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	_, cleanup, err := logging.Initialize(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if cfg.StoreDriver == config.StoreMemory {
		zap.L().Fatal("nothing to migrate, set STORE_DRIVER to postgres or sqlite3")
	}
	database, err := db.Connect(cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		zap.L().Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close()

	dir := filepath.Join(cfg.MigrationsDir, cfg.StoreDriver)
	applied, err := db.Migrate(context.Background(), database, os.DirFS(dir))
	if err != nil {
		zap.L().Fatal("migration failed", zap.String("dir", dir), zap.Strings("applied", applied), zap.Error(err))
	}
	zap.L().Info("migrations complete", zap.String("dir", dir), zap.Int("applied", len(applied)))
}
