package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"hutang/internal/config"
	"hutang/internal/db"
	"hutang/internal/handlers"
	"hutang/internal/logging"
	"hutang/internal/seed"
	"hutang/internal/services"
	"hutang/internal/session"
	"hutang/internal/store"
	"hutang/internal/websocket"
	"hutang/internal/worker"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger, cleanup, err := logging.Initialize(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users, hutangs, closeStore, err := openStores(ctx, cfg)
	if err != nil {
		zap.L().Fatal("failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	sessionStore, closeSessions, err := openSessions(cfg)
	if err != nil {
		zap.L().Fatal("failed to open session store", zap.String("driver", cfg.SessionDriver), zap.Error(err))
	}
	defer closeSessions()

	manager := session.NewManager(sessionStore, cfg.SessionSecret, cfg.SessionTTL)
	hub := websocket.NewHub()
	authService := services.NewAuthService(users, manager)
	hutangService := services.NewHutangService(users, hutangs, hub)

	if cfg.SeedFile != "" {
		fixture, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			zap.L().Fatal("failed to load seed fixture", zap.Error(err))
		}
		if _, err := seed.Apply(ctx, fixture, authService, hutangService); err != nil {
			zap.L().Fatal("failed to apply seed fixture", zap.Error(err))
		}
	}

	go worker.NewSweeper(hutangService, cfg.OverdueSweepInterval, logger.Named("sweeper")).Run(ctx)

	handler := handlers.New(cfg, authService, hutangService, manager, hub, logger)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zap.L().Info("hutang API listening",
			zap.String("addr", server.Addr),
			zap.String("store", cfg.StoreDriver),
			zap.String("sessions", cfg.SessionDriver),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("shutdown error", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg config.Config) (store.UserRepository, store.HutangRepository, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		return store.NewMemoryUserStore(), store.NewMemoryHutangStore(), func() {}, nil
	}
	database, err := db.Connect(cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.AutoMigrate {
		if _, err := db.Migrate(ctx, database, os.DirFS(filepath.Join(cfg.MigrationsDir, cfg.StoreDriver))); err != nil {
			database.Close()
			return nil, nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	bindType := sqlx.BindType(database.DriverName())
	users := store.NewUserStore(database, bindType)
	hutangs := store.NewHutangStore(database, db.NewTxRunner(database), bindType)
	return users, hutangs, func() { database.Close() }, nil
}

func openSessions(cfg config.Config) (session.Store, func(), error) {
	if cfg.SessionDriver != config.SessionRedis {
		return session.NewMemoryStore(), func() {}, nil
	}
	client, err := session.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisStore(client), func() { client.Close() }, nil
}
