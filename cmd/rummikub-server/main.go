// cmd/rummikub-server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zsh28/Rummikub/internal/auth"
	"github.com/zsh28/Rummikub/internal/cache"
	"github.com/zsh28/Rummikub/internal/config"
	"github.com/zsh28/Rummikub/internal/database"
	"github.com/zsh28/Rummikub/internal/game"
	"github.com/zsh28/Rummikub/internal/ledger"
)

func main() {
	cfg := config.Load()
	cfg.ConfigureLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres is optional; without it games run in memory only.
	var escrow ledger.Escrow
	if cfg.DatabaseURL != "" {
		if err := database.Connect(ctx, cfg.DatabaseURL); err != nil {
			logrus.WithError(err).Fatal("database connection failed")
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			logrus.WithError(err).Fatal("database migration failed")
		}
		escrow = ledger.NewPostgres(database.DB, cfg.HouseWallet)
		logrus.Info("using postgres-backed escrow")
	} else {
		escrow = ledger.NewMemory(cfg.HouseWallet)
		logrus.Warn("no DATABASE_URL set, using in-memory escrow")
	}

	// Redis is optional; without it the action log is dropped.
	if cfg.RedisAddr != "" {
		if err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB); err != nil {
			logrus.WithError(err).Fatal("redis connection failed")
		}
		defer cache.Close()
		logrus.Info("action log connected to redis")
	} else {
		logrus.Warn("no REDIS_ADDR set, action log disabled")
	}

	authenticator, err := auth.New(cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		logrus.WithError(err).Fatal("authenticator init failed")
	}

	manager := game.NewManager(escrow, cfg.EntryFee)
	server := &game.Server{Manager: manager, Auth: authenticator}

	mux := http.NewServeMux()
	server.Routes(mux)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", cfg.ListenAddr).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("shutdown error")
	}
}
