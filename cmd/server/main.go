package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"devqa/internal/auth"
	"devqa/internal/config"
	"devqa/internal/db"
	"devqa/internal/router"
	"devqa/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.GinMode == gin.ReleaseMode {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.GinMode)

	database, err := db.Open(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		return err
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}

	revoker, closeRevoker, err := newRevoker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRevoker()

	avatars, err := newAvatarStorage(ctx, cfg)
	if err != nil {
		return err
	}

	engine, err := router.New(router.Dependencies{
		DB:      database,
		Config:  cfg,
		Issuer:  auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Revoker: revoker,
		Avatars: avatars,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "accept_mode", cfg.AcceptMode, "avatar_storage", cfg.AvatarStorage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRevoker uses redis when REDIS_URL is set, otherwise an in-process list.
func newRevoker(ctx context.Context, cfg config.Config) (auth.Revoker, func(), error) {
	if cfg.RedisURL == "" {
		revoker, err := auth.NewMemoryRevoker(10000)
		if err != nil {
			return nil, nil, err
		}
		slog.Warn("REDIS_URL not set, revoked tokens are kept in memory")
		return revoker, func() {}, nil
	}

	revoker, err := auth.NewRedisRevoker(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return revoker, func() { revoker.Close() }, nil
}

func newAvatarStorage(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	if cfg.AvatarStorage == "minio" {
		return storage.NewMinioStorage(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
	}
	return storage.NewLocalStorage(filepath.Join(cfg.UploadDir, "avatars"), "/uploads/avatars")
}
