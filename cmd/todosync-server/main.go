// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dotodo/go-todosync/internal/config"
	server "github.com/dotodo/go-todosync/internal/todosync"
	"github.com/dotodo/go-todosync/todosync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Invalid database URL", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = 20
	poolCfg.MinConns = 2
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("Failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("Database unreachable", "error", err)
		os.Exit(1)
	}

	service, err := todosync.NewSyncService(pool, &todosync.ServiceConfig{
		AppName:            "todosync-server",
		MaxUploadBatchSize: cfg.MaxUploadBatchSize,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize sync service", "error", err)
		os.Exit(1)
	}
	defer service.Close()

	if cfg.TombstoneRetentionDays > 0 {
		sweeper, err := todosync.NewRetentionSweeper(pool, logger, service.Clock(), cfg.TombstoneRetentionDays)
		if err != nil {
			logger.Error("Failed to configure retention sweeper", "error", err)
			os.Exit(1)
		}
		if err := sweeper.Start(); err != nil {
			logger.Error("Failed to start retention sweeper", "error", err)
			os.Exit(1)
		}
		defer sweeper.Stop()
	}

	jwtAuth := todosync.NewJWTAuth(cfg.JWTSecret)
	handler := server.NewServer(service, jwtAuth, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Sync server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
	}

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}
