// cmd/pinlogger/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/pinlogger/internal/config"
	"github.com/tamzrod/pinlogger/internal/httpapi"
	applogger "github.com/tamzrod/pinlogger/internal/logger"
	"github.com/tamzrod/pinlogger/internal/menu"
	"github.com/tamzrod/pinlogger/internal/mirror"
	"github.com/tamzrod/pinlogger/internal/pinlog"
	"github.com/tamzrod/pinlogger/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: pinlogger <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	logger, err := applogger.NewLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Acquisition service
	// --------------------

	svc, err := service.Build(cfg, logger)
	if err != nil {
		logger.Fatal("service build failed", zap.Error(err))
	}

	svc.Start(ctx)
	defer svc.Stop()

	// --------------------
	// Status mirror (optional)
	// --------------------

	if cfg.StatusMirror != nil {
		m, closeMirror, err := mirror.Build(cfg.StatusMirror, svc.Status, logger)
		if err != nil {
			logger.Fatal("status mirror build failed", zap.Error(err))
		}
		mirrorCtx, cancelMirror := context.WithCancel(ctx)
		defer func() {
			cancelMirror()
			_ = closeMirror()
		}()

		go m.Run(mirrorCtx)
	}

	// --------------------
	// HTTP API (optional)
	// --------------------

	if cfg.HTTP.Listen != "" {
		api := httpapi.NewHTTPServer(cfg.HTTP.Listen, svc, pinlog.FileStore{Path: cfg.Log.Path}, logger)

		go func() {
			if err := api.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server failed", zap.Error(err))
			}
		}()

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := api.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown failed", zap.Error(err))
			}
		}()
	}

	// --------------------
	// Foreground: menu or wait for a signal
	// --------------------

	if cfg.Service.Headless {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		return
	}

	if err := menu.Run(ctx, os.Stdin, os.Stdout, svc.Status, svc.Stop, menu.DefaultRefresh); err != nil {
		logger.Info("menu closed", zap.Error(err))
	}
}
