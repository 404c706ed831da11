package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edupredict/config"
	"edupredict/db"
	apphttp "edupredict/http"
	"edupredict/logging"
	"edupredict/predictor"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.Locate("config.yaml"), "config file")
	flag.Parse()

	// 1. Load config
	cfg, found, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	if !found {
		logger.Warn("config file not found, using defaults", zap.String("path", *configPath))
	}

	// 2. Initialize history database
	var store *db.Store
	var history predictor.History
	var historyReader apphttp.HistoryReader
	if cfg.History.Enabled {
		store, err = db.Open(cfg.History.DBPath)
		if err != nil {
			logger.Fatal("failed to open history database", zap.Error(err))
		}
		defer store.Close()
		history, historyReader = store, store
		logger.Info("history database initialized", zap.String("path", cfg.History.DBPath))
	}

	// 3. Load the model once; an unavailable model still serves the form
	// with predictions disabled.
	service, err := predictor.NewService(cfg.Model.Path, predictor.Options{
		CacheSize: *cfg.Predictor.CacheSize,
		Logger:    logger,
		History:   history,
	})
	if err != nil {
		logger.Fatal("failed to build predictor", zap.Error(err))
	}
	service.State()

	// 4. Start HTTP server
	handlers := apphttp.NewHandlers(apphttp.HandlersConfig{
		Predictor: service,
		History:   historyReader,
		Logger:    logger,
		Locale:    cfg.Locale,
	})
	server := apphttp.NewServer(apphttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
	}, handlers, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	failed := false
	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
			failed = true
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
	if failed {
		logger.Sync()
		store.Close()
		os.Exit(1)
	}
}
