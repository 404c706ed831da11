package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"edupredict/config"
	"edupredict/db"
	"edupredict/logging"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.Locate("config.yaml"), "config file")
	datasetPath := flag.String("dataset", "", "dataset CSV (overrides dataset.path)")
	modelPath := flag.String("model_path", "", "artifact output path (overrides model.path)")
	testRatio := flag.Float64("test_ratio", 0, "test partition ratio (overrides training.test_ratio)")
	seed := flag.Int64("seed", 0, "random seed (overrides training.seed)")
	c := flag.Float64("c", 0, "SVC regularisation C (overrides training.c)")
	watch := flag.Bool("watch", false, "retrain whenever the dataset file changes")
	flag.Parse()

	cfg, found, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dataset":
			cfg.Dataset.Path = *datasetPath
		case "model_path":
			cfg.Model.Path = *modelPath
		case "test_ratio":
			cfg.Training.TestRatio = *testRatio
		case "seed":
			cfg.Training.Seed = seed
		case "c":
			cfg.Training.C = *c
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
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

	var store *db.Store
	if cfg.History.Enabled {
		store, err = db.Open(cfg.History.DBPath)
		if err != nil {
			logger.Fatal("failed to open history database", zap.Error(err))
		}
		defer store.Close()
	}
	trainer := &trainer{cfg: cfg, store: store, logger: logger}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := trainer.trainOnce(ctx)
	if err != nil {
		logger.Error("training failed", zap.Error(err))
		if !*watch {
			stop()
			os.Exit(1)
		}
	} else {
		printSummary(os.Stdout, result, cfg.Model.Path)
	}

	if *watch {
		if err := trainer.watch(ctx); err != nil {
			logger.Error("watch stopped", zap.Error(err))
			stop()
			os.Exit(1)
		}
	}
}
