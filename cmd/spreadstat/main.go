package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sanspareilsmyn/spreadstat/internal/config"
	"github.com/sanspareilsmyn/spreadstat/internal/logging"
	"github.com/sanspareilsmyn/spreadstat/internal/pipeline"
)

var configFile = flag.String("config", "configs/config.dev.yaml", "Path to the configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration from %s: %v\n", *configFile, err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync() // Flush buffered logs on exit
	}()

	sugar := logger.Sugar()
	sugar.Infow("Configuration loaded", "path", *configFile, "handler", cfg.Handler.Name)

	history, err := pipeline.LoadHistory(cfg.Handler.HistoryFile)
	if err != nil {
		sugar.Fatalw("Failed to load history snapshot", zap.Error(err))
	}
	sugar.Infow("History snapshot loaded", "path", cfg.Handler.HistoryFile, "size", len(history))

	pipe, err := pipeline.New(cfg, history, logger)
	if err != nil {
		sugar.Fatalw("Failed to initialize pipeline", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sugar.Info("Starting spread stat pipeline...")
	runErr := pipe.Run(ctx)

	finalLogLevel := zapcore.InfoLevel
	shutdownReason := "gracefully"
	finalErrorField := zap.Skip()

	switch {
	case runErr == nil, errors.Is(runErr, context.Canceled):
		sugar.Info("Pipeline stopped.")
	default:
		shutdownReason = "due to error"
		finalLogLevel = zapcore.ErrorLevel
		finalErrorField = zap.Error(runErr)
	}

	logger.Log(finalLogLevel, fmt.Sprintf("Pipeline shutdown %s.", shutdownReason),
		zap.String("reason", shutdownReason),
		finalErrorField,
	)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		_ = logger.Sync()
		os.Exit(1)
	}
}
