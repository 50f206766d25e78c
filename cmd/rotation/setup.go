package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/newthinker/rotation/internal/backtest"
	"github.com/newthinker/rotation/internal/config"
	"github.com/newthinker/rotation/internal/dataload"
	"github.com/newthinker/rotation/internal/logger"
	"github.com/newthinker/rotation/internal/metrics"
	"github.com/newthinker/rotation/internal/storage/source"
	"go.uber.org/zap"
)

// loadConfig reads --config, or falls back to defaults.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Defaults(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if debug {
		return logger.New("debug", true)
	}
	return logger.New(cfg.Log.Level, cfg.Log.Development)
}

func newStorage(cfg config.DataConfig) (source.Storage, error) {
	switch cfg.Source {
	case "s3":
		return source.NewS3(source.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return source.NewLocalFS(cfg.Dir)
	}
}

// newLoader wires the panel loader. reg may be nil.
func newLoader(cfg *config.Config, log *zap.Logger, reg *metrics.Registry) (*dataload.Loader, error) {
	storage, err := newStorage(cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("opening %s source: %w", cfg.Data.Source, err)
	}

	opts := []dataload.Option{
		dataload.WithLogger(log),
		dataload.WithCache(dataload.NewCache(cfg.Data.CacheSize)),
	}
	if reg != nil {
		opts = append(opts, dataload.WithObserver(reg))
	}
	return dataload.New(storage, cfg.Data.Files(), opts...), nil
}

// runStrategy loads the panels and runs one backtest.
func runStrategy(ctx context.Context, cfg *config.Config, strategy backtest.StrategyConfig, log *zap.Logger) (*backtest.Result, error) {
	loader, err := newLoader(cfg, log, nil)
	if err != nil {
		return nil, err
	}
	set, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return backtest.New(log).Run(ctx, set, strategy)
}

// colorOutput reports whether stdout is an interactive terminal.
func colorOutput(noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}
