package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Alexander-D-Karpov/sleeves/internal/app"
	"github.com/Alexander-D-Karpov/sleeves/internal/config"
	"github.com/Alexander-D-Karpov/sleeves/internal/logging"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	baseURL     = flag.String("api", "", "Override api.base_url")
	metricsAddr = flag.String("metrics", "", "Serve prometheus metrics on this address")
	Version     = "dev"
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if *debug {
		cfg.Debug = true
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	logger, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("configuration loaded",
		zap.String("version", Version),
		zap.String("api", cfg.API.BaseURL),
		zap.Bool("cache_catalog", cfg.Storage.CacheCatalog),
		zap.String("database", cfg.Storage.DatabasePath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleevesApp, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("create app", zap.Error(err))
	}
	defer sleevesApp.Close()

	setupGracefulShutdown(cancel, logger)

	shell := NewShell(sleevesApp.Gacha(), os.Stdin, os.Stdout)
	if err := shell.Run(ctx); err != nil {
		logger.Error("shell", zap.Error(err))
	}
}

func setupGracefulShutdown(cancel context.CancelFunc, logger *zap.Logger) {
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		sig := <-c
		logger.Debug("received signal", zap.String("signal", sig.String()))
		cancel()
		_ = os.Stdin.Close()
	}()
}
