package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Alexander-D-Karpov/sleeves/internal/config"
	"github.com/Alexander-D-Karpov/sleeves/internal/devserver"
	"github.com/Alexander-D-Karpov/sleeves/internal/logging"
	"github.com/Alexander-D-Karpov/sleeves/internal/reward"
)

var (
	configPath = flag.String("config", "", "Path to configuration file")
	addr       = flag.String("addr", "", "Listen address (default devserver.addr)")
	seed       = flag.Uint64("seed", 0, "Seed draws for reproducible runs; 0 uses a random source")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	listen := cfg.DevServer.Addr
	if *addr != "" {
		listen = *addr
	}

	engine := reward.NewEngine(reward.NewMathSource())
	if *seed != 0 {
		engine = reward.NewEngine(reward.NewSeededSource(*seed))
	}

	srv := devserver.NewServer(devserver.ServerConfig{
		Addr:           listen,
		Engine:         engine,
		StartingWallet: cfg.User.StartingWallet,
		Logger:         logger,
	})

	if err := srv.Run(); err != nil {
		logger.Fatal("dev backend", zap.Error(err))
	}
}
