package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"livechart/config"
	"livechart/internal/app"
	"livechart/logger"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: search ../config next to the binary)")
	flag.Parse()

	// viper config
	var cfg *config.Config
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			panic("failed to load config: " + err.Error())
		}
	} else {
		cfg = config.Load()
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize", zap.Error(err))
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Error("livechart stopped", zap.Error(err))
		return
	}
	log.Info("livechart stopped")
}
