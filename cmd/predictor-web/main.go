package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"yashubustudio/healthpredictor/internal/web"
	"yashubustudio/healthpredictor/predictor"
)

func main() {
	configPath := flag.String("config", "", "Path to config.json (default: ./config.json)")
	addr := flag.String("addr", "", "Listen address (overrides server.addr)")
	flag.Parse()

	if err := run(*configPath, *addr); err != nil {
		log.Fatalf("predictor-web: %v", err)
	}
}

func run(configPath, addr string) error {
	cfg, err := predictor.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	logger, err := predictor.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	metrics := predictor.NewMetrics()
	service, err := predictor.Open(cfg, logger, metrics)
	if err != nil {
		logger.Error("predictor init failed", zap.Error(err))
		return fmt.Errorf("init predictor: %w", err)
	}
	defer service.Close()

	handler, err := web.NewHandler(service, web.Options{
		Theme:   cfg.UI.Theme,
		Logger:  logger.Named("web"),
		Metrics: metrics.Handler(),
	})
	if err != nil {
		return fmt.Errorf("init handler: %w", err)
	}
	app := web.NewApp(handler)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("theme", cfg.UI.Theme))
	if err := app.Listen(cfg.Server.Addr); err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}
	logger.Info("server stopped")
	return nil
}
