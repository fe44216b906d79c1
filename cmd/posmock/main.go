package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/posmock/posmock"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	config := posmock.DefaultConfig()
	if configURL := os.Getenv("POSMOCK_CONFIG_URL"); configURL != "" {
		if config, err = posmock.LoadConfig(ctx, configURL); err != nil {
			logger.Fatal("failed to load config", zap.Error(err))
		}
	}
	if addr := os.Getenv("POSMOCK_HTTP_ADDR"); addr != "" {
		config.HTTP.Addr = addr
	}

	options := []posmock.Option{posmock.WithLogger(logger)}
	if config.Tracing.Enabled {
		options = append(options, posmock.WithTracing("posmock", "1.0.0", config.Tracing.OutputFile))
	}

	service, err := posmock.New(config, options...)
	if err != nil {
		logger.Fatal("failed to initialise service", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              config.HTTP.Addr,
		Handler:           service.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("posmock listening", zap.String("addr", config.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}
