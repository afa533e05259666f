package main

import (
	"context"
	"os"
	"time"

	"budget/internal/cli"
	apphttp "budget/internal/http"
	"budget/internal/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	logger.Info("Starting budget server", "port", cfg.Port, "backend", cfg.DataBackend)

	backend := cli.InitStore(context.Background(), logger, cfg)
	svc := cli.InitServices(logger, cfg, backend.Store)

	hub := apphttp.NewHub(logger)
	svc.Notifier.Subscribe(hub.Broadcast)

	srv := apphttp.NewServer(apphttp.ServerConfig{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	}, apphttp.Deps{
		Transactions: svc.Transactions,
		Budgets:      svc.Budgets,
		BudgetView:   svc.BudgetView,
		Goals:        svc.Goals,
		Dashboard:    svc.Dashboard,
		Assistant:    svc.Assistant,
		Store:        backend.Store,
		Hub:          hub,
	}, logger)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		svc.Close()
		if err := backend.Cleanup(); err != nil {
			logger.Error("Failed to close data backend", log.FieldError, err)
		}
	})

	logger.Info("Server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server failed to start", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
