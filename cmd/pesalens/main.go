package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pesalens/internal/amqp"
	"pesalens/internal/analysis"
	"pesalens/internal/cli"
	"pesalens/internal/core"
	apphttp "pesalens/internal/http"
	"pesalens/internal/services"
)

func main() {
	logger, cfg := cli.Bootstrap("pesalens")
	repo := cli.OpenRepository(logger, cfg.SQLiteDBPath)

	// The queue is optional for the API: ingestion still works without it,
	// analysis jobs just wait for the worker's catch-up sweep.
	var publisher services.JobPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, analysis jobs will not be queued", "error", err)
	} else {
		publisher = amqpClient
	}

	opts := analysis.Options{
		LargeInflow:        core.Shillings(cfg.LargeInflowShillings),
		LargeWithdrawal:    core.Shillings(cfg.LargeWithdrawShillings),
		RecurringPrefixLen: cfg.RecurringPrefixLen,
	}
	svc := services.NewAnalyzerService(repo, publisher, opts)
	defer svc.Close()

	srv := apphttp.NewServer(":"+cfg.Port, svc, repo)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting pesalens server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
