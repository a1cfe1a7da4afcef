// Package cli holds startup plumbing shared by the pesalens binaries.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pesalens/internal/config"
	applog "pesalens/internal/log"
	"pesalens/internal/storage"
)

// Bootstrap prepares what every binary needs before doing real work: the
// optional .env file, a process-wide logger and a validated configuration.
// Validation failures are fatal.
func Bootstrap(component string) (*applog.Logger, *config.Config) {
	_ = godotenv.Load()

	logger := applog.New(component, applog.Options{})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return logger, cfg
}

// OpenRepository opens the SQLite store, running migrations as needed. An
// unusable database is fatal.
func OpenRepository(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to open SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM. The
// cleanup callback, when set, runs before cancellation and gets at most
// timeout to finish.
func ShutdownContext(logger *applog.Logger, timeout time.Duration, cleanup func()) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigs
		logger.Info("Shutdown signal received", "signal", sig.String())

		if cleanup != nil {
			done := make(chan struct{})
			go func() {
				cleanup()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(timeout):
				logger.Warn("Cleanup timed out", "timeout", timeout)
			}
		}
		cancel()
	}()

	return ctx
}
