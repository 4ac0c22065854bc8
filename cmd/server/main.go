/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the calendar engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, optional YAML file, env overrides)
  2. Build the zap logger
  3. Open the SQLite store
  4. Seed the directory (unless disabled)
  5. Wire engine, handler and router
  6. Start the server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Path to a YAML config file (optional; defaults apply)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (configurable timeout)
  3. Close the database connection
  4. Exit

EXAMPLES:
  # Run with defaults (calendar.db, port 8080, current year)
  ./server

  # Run with a config file
  ./server -config=/etc/calendar-engine/config.yaml

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/calendar-engine/api"
	"github.com/warp/calendar-engine/config"
	"github.com/warp/calendar-engine/directory"
	"github.com/warp/calendar-engine/engine"
	"github.com/warp/calendar-engine/obs"
	"github.com/warp/calendar-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	store, err := sqlite.New(cfg.Store.Path)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	dir := directory.New()
	if cfg.Rules.SeedDirectory {
		dir = directory.Seed()
	}

	quotas := engine.NewQuotas(cfg.Rules.VacationDays, cfg.Rules.ExtraDays)
	eng := engine.New(dir, store, cfg.Rules.Year, quotas)

	obs.Init()
	handler := api.NewHandler(eng)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.Int("year", cfg.Rules.Year),
			zap.String("db", cfg.Store.Path),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownWindow())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
