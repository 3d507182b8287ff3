package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/amanahapps/guardian/internal/guard/common/clock"
	"github.com/amanahapps/guardian/internal/guard/common/log"
	"github.com/amanahapps/guardian/internal/guard/config"
	"github.com/amanahapps/guardian/internal/guard/domain"
	"github.com/amanahapps/guardian/internal/guard/gateways/httpapi"
	"github.com/amanahapps/guardian/internal/guard/repos/audit"
	"github.com/amanahapps/guardian/internal/guard/repos/rulecache"
	"github.com/amanahapps/guardian/internal/guard/repos/rulestore"
	"github.com/amanahapps/guardian/internal/guard/services/classifier"
	"github.com/amanahapps/guardian/internal/guard/services/engine"
	"github.com/amanahapps/guardian/internal/guard/services/prayer"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "guardiand"

	// Default timeouts
	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the guard daemon
type Application struct {
	config *config.AppConfig
	cache  *rulecache.Cache
	writer *audit.Writer
	rules  *rulestore.Store
	audits *audit.SQLiteStore
	server *http.Server
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":         version,
		"env":             cfg.Env,
		"log_level":       cfg.LogLevel,
		"port":            cfg.Port,
		"data_dir":        cfg.DataDir,
		"refresh_seconds": cfg.RefreshSeconds,
		"method":          cfg.Method,
	}, "Starting guardian daemon")

	// Build application with all dependencies
	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Daemon failed")
	}

	log.Info(nil, "Guardian daemon stopped gracefully")
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	// Shared clock for consistent time across all components
	clk := &clock.RealClock{}

	// Logger is already configured globally
	logger := log.GetLogger()

	// Repository layer
	rules, err := rulestore.Open(filepath.Join(cfg.DataDir, "rules.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open rule store: %w", err)
	}

	audits, err := audit.OpenSQLite(context.Background(), filepath.Join(cfg.DataDir, "audit.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open audit store: %w", err)
	}

	cache := rulecache.New(rules, clk, logger)
	writer := audit.NewWriter(audits, cfg.AuditQueueSize, logger)

	// Service layer
	method, err := prayer.ParseMethod(cfg.Method)
	if err != nil {
		return nil, fmt.Errorf("invalid prayer method: %w", err)
	}
	school, err := prayer.ParseAsrSchool(cfg.AsrSchool)
	if err != nil {
		return nil, fmt.Errorf("invalid asr school: %w", err)
	}
	calc := prayer.NewCalculator(prayer.StaticLocation{Loc: domain.Location{
		Latitude:  cfg.Latitude,
		Longitude: cfg.Longitude,
		Timezone:  cfg.Timezone,
	}}, method, school)

	eng := engine.New(engine.Options{
		Cache:      cache,
		Classifier: classifier.New(cfg.ClassifierCacheSize, logger),
		Prayer:     calc,
		Audit:      writer,
		Titles:     audits,
		Clock:      clk,
		Logger:     logger,
	})

	// Gateway layer
	router := httpapi.NewRouter(httpapi.Options{
		Decider: eng,
		Audits:  audits,
		Rules:   rules,
		Pause:   calc,
		PauseMinutes: func() int {
			return cache.Read().Settings.PauseDurationMinutes
		},
		Logger: logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return &Application{
		config: cfg,
		cache:  cache,
		writer: writer,
		rules:  rules,
		audits: audits,
		server: server,
	}, nil
}

// Run starts the background loops and the HTTP gateway, then blocks until
// the context is cancelled or the server fails.
func (app *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	// Teardown order matters: stop the writer, wait for its final flush,
	// then close the stores.
	writerDone := make(chan struct{})
	defer app.close()
	defer func() { <-writerDone }()
	defer cancel()

	go app.cache.Run(ctx, time.Duration(app.config.RefreshSeconds)*time.Second)
	go func() {
		defer close(writerDone)
		app.writer.Run(ctx)
	}()

	errChan := make(chan error, 1)
	go func() {
		log.Info(map[string]any{"addr": app.server.Addr}, "HTTP gateway listening")
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errChan:
		return fmt.Errorf("http server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer shutdownCancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	return nil
}

func (app *Application) close() {
	if err := app.rules.Close(); err != nil {
		log.Error(map[string]any{"error": err.Error()}, "rule store close failed")
	}
	if err := app.audits.Close(); err != nil {
		log.Error(map[string]any{"error": err.Error()}, "audit store close failed")
	}
}
