// Package cli provides common initialization for the dineadmin binaries:
// cmd/dineadmin, cmd/dine-worker and cmd/dine-users.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dineadmin/internal/backend"
	"dineadmin/internal/config"
	"dineadmin/internal/log"
	"dineadmin/internal/realtime"
	"dineadmin/internal/sheets"
	gsheet "dineadmin/internal/sheets/google"
	"dineadmin/internal/sheets/memory"
)

// SetupLogger builds the text logger at level and installs it as the slog
// default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend opens the configured store, or exits the process on failure.
// Writes are published to hub when it is not nil.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config, hub *realtime.Hub) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(hub, logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// OpenSheets returns the Google Sheets writer when a spreadsheet is
// configured, and an in-memory writer otherwise.
func OpenSheets(ctx context.Context, logger *log.Logger, cfg *config.Config) (sheets.Writer, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled, keeping sheet rows in memory")
		return memory.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SalesSheet:      cfg.GoogleSalesSheetName,
		SummarySheet:    cfg.GoogleSummarySheetName,
		CredentialsFile: cfg.GoogleCredentialsFile,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
