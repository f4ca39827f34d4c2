package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"dineadmin/internal/amqp"
	"dineadmin/internal/auth"
	"dineadmin/internal/cli"
	apphttp "dineadmin/internal/http"
	"dineadmin/internal/log"
	"dineadmin/internal/middleware/ratelimit"
	"dineadmin/internal/realtime"
	"dineadmin/internal/report"
	"dineadmin/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := cli.LoadAndValidateConfig(log.Default())
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	hub := realtime.NewHub(logger)
	backend := cli.OpenBackend(ctx, logger, cfg, hub)
	defer func() {
		if err := backend.Cleanup(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()
	st := backend.Store

	if backend.Feed != nil {
		go func() {
			if err := backend.Feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Change feed stopped", log.FieldError, err)
			}
		}()
	}

	// Paid orders are queued for the sheet export when a broker is configured.
	var publisher *services.OrderSyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without sheet sync", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = services.NewOrderSyncPublisher(hub, st, amqpClient, logger)
			if err := publisher.Start(ctx); err != nil {
				logger.Error("Failed to start order sync publisher", log.FieldError, err)
				os.Exit(1)
			}
		}
	}

	loc := cfg.Location()
	reports := report.NewService(report.Sources{
		Orders:   st,
		Details:  st,
		Staff:    st,
		Tables:   st,
		Settings: st,
	}, loc, logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Reports:        reports,
		Admin:          services.NewAdminService(st, st, hub, logger),
		Auth:           auth.NewService(st, cfg.SessionTTL, logger),
		Hub:            hub,
		Logger:         logger,
		SessionTTL:     cfg.SessionTTL,
		ReportCacheTTL: cfg.ReportCacheTTL,
		RateLimit:      ratelimit.DefaultConfig(),
	})

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if publisher != nil {
			if err := publisher.Stop(shutdownCtx); err != nil {
				logger.Warn("Order sync publisher did not stop cleanly", log.FieldError, err)
			}
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting dineadmin server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"time_zone", loc.String(),
		"sheet_sync", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-stopped
	logger.Info("Server stopped gracefully")
}
