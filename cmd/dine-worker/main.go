package main

import (
	"context"
	"errors"
	"os"
	"time"

	"dineadmin/internal/amqp"
	"dineadmin/internal/cli"
	"dineadmin/internal/config"
	"dineadmin/internal/log"
	"dineadmin/internal/report"
	"dineadmin/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := cli.LoadAndValidateConfig(log.Default())
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting dine-worker")

	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Memory backend is not shared with the admin server, the worker will only see its own data")
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backend := cli.OpenBackend(ctx, logger, cfg, nil)
	defer func() {
		if err := backend.Cleanup(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()
	st := backend.Store

	sheetWriter, err := cli.OpenSheets(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	loc := cfg.Location()
	syncWorker := worker.NewSyncWorker(st, sheetWriter, loc, worker.DefaultBatchSize, logger)
	reports := report.NewService(report.Sources{
		Orders:   st,
		Details:  st,
		Staff:    st,
		Tables:   st,
		Settings: st,
	}, loc, logger)

	// On startup, export any paid orders that were missed while down
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	scheduler := worker.NewScheduler(loc, logger)
	if cfg.ReportSyncCron != "" {
		if err := scheduler.Add("order-sweep", cfg.ReportSyncCron, worker.SweepJob(syncWorker, time.Now)); err != nil {
			logger.Error("Failed to schedule order sweep", log.FieldError, err)
			os.Exit(1)
		}
	}
	if cfg.DayCloseCron != "" {
		if err := scheduler.Add("day-close", cfg.DayCloseCron, worker.DayCloseJob(reports, sheetWriter, time.Now)); err != nil {
			logger.Error("Failed to schedule day close", log.FieldError, err)
			os.Exit(1)
		}
	}
	scheduler.Start()

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			if err := amqpClient.ConsumeOrderSync(ctx, syncWorker.HandleOrderSync); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
				cancel()
			}
		}()
	} else {
		logger.Info("AMQP_URL not set, relying on the scheduled sweep only")
	}

	<-ctx.Done()

	logger.Info("Shutting down worker...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	scheduler.Stop(shutdownCtx)

	logger.Info("Worker shutdown complete")
}
