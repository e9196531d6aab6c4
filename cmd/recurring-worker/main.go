package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"tally/internal/amqp"
	"tally/internal/cli"
	"tally/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := cli.InitBackend(ctx, logger, cfg)

	// AMQP is optional here. Created transactions still stale snapshots in
	// the store, the message only speeds up the refresh.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change notifications", "error", err)
			amqpClient = nil
		} else {
			logger.Info("AMQP client initialized")
		}
	}

	ledger := services.NewLedgerService(result.Backend, amqpClient, result.Cleanup)
	defer ledger.Close()

	processor := services.NewRecurringProcessor(result.Recurring, ledger)

	logger.Info("Recurring series processor configured",
		"interval", cfg.RecurringInterval,
		"backend", cfg.DataBackend)

	logger.Info("Running initial recurring series processing...")
	if count, err := processor.ProcessDueSeries(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", "error", err)
	} else {
		logger.Info("Initial processing complete", "transactions_created", count)
	}

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Recurring-worker shutdown complete")
			return
		case now := <-ticker.C:
			count, err := processor.ProcessDueSeries(ctx, now)
			if err != nil {
				logger.Error("Periodic processing failed", "error", err)
			} else {
				logger.Info("Periodic processing complete",
					"transactions_created", count,
					"next_check", now.Add(cfg.RecurringInterval).Format("15:04:05"))
			}
		}
	}
}
