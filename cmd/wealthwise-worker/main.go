package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wealthwise/internal/amqp"
	"wealthwise/internal/cli"
	applog "wealthwise/internal/log"
	"wealthwise/internal/worker"
)

func main() {
	logger, cfg := cli.Bootstrap(applog.ComponentWorker)

	logger.Info("Starting wealthwise-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the mirror worker")
		os.Exit(1)
	}

	remoteResult := cli.ConnectRemote(logger, cfg)
	if remoteResult.Store == nil {
		logger.Error("Mirror worker requires a remote backend", "backend", cfg.RemoteBackend)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mirrorWorker := worker.NewMirrorWorker(remoteResult.Store)

	go func() {
		err := amqpClient.ConsumeMirror(ctx, func(msg *amqp.MirrorMessage) error {
			return mirrorWorker.HandleMirrorMessage(ctx, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
		cancel()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Shutting down worker...")
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
