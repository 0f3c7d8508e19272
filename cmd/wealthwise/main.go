package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wealthwise/internal/amqp"
	"wealthwise/internal/cache"
	"wealthwise/internal/cli"
	apphttp "wealthwise/internal/http"
	"wealthwise/internal/insight"
	"wealthwise/internal/ledger"
	applog "wealthwise/internal/log"
	"wealthwise/internal/storage"
)

func main() {
	logger, cfg := cli.Bootstrap(applog.ComponentApp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remoteResult := cli.ConnectRemote(logger, cfg)

	localStore, err := storage.NewStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize local store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	// Prefer the durable queue for mirroring; fall back to inline mirroring
	// when no AMQP URL is configured.
	var mirror ledger.Mirror
	if remoteResult.Store != nil {
		if cfg.AMQPURL != "" {
			amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				logger.Error("Failed to initialize AMQP client", "error", err)
				os.Exit(1)
			}
			defer amqpClient.Close()
			mirror = ledger.NewQueueMirror(amqpClient)
			logger.Info("Mirroring through AMQP queue", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		} else {
			mirror = ledger.NewDirectMirror(remoteResult.Store)
			logger.Info("Mirroring directly to remote store")
		}
	}

	svc := ledger.NewService(localStore, remoteResult.Store, mirror)
	defer svc.Close()

	gateway, err := insight.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("Failed to initialize insight gateway", "error", err)
		os.Exit(1)
	}
	if !gateway.Enabled() {
		logger.Info("Insight generation disabled, no API key configured")
	}

	cacheManager := cache.NewManager()
	cacheManager.Register(svc.AggregateCache())
	cacheManager.StartCleanup(cfg.CacheCleanupInterval)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, svc, gateway, remoteResult.Sessions, logger)

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

	logger.Info("Starting wealthwise server",
		"port", cfg.Port,
		"remote_backend", cfg.RemoteBackend,
		"insights_enabled", gateway.Enabled())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
