package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/vci-pathogenicity-calculator/internal/api"
	"github.com/vci-pathogenicity-calculator/internal/cache"
	"github.com/vci-pathogenicity-calculator/internal/config"
	"github.com/vci-pathogenicity-calculator/internal/logging"
	"github.com/vci-pathogenicity-calculator/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.New(cfg.Logging, os.Stdout)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []service.Option{service.WithStrictValidation(cfg.Classifier.StrictValidation)}
	if cfg.Classifier.CacheEnabled {
		var cacheOpts []cache.Option
		if cfg.Redis.Enabled {
			store, err := cache.NewRedisStore(cfg.Redis, logger)
			if err != nil {
				logger.WithError(err).Fatal("Failed to create Redis result cache")
			}
			if err := store.Ping(ctx); err != nil {
				logger.WithError(err).Warn("Redis result cache unreachable, continuing with local cache")
			}
			cacheOpts = append(cacheOpts, cache.WithRedis(store))
		}

		resultCache, err := cache.New(cfg.Classifier.CacheSize, logger, cacheOpts...)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create result cache")
		}
		defer resultCache.Close()
		opts = append(opts, service.WithCache(resultCache))
	}

	classifier := service.NewClassifierService(logger, opts...)
	server := api.NewServer(configManager, classifier, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"strict":      cfg.Classifier.StrictValidation,
		"cache":       cfg.Classifier.CacheEnabled,
		"redis":       cfg.Redis.Enabled,
	}).Info("Starting VCI classifier server")

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}
