// Package main provides the MCP stdio entry point for the classifier.
// It needs no config file: settings come from VCI_* environment variables.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vci-pathogenicity-calculator/internal/cache"
	"github.com/vci-pathogenicity-calculator/internal/config"
	"github.com/vci-pathogenicity-calculator/internal/logging"
	"github.com/vci-pathogenicity-calculator/internal/mcp"
	"github.com/vci-pathogenicity-calculator/internal/service"
)

func main() {
	// Load lightweight configuration
	cfg := config.LoadLiteConfig()

	// stdout carries the protocol, so logs go to stderr
	logger := logging.New(cfg.Logging(), os.Stderr)

	opts := []service.Option{service.WithStrictValidation(cfg.StrictValidation)}
	if cfg.CacheEnabled {
		resultCache, err := cache.New(cfg.CacheSize, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create result cache")
		}
		defer resultCache.Close()
		opts = append(opts, service.WithCache(resultCache))
	}

	classifier := service.NewClassifierService(logger, opts...)
	server := mcp.NewServer(classifier,
		mcp.WithLogger(logger),
		mcp.WithImplementation(cfg.ServerName, cfg.ServerVersion),
	)

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	run := server.RunStdio
	if cfg.Transport == "http" {
		run = func(ctx context.Context) error { return server.RunHTTP(ctx, cfg.HTTPAddr) }
	}

	if err := run(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("MCP server failed")
		os.Exit(1)
	}

	logger.Info("Classifier MCP server stopped")
}
