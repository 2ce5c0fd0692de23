// Package config provides configuration management for the classifier binaries.
// This file contains the environment-only configuration used by the MCP stdio server.
package config

import (
	"os"
	"strconv"

	"github.com/vci-pathogenicity-calculator/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It reads nothing but environment variables.
type LiteConfig struct {
	// Classifier settings
	StrictValidation bool // Reject evaluation sets with error-level issues
	CacheEnabled     bool // Memoise classification results
	CacheSize        int  // Maximum memoised results

	// MCP identity and transport
	ServerName    string
	ServerVersion string
	Transport     string // Transport type: stdio, http
	HTTPAddr      string // Listen address for the http transport

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	return &LiteConfig{
		CacheEnabled:  true,
		CacheSize:     1024,
		ServerName:    "vci-classifier",
		ServerVersion: "1.0.0",
		Transport:     "stdio",
		HTTPAddr:      ":8081",
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set or unparsable.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	// Classifier settings
	if v := os.Getenv("VCI_STRICT_VALIDATION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.StrictValidation = b
		}
	}
	if v := os.Getenv("VCI_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CacheEnabled = b
		}
	}
	if v := os.Getenv("VCI_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheSize = n
		}
	}

	// MCP identity
	if v := os.Getenv("VCI_MCP_SERVER_NAME"); v != "" {
		cfg.ServerName = v
	}
	if v := os.Getenv("VCI_MCP_SERVER_VERSION"); v != "" {
		cfg.ServerVersion = v
	}
	if v := os.Getenv("VCI_MCP_TRANSPORT"); v == "stdio" || v == "http" {
		cfg.Transport = v
	}
	if v := os.Getenv("VCI_MCP_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}

	// Logging
	if v := os.Getenv("VCI_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("VCI_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// Logging returns the logging section in the shape the logger expects.
func (c *LiteConfig) Logging() domain.LoggingConfig {
	return domain.LoggingConfig{Level: c.LogLevel, Format: c.LogFormat}
}

// Classifier returns the classifier section in the shape the service expects.
func (c *LiteConfig) Classifier() domain.ClassifierConfig {
	return domain.ClassifierConfig{
		StrictValidation: c.StrictValidation,
		CacheEnabled:     c.CacheEnabled,
		CacheSize:        c.CacheSize,
	}
}
