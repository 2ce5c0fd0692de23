package domain

import (
	"context"
)

// Classifier turns a curated evaluation set into a classification
type Classifier interface {
	Classify(ctx context.Context, evaluations []Evaluation) (*Classification, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetClassifierConfig() *ClassifierConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
