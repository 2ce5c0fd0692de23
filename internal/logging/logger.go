// Package logging builds the logrus loggers shared by every binary.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/vci-pathogenicity-calculator/internal/domain"
)

// New creates a logger from configuration writing to out, or stderr when
// out is nil. Unknown levels fall back to info; any format other than
// "text" is JSON.
func New(cfg domain.LoggingConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
