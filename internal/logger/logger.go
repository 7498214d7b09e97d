// Package logger builds the zerolog loggers used by the commands
package logger

import (
	"github.com/rs/zerolog"

	"github.com/ospet/visual-compare-pdf/internal/config"
)

// New creates a logger from the log section of the configuration
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	return NewLoggerBuilder().WithConfig(cfg).Build()
}

// NewWithRunID creates a logger whose events carry run_id
func NewWithRunID(cfg config.LogConfig, runID string) (zerolog.Logger, error) {
	return NewLoggerBuilder().WithConfig(cfg).WithRunID(runID).Build()
}
