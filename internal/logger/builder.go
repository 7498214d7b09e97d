package logger

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/ospet/visual-compare-pdf/internal/config"
)

// LoggerBuilder provides fluent interface for building loggers
type LoggerBuilder struct {
	config  LoggerConfig
	factory *WriterFactory
	err     error
}

// NewLoggerBuilder creates a new logger builder
func NewLoggerBuilder() *LoggerBuilder {
	return &LoggerBuilder{
		config:  DefaultLoggerConfig(),
		factory: NewWriterFactory(),
	}
}

// WithConfig sets the logger configuration
func (lb *LoggerBuilder) WithConfig(cfg config.LogConfig) *LoggerBuilder {
	lc, err := ConvertConfig(cfg)
	lc.RunID = lb.config.RunID
	lb.config = lc
	if err != nil {
		lb.err = err
	}
	return lb
}

// WithRunID tags every event with the comparison run
func (lb *LoggerBuilder) WithRunID(runID string) *LoggerBuilder {
	lb.config.RunID = runID
	return lb
}

// WithWriter replaces stderr as the console destination
func (lb *LoggerBuilder) WithWriter(w io.Writer) *LoggerBuilder {
	lb.factory.console = w
	return lb
}

// Build creates the logger instance
func (lb *LoggerBuilder) Build() (zerolog.Logger, error) {
	if lb.err != nil {
		return zerolog.Nop(), lb.err
	}
	if lb.config.EnableFile && lb.config.FilePath == "" {
		return zerolog.Nop(), errors.New("file path required when file logging enabled")
	}

	var writers []io.Writer
	if lb.config.EnableConsole {
		writers = append(writers, lb.factory.CreateConsoleWriter(lb.config.Format))
	}
	if lb.config.EnableFile {
		w, err := lb.factory.CreateFileWriter(lb.config)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("failed to open log file %s: %w", lb.config.FilePath, err)
		}
		writers = append(writers, w)
	}
	if len(writers) == 0 {
		return zerolog.Nop(), errors.New("no output writers configured")
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lb.config.Level).
		With().
		Timestamp()
	if lb.config.RunID != "" {
		ctx = ctx.Str("run_id", lb.config.RunID)
	}
	return ctx.Logger(), nil
}
