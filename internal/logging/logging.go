package logging

import (
	"io"
	"os"
	"strings"

	"github.com/mvp-joe/resgraph/internal/config"
	"github.com/sirupsen/logrus"
)

// New builds a logger from the logging configuration. Unknown levels fall
// back to info; an unopenable output file falls back to stderr.
func New(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info' instead. Error: %v", cfg.Level, err)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		output = os.Stdout
	case "stderr", "":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			logger.Warnf("Failed to open log file '%s', using 'stderr' instead. Error: %v", cfg.Output, err)
			output = os.Stderr
		} else {
			output = file
		}
	}
	logger.SetOutput(output)

	return logger
}

// Discard returns a logger that drops everything, for tests and quiet runs.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
