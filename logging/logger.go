package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes zerolog with the specified configuration
func InitLogger(level string, format string) {
	// Set time format
	zerolog.TimeFieldFormat = time.RFC3339Nano

	// Parse log level
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	// Configure output format
	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	} else {
		// JSON format (default)
		log.Logger = zerolog.New(os.Stderr).With().
			Timestamp().
			Logger()
	}

	// Add service metadata
	log.Logger = log.With().
		Str("service", "deployctl").
		Logger()
}

// RunLogger creates a logger scoped to one deployment run
func RunLogger(runID string, environment string) zerolog.Logger {
	return log.With().
		Str("run_id", runID).
		Str("environment", environment).
		Str("component", "deploy").
		Logger()
}

// RollbackLogger creates a logger scoped to one rollback invocation
func RollbackLogger(environment string) zerolog.Logger {
	return log.With().
		Str("environment", environment).
		Str("component", "rollback").
		Logger()
}

// ComponentLogger creates a logger for a named internal component
func ComponentLogger(name string) zerolog.Logger {
	return log.With().
		Str("component", name).
		Logger()
}
