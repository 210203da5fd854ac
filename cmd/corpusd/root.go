package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

// shutdownGrace bounds how long the HTTP server waits for in-flight
// requests to finish once a shutdown signal arrives.
const shutdownGrace = 10 * time.Second

// parseLogLevel converts a string log level to slog.Level, case
// insensitive, defaulting to info on an unrecognized value.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be debug, info, warn, or error", level)
	}
}

func newLogger() *slog.Logger {
	level := logLevel
	if level == "" {
		level = os.Getenv("MAKTABA_LOG_LEVEL")
	}
	parsed, err := parseLogLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, using info\n", err)
		parsed = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parsed}))
}

var rootCmd = &cobra.Command{
	Use:   "corpusd",
	Short: "Export pipeline for a corpus of classical Arabic books",
	Long: `corpusd drives the book export pipeline: acquiring raw HTML from the
upstream crawler, processing and chunking it, embedding it dense and
sparse, and writing the result to the object, relational, and vector
stores. It also serves the export-service HTTP surface for browsing
the catalog and submitting/inspecting export jobs.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or $HOME/.corpus/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default: info, env: MAKTABA_LOG_LEVEL)")
	rootCmd.AddCommand(serveCmd)
}
