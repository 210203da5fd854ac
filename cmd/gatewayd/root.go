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
	Use:   "gatewayd",
	Short: "RAG gateway for a corpus of classical Arabic books",
	Long: `gatewayd serves the /query endpoint: it rewrites a raw question,
embeds it dense and sparse, hybrid-searches the vector store, and asks
an LLM for a grounded answer over the retrieved sources, optionally
streaming the answer back as newline-delimited JSON.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or $HOME/.corpus/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default: info, env: MAKTABA_LOG_LEVEL)")
	rootCmd.AddCommand(serveCmd)
}
