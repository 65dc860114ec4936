package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "beacon",
	Short: "Beacon analytics tracker",
	Long:  `Beacon builds analytics event payloads and attaches context entities selected by schema rules.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(logLevel, logFormat)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

// setupLogging installs the default slog logger on stderr.
func setupLogging(level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid --log-format %q (expected json or text)", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
